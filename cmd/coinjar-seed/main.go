package main

import (
	"context"
	"flag"
	"os"
	"time"

	"coinjar/internal/apiclient"
	"coinjar/internal/cli"
	"coinjar/internal/log"
	"coinjar/internal/seed"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	var (
		baseURL = flag.String("api", cfg.APIBaseURL, "coinjar API base URL")
		perAcct = flag.Int("transactions", 20, "transactions per account")
		days    = flag.Int("days", 90, "spread transactions over this many days")
		seedVal = flag.Int64("seed", 0, "random seed (0 = random)")
	)
	flag.Parse()

	client, err := apiclient.New(*baseURL)
	if err != nil {
		logger.Error("Invalid API URL", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		logger.Error("API is not reachable", log.FieldError, err.Error(), "url", *baseURL)
		os.Exit(1)
	}

	s := seed.New(client, seed.Options{Seed: *seedVal, TransactionsPer: *perAcct, Days: *days}, logger)
	res, err := s.Run(ctx)
	if err != nil {
		logger.Error("Seeding failed", log.FieldError, err.Error(),
			"accounts", res.Accounts, "transactions", res.Transactions)
		os.Exit(1)
	}
	logger.Info("Seeding complete", "accounts", res.Accounts, "transactions", res.Transactions)
}
