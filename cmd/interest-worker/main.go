package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"coinjar/internal/backend"
	"coinjar/internal/cli"
	"coinjar/internal/log"
	"coinjar/internal/services"
)

// cronLogger adapts the structured logger to cron's logging interface.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{log.FieldError, err.Error()}, keysAndValues...)...)
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentInterest)
	logger.Info("Starting interest-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err.Error())
		os.Exit(1)
	}

	processor := services.NewInterestProcessor(res.Service, logger)

	scheduler := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger{logger: logger}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger: logger})),
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		<-scheduler.Stop().Done()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err.Error())
		}
	})

	run := func() {
		now := time.Now().UTC()
		posted, err := processor.Process(ctx, now)
		if err != nil {
			logger.Error("Interest processing failed", log.FieldError, err.Error())
			return
		}
		logger.Info("Interest processing complete", "postings", posted)
	}

	if _, err := scheduler.AddFunc(cfg.InterestSchedule, run); err != nil {
		logger.Error("Invalid INTEREST_SCHEDULE", log.FieldError, err.Error(), "schedule", cfg.InterestSchedule)
		os.Exit(1)
	}

	// Catch up on anything due while the worker was down.
	logger.Info("Running initial interest processing")
	run()

	scheduler.Start()
	logger.Info("Interest schedule active", "schedule", cfg.InterestSchedule)

	cli.WaitForShutdown(ctx, done)
	logger.Info("interest-worker stopped")
}
