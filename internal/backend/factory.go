package backend

import (
	"context"
	"fmt"

	"coinjar/internal/amqp"
	"coinjar/internal/cache"
	"coinjar/internal/history"
	"coinjar/internal/ledger"
	"coinjar/internal/ledger/memory"
	"coinjar/internal/log"
	"coinjar/internal/services"
	"coinjar/internal/storage"
	"coinjar/internal/storage/postgres"
)

const (
	defaultHistoryCacheSize = 256
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional: the ledger works without event publishing
	var (
		amqpClient *amqp.Client
		publisher  services.Publisher
	)
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	size := config.HistoryCacheSize
	if size < 1 {
		size = defaultHistoryCacheSize
	}
	memo := history.NewMemo(size, config.HistoryCacheTTL)
	service := services.NewLedgerService(store, publisher, memo, f.logger)

	sweeper := cache.NewManager(f.logger)
	sweeper.Register(memo.Cache())
	if config.HistoryCacheTTL > 0 {
		sweeper.StartCleanup(config.HistoryCacheTTL)
	}

	f.logger.Info("Initialized ledger backend",
		"type", config.Type.String(),
		"amqp_enabled", amqpClient != nil,
		"history_cache_size", size)

	return &BackendResult{
		Store:     store,
		Publisher: amqpClient,
		Service:   service,
		Cleanup: func() error {
			sweeper.Stop()
			return service.Close()
		},
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (ledger.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := postgres.New(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
		}
		f.logger.Info("Initialized Postgres store")
		return repo, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
