// Package app assembles the engine from configuration.
package app

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"toolrent-backend/internal/config"
	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/gateway"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/messaging"
	"toolrent-backend/internal/notify"
	"toolrent-backend/internal/policy"
	"toolrent-backend/internal/repository"
	"toolrent-backend/internal/repository/memory"
	"toolrent-backend/internal/repository/postgres"
	"toolrent-backend/internal/service"
)

// Backend is the allocation store plus the external catalog and directory.
type Backend struct {
	Tx    repository.Transactor
	Tools repository.ToolCatalog
	Users repository.UserDirectory
	close []func() error
}

func (b *Backend) Close() {
	for i := len(b.close) - 1; i >= 0; i-- {
		if err := b.close[i](); err != nil {
			logger.Warn("Failed to release resource", "error", err)
		}
	}
}

func init() {
	logger.SetExpectedErrorClassifier(func(err error) bool {
		return domain.KindOf(err) != domain.KindInternal
	})
}

// OpenBackend connects to the configured storage.
func OpenBackend(cfg *config.Config) (*Backend, error) {
	switch cfg.Storage.Type {
	case "memory":
		store := memory.NewStore()
		if cfg.Storage.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.Storage.SeedFile); err != nil {
				return nil, err
			}
			logger.Info("Loaded memory seed", "file", cfg.Storage.SeedFile)
		}
		logger.Warn("Using in-memory storage; data is lost on restart")
		return &Backend{Tx: store, Tools: store, Users: store}, nil
	default:
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		logger.Info("Database connection established")
		store := postgres.NewStore(db)
		return &Backend{Tx: store, Tools: store, Users: store, close: []func() error{db.Close}}, nil
	}
}

// Notifier builds the fan-out of configured event sinks. The returned closer
// releases broker connections.
func Notifier(cfg *config.Config, b *Backend) (service.Notifier, func() error, error) {
	var sinks notify.Multi
	closer := func() error { return nil }

	if cfg.SendGrid.APIKey != "" {
		sinks = append(sinks, notify.NewSendGridNotifier(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName, b.Users, b.Tools))
		logger.Info("E-mail notifications enabled", "from", cfg.SendGrid.FromEmail)
	}
	if cfg.RabbitMQ.Host != "" {
		client := messaging.NewClient(cfg.RabbitMQ)
		if err := client.Connect(); err != nil {
			return nil, closer, err
		}
		closer = client.Close
		sinks = append(sinks, messaging.NewPublisher(client, cfg.RabbitMQ.Exchange))
		logger.Info("Booking events published", "exchange", cfg.RabbitMQ.Exchange)
	}

	if len(sinks) == 0 {
		return notify.Nop{}, closer, nil
	}
	return sinks, closer, nil
}

type Services struct {
	Bookings  service.BookingService
	Condition service.ConditionService
	Wallet    service.WalletService
	Policy    policy.Policy
}

func NewServices(cfg *config.Config, b *Backend, n service.Notifier) (*Services, error) {
	p, err := cfg.BookingPolicy()
	if err != nil {
		return nil, err
	}
	deps := service.Dependencies{
		Tx:       b.Tx,
		Tools:    b.Tools,
		Users:    b.Users,
		Gateway:  gateway.NewManualGateway(),
		Notifier: n,
		Clock:    policy.SystemClock{},
		Policy:   p,
	}
	return &Services{
		Bookings:  service.NewBookingService(deps),
		Condition: service.NewConditionService(deps),
		Wallet:    service.NewWalletService(deps),
		Policy:    p,
	}, nil
}
