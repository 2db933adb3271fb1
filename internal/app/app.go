package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/season-swap/internal/config"
	"github.com/linemk/season-swap/internal/service"
	"github.com/linemk/season-swap/internal/storage"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *sql.DB
	Services Services
}

// NewApp подключается к БД и собирает сервисы поверх репозиториев
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Services: NewServices(log, cfg, db),
	}, nil
}

// NewServices собирает слой сервисов: репозитории -> ledger/catalog -> торговля
func NewServices(log *slog.Logger, cfg *config.Config, db *sql.DB) Services {
	userRepo := storage.NewUserRepository(db)
	productRepo := storage.NewProductRepository(db)
	tradeRepo := storage.NewTradeRepository(db)
	coinTxRepo := storage.NewCoinTransactionRepository(db)
	txRunner := storage.NewTxRunner(db, cfg.Trade.SettlementRetries)

	catalog := service.NewCatalogService(log, productRepo)
	ledger := service.NewLedger(log, userRepo, coinTxRepo)

	return Services{
		Auth:    service.NewAuthService(log, userRepo, cfg.JWT.Secret, cfg.JWT.TTL(), cfg.Ledger.StartingBalance),
		Profile: service.NewProfileService(log, userRepo),
		Info:    service.NewInfoService(log, userRepo, catalog, coinTxRepo),
		Catalog: catalog,
		Ledger:  ledger,
		Trade:   service.NewTradeService(log, txRunner, tradeRepo, userRepo, catalog, ledger, cfg.Trade.SettlementTimeout),
	}
}
