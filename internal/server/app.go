// Package server wires the Password Guardian core together: it opens
// the record store, runs migrations, builds the pending-code ledger and
// the notifier, and exposes the auth and secret services.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/anfelyns/Password-Guardian-sub000/internal/logging"
	"github.com/anfelyns/Password-Guardian-sub000/internal/otp"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/config"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/notify"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/repomanager"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/services"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	db            *sql.DB
	AuthService   *services.AuthService
	SecretService *services.SecretService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	ledger := otp.NewLedger(otp.SystemClock())

	var notifier notify.Notifier
	if cfg.SMTPAddr != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword)
	} else {
		// No relay configured, codes go to the log. Development only.
		notifier = notify.NewLogNotifier(logger)
	}

	return &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		AuthService:   services.NewAuthService(db, rm, ledger, notifier, logger, cfg),
		SecretService: services.NewSecretService(db, rm, logger),
	}, nil
}

func (app *App) Close() error {
	return app.db.Close()
}
