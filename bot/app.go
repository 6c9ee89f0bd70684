// Package bot wires the conversation state machine, validator, relay,
// and exporters to the Telegram runtime. It owns all rendering: flow
// replies stay declarative and are turned into sends and edits here.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"finbot/bot/flow"
	"finbot/core/bootstrap"
	coretelegram "finbot/core/telegram"
	"finbot/core/telegram/router"
	"finbot/core/telegram/state"
	"finbot/ledger/api"
	"finbot/ledger/lookup"
	"finbot/ledger/report"
)

// App holds the assembled application.
type App struct {
	cfg       *Config
	db        *sqlx.DB
	store     *lookup.Store
	machine   *flow.Machine
	sessions  state.Manager[flow.Form]
	csv       report.Exporter
	xlsx      report.Exporter
	startedAt time.Time
}

// Bootstrap initializes infrastructure and assembles the application.
func Bootstrap(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bot: nil config")
	}

	res, err := bootstrap.Run(bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	ceiling, err := decimal.NewFromString(cfg.Core.Limits.MaxAmount)
	if err != nil {
		_ = res.DB.Close()
		return nil, fmt.Errorf("bot: invalid limits.max_amount %q: %w", cfg.Core.Limits.MaxAmount, err)
	}

	relay := api.New(api.Config{
		BaseURL:  cfg.Core.Ledger.BaseURL,
		Timeout:  time.Duration(cfg.Core.Ledger.TimeoutSeconds) * time.Second,
		Attempts: cfg.Core.Ledger.RetryAttempts,
		Backoff:  time.Duration(cfg.Core.Ledger.RetryBackoffMS) * time.Millisecond,
	})

	store := lookup.New(res.DB)

	app := &App{
		cfg:       cfg,
		db:        res.DB,
		store:     store,
		machine:   flow.New(relay, store, ceiling),
		sessions:  state.NewMemoryManager[flow.Form](),
		csv:       report.CSVExporter{},
		xlsx:      report.XLSXExporter{},
		startedAt: time.Now(),
	}
	app.registerFlowHandlers()
	return app, nil
}

// TelegramRunOptions builds the runtime wiring consumed by core/cmd.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	a.registerCommands(reg)
	if err := a.registerCallbacks(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Core.Telegram.AdminID,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.sessions, reg, router.TextOptions{})...)

	return coretelegram.RunOptions{
		Config:      a.cfg.CoreConfig(),
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg.CoreConfig(), nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.db.Close()
		},
	}, nil
}
