package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teampulse/pulse/internal/auth"
	"github.com/teampulse/pulse/internal/company"
	"github.com/teampulse/pulse/internal/config"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/integrity"
	"github.com/teampulse/pulse/internal/metrics"
	"github.com/teampulse/pulse/internal/mood"
	"github.com/teampulse/pulse/internal/team"
	"github.com/teampulse/pulse/internal/user"
	"github.com/teampulse/pulse/internal/validate"
)

// app holds the wired services shared by serve and seed.
type app struct {
	cfg  *config.Config
	pool *pgxpool.Pool

	userStore *user.Store
	users     *user.Service
	companies *company.Service
	teams     *team.Service
	moods     *mood.Service
	integrity *integrity.Coordinator
	tokens    *auth.TokenCodec
	accounts  *user.AuthAdapter
}

// loadConfig reads and validates the configuration and installs the JSON
// logger at the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	return cfg, nil
}

// newApp connects to the database and wires stores and services. Integrity
// outcomes are reported to m when it is non-nil.
func newApp(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*app, error) {
	retention, err := integrity.ParseRetention(cfg.Retention.MoodEntriesOnUserDelete)
	if err != nil {
		return nil, err
	}

	pool, err := database.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to database")

	v := validate.New()
	tokens := auth.NewTokenCodec(cfg.Auth.TokenSecret, auth.DefaultTokenTTL)

	companyStore := company.NewStore(pool)
	userStore := user.NewStore(pool)
	teamStore := team.NewStore(pool)
	moodStore := mood.NewStore(pool)

	users, err := user.NewService(userStore, companyStore, tokens, v, cfg.Auth.BcryptCost)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating user service: %w", err)
	}

	var observers []integrity.Observer
	if m != nil {
		observers = append(observers, m.ObserveIntegrity)
	}

	return &app{
		cfg:       cfg,
		pool:      pool,
		userStore: userStore,
		users:     users,
		companies: company.NewService(companyStore, v),
		teams:     team.NewService(teamStore, userStore, v),
		moods:     mood.NewService(moodStore, teamStore, v),
		integrity: integrity.New(integrity.NewPgxRunner(pool), retention, observers...),
		tokens:    tokens,
		accounts:  user.NewAuthAdapter(userStore),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}
