package app

import (
	"context"

	"github.com/rs/zerolog"

	"cfo-copilot/internal/config"
	"cfo-copilot/internal/copilot"
	"cfo-copilot/internal/dataset"
	"cfo-copilot/internal/ingest"
	"cfo-copilot/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

// loadDataset builds the immutable dataset context, from Postgres when a
// DSN is configured and from the CSV directory otherwise. This is the one
// I/O step; everything after it reads memory only.
func (a *App) loadDataset(ctx context.Context) (*dataset.Context, error) {
	base := a.Config.Reporting.BaseCurrency

	if a.Config.Database.DSN != "" {
		pool, err := storage.NewPool(ctx, a.Config.Database)
		if err != nil {
			return nil, err
		}
		store := storage.NewStore(pool)
		defer store.Close()

		a.Logger.Info().Msg("loading dataset from postgres")
		return store.LoadContext(ctx, base)
	}

	a.Logger.Info().Str("dir", a.Config.Dataset.Dir).Msg("loading dataset from csv")
	return ingest.LoadDir(a.Config.Dataset.Dir, base)
}

func (a *App) newCopilot(data *dataset.Context) *copilot.Copilot {
	return copilot.New(data, copilot.Options{
		BurnWindow:  a.Config.Reporting.BurnWindow,
		TrendWindow: a.Config.Reporting.TrendWindow,
	}, a.Logger)
}

// AskOptions configure a one-shot question.
type AskOptions struct {
	PNGPath string
}

// ExportOptions configure a metric export.
type ExportOptions struct {
	Metric  string
	CSVPath string
	PNGPath string
}
