// Package app assembles the observers, the catalog and the exporters from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/emiliopalmerini/mobserve/internal/adapters/catalog"
	logadapter "github.com/emiliopalmerini/mobserve/internal/adapters/logger"
	"github.com/emiliopalmerini/mobserve/internal/adapters/otel"
	"github.com/emiliopalmerini/mobserve/internal/adapters/prometheus"
	"github.com/emiliopalmerini/mobserve/internal/domain"
	"github.com/emiliopalmerini/mobserve/internal/metrics"
	"github.com/emiliopalmerini/mobserve/internal/observer"
	"github.com/emiliopalmerini/mobserve/internal/ports"
	"github.com/emiliopalmerini/mobserve/internal/trajectory"
)

// App holds the wired components of one observing process.
type App struct {
	Hub        *observer.Hub
	Tracker    *metrics.Tracker
	Trajectory *trajectory.Engine
	Catalog    *domain.Catalog
	Pricing    domain.PricingTable
}

// LoadCatalog returns the built-in catalog and pricing table, extended with
// the catalog file. An explicitly configured file must exist; the default
// one is optional.
func LoadCatalog(cfg *Config) (*domain.Catalog, domain.PricingTable, error) {
	var (
		file *catalog.File
		err  error
	)
	if cfg.CatalogFile != "" {
		file, err = catalog.Load(cfg.CatalogFile)
	} else {
		path, pathErr := catalog.DefaultPath()
		if pathErr != nil {
			return domain.DefaultCatalog(), domain.DefaultPricingTable(), nil
		}
		file, err = catalog.LoadOptional(path)
	}
	if err != nil {
		return nil, nil, err
	}
	return file.Apply(domain.DefaultCatalog(), domain.DefaultPricingTable())
}

// New validates cfg and wires the observers. Exporters that cannot be
// created are logged and replaced by no-ops. A nil logger discards everything.
func New(ctx context.Context, cfg *Config, logger domain.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logadapter.Nop()
	}

	phases, pricing, err := LoadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	tracker, err := metrics.New(cfg.Metrics(), pricing, metrics.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	engine, err := trajectory.New(cfg.Trajectory(), phases, trajectory.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	hub := observer.NewHub(tracker, engine,
		observer.WithLogger(logger),
		observer.WithTurnOnProvider(cfg.TurnOnProvider),
		observer.WithExporters(exporters(ctx, cfg, logger)...),
	)

	return &App{
		Hub:        hub,
		Tracker:    tracker,
		Trajectory: engine,
		Catalog:    phases,
		Pricing:    pricing,
	}, nil
}

func exporters(ctx context.Context, cfg *Config, logger domain.Logger) []ports.MetricsExporter {
	var out []ports.MetricsExporter

	if cfg.OTel.Enabled {
		exp, err := otel.NewExporter(ctx, cfg.OTel)
		if err != nil {
			logger.Error(fmt.Sprintf("otel exporter unavailable: %v", err))
			out = append(out, otel.NewNoOpExporter())
		} else {
			out = append(out, exp)
		}
	}

	if cfg.Prometheus.Enabled {
		exp, err := prometheus.NewExporter(cfg.Prometheus)
		switch {
		case errors.Is(err, prometheus.ErrDisabled):
			logger.Error("prometheus exporter enabled without a textfile path")
			out = append(out, prometheus.NewNoOpExporter())
		case err != nil:
			logger.Error(fmt.Sprintf("prometheus exporter unavailable: %v", err))
			out = append(out, prometheus.NewNoOpExporter())
		default:
			out = append(out, exp)
		}
	}

	return out
}
