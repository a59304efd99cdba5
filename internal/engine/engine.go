// Package engine builds the event aggregator and logger from the
// application configuration. The server and the terminal clients share it.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloudeng.io/logging/ctxlog"

	"github.com/unklstewy/nightsky/pkg/almanac"
	"github.com/unklstewy/nightsky/pkg/config"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
	"github.com/unklstewy/nightsky/pkg/events"
	"github.com/unklstewy/nightsky/pkg/localtime"
	"github.com/unklstewy/nightsky/pkg/meteors"
)

// NewProvider loads the configured ephemeris.
func NewProvider(cfg config.EphemerisConfig) (*ephemeris.Ephemeris, error) {
	ecfg := ephemeris.Config{VSOP87Dir: cfg.VSOP87Dir, Refraction: cfg.Refraction}
	if cfg.LunisolarOnly {
		return ephemeris.NewLunisolar(ecfg), nil
	}
	return ephemeris.Load(ecfg)
}

// NewContext assembles the aggregator's collaborators. Zones are resolved
// from each query's coordinates. A zone configured on the default observer
// only answers for coordinates no zone covers.
func NewContext(cfg *config.Config) (events.AstronomyContext, error) {
	provider, err := NewProvider(cfg.Ephemeris)
	if err != nil {
		return events.AstronomyContext{}, err
	}

	showers, err := meteors.Open(cfg.Engine.ShowersFile)
	if err != nil {
		return events.AstronomyContext{}, err
	}

	sampling, err := almanac.ParseSampling(cfg.Engine.ConjunctionSampling)
	if err != nil {
		return events.AstronomyContext{}, err
	}

	zones := localtime.Chain{localtime.NewResolver()}
	if cfg.Observer.TimeZone != "" {
		fixed, err := localtime.FixedZone(cfg.Observer.TimeZone)
		if err != nil {
			return events.AstronomyContext{}, err
		}
		zones = append(zones, fixed)
	}

	return events.AstronomyContext{
		Ephemeris: provider,
		Showers:   showers,
		Zones:     zones,
		Search: almanac.SearchOptions{
			Step:      cfg.Engine.SearchStep(),
			Precision: cfg.Engine.Precision(),
		},
		Sampling: sampling,
	}, nil
}

// New validates cfg and returns an aggregator with a result cache of
// cfg.Engine.CacheSize entries.
func New(cfg *config.Config) (*events.Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	astro, err := NewContext(cfg)
	if err != nil {
		return nil, err
	}
	cache, err := events.NewCache(cfg.Engine.CacheSize)
	if err != nil {
		return nil, err
	}
	return events.NewAggregator(astro, cache)
}

// NewLogger attaches a slog logger writing to w to ctx.
func NewLogger(ctx context.Context, cfg config.LoggingConfig, w io.Writer) (context.Context, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return ctx, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSON {
		return ctxlog.NewJSONLogger(ctx, w, opts), nil
	}
	return ctxlog.WithLogger(ctx, slog.New(slog.NewTextHandler(w, opts))), nil
}
