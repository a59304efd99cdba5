package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloudeng.io/logging/ctxlog"

	"github.com/unklstewy/nightsky/pkg/almanac"
	"github.com/unklstewy/nightsky/pkg/config"
)

func lunisolarConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Ephemeris.LunisolarOnly = true
	cfg.Ephemeris.VSOP87Dir = ""
	return cfg
}

func TestNewLunisolar(t *testing.T) {
	agg, err := New(lunisolarConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if agg.Cache() == nil {
		t.Fatal("Expected a result cache")
	}

	res, err := agg.Events(context.Background(), 52.473, 13.403, time.Date(2024, 8, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if res.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q, want Europe/Berlin", res.Timezone)
	}
	if res.SunInfo.Sunrise == nil {
		t.Error("Expected a sunrise in Berlin")
	}
}

func TestNewRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
		want   string
	}{
		{"invalid config", func(c *config.Config) { c.Engine.CacheSize = 0 }, "invalid configuration"},
		{"missing vsop87 files", func(c *config.Config) {
			c.Ephemeris.LunisolarOnly = false
			c.Ephemeris.VSOP87Dir = filepath.Join(os.TempDir(), "no-such-vsop87")
		}, "VSOP87"},
		{"missing showers file", func(c *config.Config) { c.Engine.ShowersFile = "/no/such/showers.yaml" }, "shower calendar"},
		{"bad zone", func(c *config.Config) { c.Observer.TimeZone = "Mars/Olympus_Mons" }, "time zone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := lunisolarConfig()
			tt.modify(cfg)
			_, err := New(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestNewContext(t *testing.T) {
	cfg := lunisolarConfig()
	cfg.Engine.ConjunctionSampling = "hourly"
	cfg.Engine.SearchStepSeconds = 300
	cfg.Observer.TimeZone = "Asia/Tokyo"

	astro, err := NewContext(cfg)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	if astro.Sampling != almanac.SampleHourly {
		t.Errorf("Sampling = %v", astro.Sampling)
	}
	if astro.Search.Step != 5*time.Minute || astro.Search.Precision != time.Second {
		t.Errorf("Search = %+v", astro.Search)
	}
	loc, err := astro.Zones.Lookup(52.473, 13.403)
	if err != nil || loc.String() != "Europe/Berlin" {
		t.Errorf("coordinates should decide the zone: %v, %v", loc, err)
	}
	loc, err = astro.Zones.Lookup(-40.0, -30.0)
	if err != nil || loc.String() != "Asia/Tokyo" {
		t.Errorf("configured zone should cover open ocean: %v, %v", loc, err)
	}
}

func TestConfiguredZoneDoesNotOverrideQueries(t *testing.T) {
	cfg := lunisolarConfig()
	cfg.Observer.TimeZone = "Europe/Berlin"
	agg, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := agg.Events(context.Background(), 35.68, 139.69, time.Date(2024, 8, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if res.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q, want Asia/Tokyo", res.Timezone)
	}
	// Tokyo sunrise is near 05:00 JST, sunset near 18:40 JST
	rise, set := res.SunInfo.SunriseLocal, res.SunInfo.SunsetLocal
	if rise == nil || set == nil {
		t.Fatalf("sun info = %+v, want local times", res.SunInfo)
	}
	if rise.Hour() < 4 || rise.Hour() > 6 || set.Hour() < 18 || set.Hour() > 19 {
		t.Errorf("local sunrise %v, sunset %v, want early morning and evening", rise, set)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx, err := NewLogger(context.Background(), config.LoggingConfig{Level: "warn", JSON: true}, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	ctxlog.Logger(ctx).Info("hidden")
	ctxlog.Logger(ctx).Warn("shown", "key", "value")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "shown" || rec["key"] != "value" {
		t.Errorf("record = %v", rec)
	}

	buf.Reset()
	ctx, err = NewLogger(context.Background(), config.LoggingConfig{Level: "debug"}, &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	ctxlog.Logger(ctx).Debug("text")
	if !strings.Contains(buf.String(), "msg=text") {
		t.Errorf("expected text output, got %q", buf.String())
	}

	if _, err := NewLogger(context.Background(), config.LoggingConfig{Level: "chatty"}, &buf); err == nil {
		t.Error("Expected error for unknown level")
	}
}
