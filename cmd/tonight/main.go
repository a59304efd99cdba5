// tonight is a terminal dashboard of one day's astronomical events.
// Arrow keys step through the calendar.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/nightsky/internal/engine"
	"github.com/unklstewy/nightsky/pkg/config"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	latFlag    = flag.Float64("lat", math.NaN(), "Observer latitude in degrees (default: configured observer)")
	lonFlag    = flag.Float64("lon", math.NaN(), "Observer longitude in degrees (default: configured observer)")
	dateFlag   = flag.String("date", "", "UTC date as YYYY-MM-DD (default: today)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	name := cfg.Observer.Name
	lat, lon := cfg.Observer.Latitude, cfg.Observer.Longitude
	if !math.IsNaN(*latFlag) && !math.IsNaN(*lonFlag) {
		lat, lon = *latFlag, *lonFlag
		name = fmt.Sprintf("%.3f, %.3f", lat, lon)
	}

	day := time.Now().UTC()
	if *dateFlag != "" {
		if day, err = time.Parse(time.DateOnly, *dateFlag); err != nil {
			log.Fatalf("Invalid -date %q: %v", *dateFlag, err)
		}
	}

	// The dashboard owns the terminal, so engine logs are discarded.
	ctx, err := engine.NewLogger(context.Background(), cfg.Logging, io.Discard)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	agg, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize event engine: %v", err)
	}

	m := newModel(ctx, agg, name, lat, lon, day)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
