// skychart draws the Sun, Moon and planets on a terminal alt/az chart for
// the configured observer and lets the user step through time.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/unklstewy/nightsky/internal/engine"
	"github.com/unklstewy/nightsky/pkg/config"
	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/localtime"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	atFlag := flag.String("time", "", "Chart instant in RFC 3339 (default: now)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observer := coordinates.Observer{
		Location: coordinates.Geographic{
			Latitude:  cfg.Observer.Latitude,
			Longitude: cfg.Observer.Longitude,
			Altitude:  cfg.Observer.Elevation,
		},
		Timezone: cfg.Observer.TimeZone,
	}
	if err := observer.Validate(); err != nil {
		log.Fatalf("Invalid observer: %v", err)
	}

	at := time.Now().UTC()
	if *atFlag != "" {
		if at, err = time.Parse(time.RFC3339, *atFlag); err != nil {
			log.Fatalf("Invalid -time %q: %v", *atFlag, err)
		}
	}

	provider, err := engine.NewProvider(cfg.Ephemeris)
	if err != nil {
		log.Fatalf("Failed to load ephemeris: %v", err)
	}

	app := NewApp(AppConfig{
		Provider: provider,
		Bodies:   provider.Bodies(),
		Observer: observer,
		Location: observerLocation(observer),
		At:       at,
		Live:     *atFlag == "",
	})

	if err := app.Run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

// observerLocation resolves the display zone, falling back to UTC.
func observerLocation(o coordinates.Observer) *time.Location {
	if o.Timezone != "" {
		if loc, err := time.LoadLocation(o.Timezone); err == nil {
			return loc
		}
	}
	loc, err := localtime.NewResolver().Lookup(o.Location.Latitude, o.Location.Longitude)
	if err != nil {
		return time.UTC
	}
	return loc
}
