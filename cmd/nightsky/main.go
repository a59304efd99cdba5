// nightsky prints the astronomical events of one day as JSON.
//
// Usage:
//
//	nightsky [-config path] [-lat deg -lon deg] [-date YYYY-MM-DD]
//
// Without -lat/-lon the configured observer is used.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"cloudeng.io/logging"

	"github.com/unklstewy/nightsky/internal/engine"
	"github.com/unklstewy/nightsky/pkg/config"
	"github.com/unklstewy/nightsky/pkg/coordinates"
)

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

// run parses args, computes the events and writes them to stdout.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("nightsky", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "configs/config.json", "Path to configuration file")
	lat := fs.Float64("lat", math.NaN(), "Observer latitude in degrees (default: configured observer)")
	lon := fs.Float64("lon", math.NaN(), "Observer longitude in degrees (default: configured observer)")
	date := fs.String("date", "", "UTC date as YYYY-MM-DD (default: today)")
	pretty := fs.Bool("pretty", true, "Indent the JSON output")
	timeout := fs.Duration("timeout", time.Minute, "Maximum computation time")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	observer := coordinates.NewObserver(cfg.Observer.Latitude, cfg.Observer.Longitude)
	observer.Location.Altitude = cfg.Observer.Elevation
	if math.IsNaN(*lat) != math.IsNaN(*lon) {
		return errors.New("-lat and -lon must be given together")
	}
	if !math.IsNaN(*lat) {
		observer = coordinates.NewObserver(*lat, *lon)
	}

	day := time.Now().UTC()
	if *date != "" {
		if day, err = time.Parse(time.DateOnly, *date); err != nil {
			return fmt.Errorf("invalid -date %q, want YYYY-MM-DD", *date)
		}
	}

	ctx, err = engine.NewLogger(ctx, cfg.Logging, stderr)
	if err != nil {
		return err
	}
	agg, err := engine.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	res, err := agg.EventsAt(ctx, observer, day)
	if err != nil {
		return err
	}

	if *pretty {
		return logging.NewJSONFormatter(stdout, "", "  ").Format(res)
	}
	return json.NewEncoder(stdout).Encode(res)
}
