package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/nightsky/pkg/coordinates"
	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

const (
	minZoom  = 0.5
	maxZoom  = 3.0
	zoomStep = 0.25
)

// AppConfig holds what the chart needs to run.
type AppConfig struct {
	Provider ephemeris.Provider
	Bodies   []ephemeris.Body
	Observer coordinates.Observer
	Location *time.Location
	At       time.Time

	// Live follows the wall clock until the user steps away from it.
	Live bool
}

// App is the sky chart application.
type App struct {
	provider ephemeris.Provider
	bodies   []ephemeris.Body
	observer coordinates.Observer
	location *time.Location

	tviewApp *tview.Application
	sky      *SkyView
	info     *tview.TextView
	controls *tview.TextView
	root     *tview.Flex

	mu        sync.RWMutex
	at        time.Time
	positions []BodyPosition
	selected  int
	zoom      float64
	live      bool
}

// NewApp creates the application and computes the first chart.
func NewApp(cfg AppConfig) *App {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	a := &App{
		provider: cfg.Provider,
		bodies:   cfg.Bodies,
		observer: cfg.Observer,
		location: loc,
		at:       cfg.At.Truncate(time.Minute),
		zoom:     1.0,
		live:     cfg.Live,
	}
	a.setupUI()
	a.recompute()
	return a
}

func (a *App) setupUI() {
	a.tviewApp = tview.NewApplication()
	a.sky = NewSkyView(a)

	a.info = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.info.SetBorder(true).SetTitle(" Bodies ")

	a.controls = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	a.controls.SetBorder(true).SetTitle(" Controls ")
	a.controls.SetText(`[yellow]TIME[-]
  [white]←/→, h/l[-]  ∓1 hour
  [white]PgUp/PgDn[-] ∓1 day
  [white]n[-]         Now (live)

[yellow]BODIES[-]
  [white]↑/↓, j/k[-]  Select

[yellow]ZOOM[-]
  [white]+/-[-]       Zoom
  [white]0[-]         Reset

[yellow]CONTROL[-]
  [white]q[-]         Quit`)

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.info, 0, 2, false).
		AddItem(a.controls, 17, 0, false)

	a.root = tview.NewFlex().
		AddItem(a.sky, 0, 3, true).
		AddItem(side, 36, 0, false)

	a.tviewApp.SetRoot(a.root, true).SetInputCapture(a.handleKeyboard)
}

// handleKeyboard runs on the UI goroutine, so state changes made here are
// drawn once it returns.
func (a *App) handleKeyboard(event *tcell.EventKey) *tcell.EventKey {
	key := event.Key()
	r := event.Rune()

	switch {
	case key == tcell.KeyEscape || key == tcell.KeyCtrlC || (key == tcell.KeyRune && r == 'q'):
		a.tviewApp.Stop()
		return nil
	case key == tcell.KeyLeft || (key == tcell.KeyRune && r == 'h'):
		a.step(-time.Hour)
	case key == tcell.KeyRight || (key == tcell.KeyRune && r == 'l'):
		a.step(time.Hour)
	case key == tcell.KeyPgUp:
		a.step(-24 * time.Hour)
	case key == tcell.KeyPgDn:
		a.step(24 * time.Hour)
	case key == tcell.KeyUp || (key == tcell.KeyRune && r == 'k'):
		a.moveSelection(-1)
	case key == tcell.KeyDown || (key == tcell.KeyRune && r == 'j'):
		a.moveSelection(1)
	case key == tcell.KeyRune && r == 'n':
		a.mu.Lock()
		a.at = time.Now().UTC().Truncate(time.Minute)
		a.live = true
		a.mu.Unlock()
		a.recompute()
	case key == tcell.KeyRune && (r == '+' || r == '='):
		a.setZoom(zoomStep)
	case key == tcell.KeyRune && r == '-':
		a.setZoom(-zoomStep)
	case key == tcell.KeyRune && r == '0':
		a.mu.Lock()
		a.zoom = 1.0
		a.mu.Unlock()
	default:
		return event
	}
	return nil
}

// step moves the chart instant and leaves live mode.
func (a *App) step(d time.Duration) {
	a.mu.Lock()
	a.at = a.at.Add(d)
	a.live = false
	a.mu.Unlock()
	a.recompute()
}

func (a *App) moveSelection(delta int) {
	a.mu.Lock()
	if n := len(a.positions); n > 0 {
		a.selected = (a.selected + delta + n) % n
	}
	a.mu.Unlock()
	a.updateInfo()
}

func (a *App) setZoom(delta float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.zoom = min(maxZoom, max(minZoom, a.zoom+delta))
}

// recompute positions every body at the current instant.
func (a *App) recompute() {
	a.mu.RLock()
	at := a.at
	a.mu.RUnlock()

	positions := ComputePositions(a.provider, a.observer, a.bodies, at)

	a.mu.Lock()
	a.positions = positions
	if a.selected >= len(positions) {
		a.selected = 0
	}
	a.mu.Unlock()
	a.updateInfo()
}

func (a *App) updateInfo() {
	a.info.SetText(a.infoText())
}

func (a *App) infoText() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var b strings.Builder
	local := a.at.In(a.location)
	fmt.Fprintf(&b, "[yellow]%s[-]\n", local.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "%s UTC", a.at.UTC().Format("15:04"))
	if a.live {
		b.WriteString("  [green]LIVE[-]")
	}
	fmt.Fprintf(&b, "\n%.3f, %.3f\n\n", a.observer.Location.Latitude, a.observer.Location.Longitude)

	for i, p := range a.positions {
		marker := "  "
		if i == a.selected {
			marker = "[yellow]>[-] "
		}
		switch {
		case p.Err != nil:
			fmt.Fprintf(&b, "%s[gray]%-8s n/a[-]\n", marker, p.Body)
		case p.AboveHorizon():
			fmt.Fprintf(&b, "%s[white]%-8s[-] alt %5.1f° az %5.1f°\n", marker, p.Body, p.Coord.Altitude, p.Coord.Azimuth)
		default:
			fmt.Fprintf(&b, "%s[gray]%-8s alt %5.1f° az %5.1f°[-]\n", marker, p.Body, p.Coord.Altitude, p.Coord.Azimuth)
		}
	}
	return b.String()
}

// Run starts the UI and, while in live mode, refreshes the chart every
// minute.
func (a *App) Run() error {
	done := make(chan struct{})
	defer close(done)
	go a.tick(done)
	return a.tviewApp.Run()
}

func (a *App) tick(done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			a.tviewApp.QueueUpdateDraw(func() {
				a.mu.Lock()
				live := a.live
				if live {
					a.at = time.Now().UTC().Truncate(time.Minute)
				}
				a.mu.Unlock()
				if live {
					a.recompute()
				}
			})
		}
	}
}
