package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unklstewy/nightsky/pkg/events"
)

// eventSource is satisfied by *events.Aggregator.
type eventSource interface {
	Events(ctx context.Context, latitude, longitude float64, date time.Time) (*events.Result, error)
}

type model struct {
	ctx     context.Context
	source  eventSource
	name    string
	lat     float64
	lon     float64
	date    time.Time
	result  *events.Result
	err     error
	loading bool
	width   int
}

// resultMsg carries a finished computation. date identifies the request so
// that results for a day the user has already left are dropped.
type resultMsg struct {
	date   time.Time
	result *events.Result
	err    error
}

func newModel(ctx context.Context, source eventSource, name string, lat, lon float64, date time.Time) model {
	return model{
		ctx:     ctx,
		source:  source,
		name:    name,
		lat:     lat,
		lon:     lon,
		date:    truncateDay(date),
		loading: true,
		width:   80,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// compute returns a command that runs the aggregator for the model's day.
func (m model) compute() tea.Cmd {
	ctx, source, lat, lon, date := m.ctx, m.source, m.lat, m.lon, m.date
	return func() tea.Msg {
		res, err := source.Events(ctx, lat, lon, date)
		return resultMsg{date: date, result: res, err: err}
	}
}

func (m model) Init() tea.Cmd {
	return m.compute()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			return m.step(-1)
		case "right", "l":
			return m.step(1)
		case "up", "k":
			return m.step(-7)
		case "down", "j":
			return m.step(7)
		case "t":
			return m.goTo(time.Now().UTC())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case resultMsg:
		if !msg.date.Equal(m.date) {
			return m, nil
		}
		m.loading = false
		m.result, m.err = msg.result, msg.err
	}
	return m, nil
}

func (m model) step(days int) (tea.Model, tea.Cmd) {
	return m.goTo(m.date.AddDate(0, 0, days))
}

func (m model) goTo(day time.Time) (tea.Model, tea.Cmd) {
	day = truncateDay(day)
	if day.Equal(m.date) && !m.loading {
		return m, nil
	}
	m.date = day
	m.loading = true
	m.result, m.err = nil, nil
	return m, m.compute()
}
