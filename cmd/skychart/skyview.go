package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/nightsky/pkg/ephemeris"
)

// SkyView is a tview primitive that draws the alt/az chart.
type SkyView struct {
	*tview.Box
	app *App
}

// NewSkyView creates the chart panel.
func NewSkyView(app *App) *SkyView {
	sv := &SkyView{
		Box: tview.NewBox(),
		app: app,
	}
	sv.SetBorder(true).SetTitle(" Sky - Alt/Az ")
	return sv
}

var compassLabels = []struct {
	azimuth float64
	label   string
}{
	{0, "N"}, {45, "NE"}, {90, "E"}, {135, "SE"},
	{180, "S"}, {225, "SW"}, {270, "W"}, {315, "NW"},
}

var bodyColors = map[ephemeris.Body]tcell.Color{
	ephemeris.Sun:     tcell.ColorYellow,
	ephemeris.Moon:    tcell.ColorWhite,
	ephemeris.Mercury: tcell.ColorGray,
	ephemeris.Venus:   tcell.ColorLightYellow,
	ephemeris.Mars:    tcell.ColorRed,
	ephemeris.Jupiter: tcell.ColorOrange,
	ephemeris.Saturn:  tcell.ColorTan,
}

// Draw renders the grid and every body above the horizon.
func (sv *SkyView) Draw(screen tcell.Screen) {
	sv.Box.DrawForSubclass(screen, sv)
	x, y, width, height := sv.GetInnerRect()

	sv.app.mu.RLock()
	zoom := sv.app.zoom
	positions := sv.app.positions
	selected := sv.app.selected
	sv.app.mu.RUnlock()

	cx, cy, radius := chartBounds(x, y, width, height, zoom)

	gridStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	horizonStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for _, alt := range []float64{30, 60} {
		r := ringRadius(alt, radius)
		drawEllipse(screen, cx, cy, r, '·', gridStyle)
		drawText(screen, cx+1, cy-r, fmt.Sprintf("%.0f°", alt), gridStyle)
	}
	drawEllipse(screen, cx, cy, radius, '○', horizonStyle)
	screen.SetContent(cx, cy, '+', nil, gridStyle)

	for _, c := range compassLabels {
		p := Project(-8, c.azimuth, cx, cy, radius)
		drawText(screen, p.X-len(c.label)/2, p.Y, c.label, horizonStyle)
	}

	for i, pos := range positions {
		if !pos.AboveHorizon() {
			continue
		}
		p := Project(pos.Coord.Altitude, pos.Coord.Azimuth, cx, cy, radius)
		if p.X < x || p.X >= x+width || p.Y < y || p.Y >= y+height {
			continue
		}
		color, ok := bodyColors[pos.Body]
		if !ok {
			color = tcell.ColorLightBlue
		}
		style := tcell.StyleDefault.Foreground(color)
		if i == selected {
			style = style.Reverse(true)
			drawText(screen, p.X+2, p.Y, pos.Body.String(), tcell.StyleDefault.Foreground(color))
		}
		screen.SetContent(p.X, p.Y, bodySymbol(pos.Body), nil, style)
	}
}
