package main

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

// Terminal cells are roughly twice as tall as they are wide.
const aspectRatio = 2.0

// Point is a cell position on the screen.
type Point struct {
	X, Y int
}

// Project maps altitude/azimuth onto the chart with a stereographic
// projection centred on the zenith. The horizon lands on radius rows from
// the centre, north is up and east is to the right.
func Project(altitude, azimuth float64, centerX, centerY, radius int) Point {
	x, y := projectOffset(altitude, azimuth, float64(radius))
	return Point{
		X: centerX + int(math.Round(x)),
		Y: centerY + int(math.Round(y)),
	}
}

func projectOffset(altitude, azimuth, radius float64) (float64, float64) {
	zenithAngle := (90.0 - altitude) * math.Pi / 180.0
	r := radius * math.Tan(zenithAngle/2.0)
	azRad := azimuth * math.Pi / 180.0
	return r * math.Sin(azRad) * aspectRatio, -r * math.Cos(azRad)
}

// ringRadius is the projected distance in rows of an altitude circle.
func ringRadius(altitude float64, radius int) int {
	zenithAngle := (90.0 - altitude) * math.Pi / 180.0
	return int(math.Round(float64(radius) * math.Tan(zenithAngle/2.0)))
}

// chartBounds fits the horizon circle into a width x height area and
// returns its centre and radius in rows. zoom scales the radius.
func chartBounds(x, y, width, height int, zoom float64) (int, int, int) {
	radius := (height - 2) / 2
	if byWidth := int(float64(width-4) / (2 * aspectRatio)); byWidth < radius {
		radius = byWidth
	}
	radius = int(float64(radius) * zoom)
	if radius < 1 {
		radius = 1
	}
	return x + width/2, y + height/2, radius
}

// drawEllipse traces a circle of r rows, stretched horizontally by the
// cell aspect ratio.
func drawEllipse(screen tcell.Screen, cx, cy, r int, ch rune, style tcell.Style) {
	steps := 16 * (r + 1)
	for i := 0; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(math.Round(float64(r)*math.Sin(a)*aspectRatio))
		y := cy - int(math.Round(float64(r)*math.Cos(a)))
		screen.SetContent(x, y, ch, nil, style)
	}
}

// drawLine draws a line using Bresenham's line algorithm.
func drawLine(screen tcell.Screen, x0, y0, x1, y1 int, ch rune, style tcell.Style) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		screen.SetContent(x0, y0, ch, nil, style)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, ch := range []rune(text) {
		screen.SetContent(x+i, y, ch, nil, style)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
