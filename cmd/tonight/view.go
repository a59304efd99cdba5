package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/nightsky/pkg/events"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	peakStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func (m model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Tonight at %s  |  %s", m.name, m.date.Format("Mon 02 Jan 2006"))
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("Computing events..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	case m.result != nil:
		b.WriteString(renderResult(m.result, m.width))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→: day  ↑/↓: week  t: today  q: quit"))
	return b.String()
}

func renderResult(r *events.Result, width int) string {
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		sectionStyle.Render(renderSun(r)),
		" ",
		sectionStyle.Render(renderMoon(r)))

	sections := []string{
		top,
		sectionStyle.Render(renderPlanets(r)),
		sectionStyle.Render(renderConjunctions(r)),
		sectionStyle.Render(renderShowers(r)),
	}
	if len(r.Diagnostics) > 0 {
		sections = append(sections, renderDiagnostics(r.Diagnostics))
	}
	out := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if width > 0 {
		out = lipgloss.NewStyle().MaxWidth(width).Render(out)
	}
	return out + "\n"
}

func renderSun(r *events.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Sun"))
	b.WriteString("\n")
	sun := r.SunInfo
	switch {
	case sun.PolarDay:
		b.WriteString("Above the horizon all day\n")
	case sun.PolarNight:
		b.WriteString("Below the horizon all day\n")
	default:
		fmt.Fprintf(&b, "Rise  %s\n", clock(sun.Sunrise, sun.SunriseLocal))
		fmt.Fprintf(&b, "Set   %s\n", clock(sun.Sunset, sun.SunsetLocal))
	}
	zone := r.Timezone
	if zone == "" {
		zone = "UTC (zone unknown)"
	}
	b.WriteString(dimStyle.Render(zone))
	return b.String()
}

func renderMoon(r *events.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Moon"))
	b.WriteString("\n")
	moon := r.MoonInfo
	fmt.Fprintf(&b, "Rise  %s\n", clock(moon.Moonrise, moon.MoonriseLocal))
	fmt.Fprintf(&b, "Set   %s\n", clock(moon.Moonset, moon.MoonsetLocal))
	fmt.Fprintf(&b, "%s %s, %.0f%% lit", phaseGlyph(moon.Elongation), moon.Phase, moon.Illumination*100)
	return b.String()
}

func renderPlanets(r *events.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Visible planets"))
	if len(r.VisiblePlanets) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("None tonight"))
		return b.String()
	}
	for _, p := range r.VisiblePlanets {
		rise := clock(p.Rise, p.RiseLocal)
		set := clock(p.Set, p.SetLocal)
		az := ""
		if p.RiseAltAz != nil {
			az = fmt.Sprintf("  rises %s", compass(p.RiseAltAz.Azimuth))
		}
		fmt.Fprintf(&b, "\n%-8s rise %s  set %s%s", p.Planet, rise, set, az)
	}
	return b.String()
}

func renderConjunctions(r *events.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Conjunctions"))
	if len(r.Conjunctions) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("None"))
		return b.String()
	}
	for _, c := range r.Conjunctions {
		fmt.Fprintf(&b, "\n%-16s %4.1f° apart at %s UTC, alt %.0f°",
			c.Pair(), c.Separation, c.Time.UTC().Format("15:04"), c.FirstPosition.Altitude)
	}
	return b.String()
}

func renderShowers(r *events.Result) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Meteor showers"))
	if len(r.MeteorShowers) == 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("No showers active"))
		return b.String()
	}
	for _, s := range r.MeteorShowers {
		line := fmt.Sprintf("%-22s %s – %s", s.Name, s.Start.Format("Jan 02"), s.End.Format("Jan 02"))
		if s.ZHR > 0 {
			line += fmt.Sprintf("  ZHR %d", s.ZHR)
		}
		b.WriteString("\n")
		if s.AtPeak {
			b.WriteString(peakStyle.Render(line + "  PEAK"))
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

func renderDiagnostics(diags []string) string {
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = errorStyle.Render("! " + d)
	}
	return strings.Join(lines, "\n")
}

// clock prefers the local time and falls back to UTC.
func clock(utc, local *time.Time) string {
	switch {
	case local != nil:
		return local.Format("15:04")
	case utc != nil:
		return utc.UTC().Format("15:04") + "Z"
	default:
		return "--:--"
	}
}

var compassPoints = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func compass(azimuth float64) string {
	i := int((azimuth+22.5)/45) % len(compassPoints)
	if i < 0 {
		i += len(compassPoints)
	}
	return compassPoints[i]
}

var phaseGlyphs = [...]string{"🌑", "🌒", "🌓", "🌔", "🌕", "🌖", "🌗", "🌘"}

func phaseGlyph(elongation float64) string {
	i := int((elongation+22.5)/45) % len(phaseGlyphs)
	if i < 0 {
		i += len(phaseGlyphs)
	}
	return phaseGlyphs[i]
}
