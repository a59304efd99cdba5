// Package meteors holds the annual meteor shower calendar and answers which
// showers are active on a given date.
package meteors

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed showers.yaml
var defaultShowers []byte

// MonthDay is a day of the year without a year, written "MM-DD".
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay parses "MM-DD".
func ParseMonthDay(s string) (MonthDay, error) {
	// 2000 is a leap year so 02-29 parses
	t, err := time.Parse("2006-01-02", "2000-"+strings.TrimSpace(s))
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

// MonthDayOf returns the month and day of t in t's location.
func MonthDayOf(t time.Time) MonthDay {
	_, m, d := t.Date()
	return MonthDay{Month: m, Day: d}
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// In returns midnight UTC of md in year.
func (md MonthDay) In(year int) time.Time {
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, time.UTC)
}

func (md MonthDay) ordinal() int {
	return int(md.Month)*100 + md.Day
}

// Before reports whether md falls earlier in the calendar year than o.
func (md MonthDay) Before(o MonthDay) bool {
	return md.ordinal() < o.ordinal()
}

func (md MonthDay) MarshalYAML() (any, error) {
	return md.String(), nil
}

func (md *MonthDay) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseMonthDay(value.Value)
	if err != nil {
		return err
	}
	*md = parsed
	return nil
}

// Shower is one annual meteor shower.
type Shower struct {
	Name   string     `yaml:"name"`
	Start  MonthDay   `yaml:"start"`
	End    MonthDay   `yaml:"end"`
	Peaks  []MonthDay `yaml:"peaks"`
	ZHR    int        `yaml:"zhr"`
	Parent string     `yaml:"parent"`
}

// wraps reports whether the activity period runs across the new year.
func (s Shower) wraps() bool {
	return s.End.Before(s.Start)
}

// Contains reports whether md falls within the activity period,
// boundaries included.
func (s Shower) Contains(md MonthDay) bool {
	if s.wraps() {
		return !md.Before(s.Start) || !s.End.Before(md)
	}
	return !md.Before(s.Start) && !s.End.Before(md)
}

func (s Shower) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("shower without a name")
	}
	if s.Start == (MonthDay{}) || s.End == (MonthDay{}) {
		return fmt.Errorf("%s: start and end are required", s.Name)
	}
	for _, p := range s.Peaks {
		if !s.Contains(p) {
			return fmt.Errorf("%s: peak %v outside %v..%v", s.Name, p, s.Start, s.End)
		}
	}
	return nil
}

// ActiveShower is a shower resolved against a concrete date.
type ActiveShower struct {
	Name   string      `json:"name"`
	Start  time.Time   `json:"start_date"`
	End    time.Time   `json:"end_date"`
	Peaks  []time.Time `json:"peak_dates"`
	ZHR    int         `json:"zhr,omitempty"`
	Parent string      `json:"parent,omitempty"`

	// AtPeak is set when the query date is one of the peak dates.
	AtPeak bool `json:"at_peak"`
}

// Calendar is a read-only set of showers. It is safe for concurrent use.
type Calendar struct {
	showers []Shower
}

type calendarFile struct {
	Showers []Shower `yaml:"showers"`
}

// Parse decodes a YAML shower calendar. Unknown fields are rejected.
func Parse(data []byte) (*Calendar, error) {
	var file calendarFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse shower calendar: %w", err)
	}
	if len(file.Showers) == 0 {
		return nil, errors.New("failed to parse shower calendar: no showers defined")
	}
	for _, s := range file.Showers {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("invalid shower calendar: %w", err)
		}
	}
	return &Calendar{showers: file.Showers}, nil
}

// Load reads a shower calendar file.
func Load(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shower calendar: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in calendar of the nine major annual showers.
func Default() (*Calendar, error) {
	return Parse(defaultShowers)
}

// Open loads path, or the built-in calendar when path is empty.
func Open(path string) (*Calendar, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Showers returns the calendar entries in file order.
func (c *Calendar) Showers() []Shower {
	out := make([]Shower, len(c.showers))
	copy(out, c.showers)
	return out
}

// Active returns the showers whose activity period includes the calendar
// date of date, in calendar order. The result is never nil.
func (c *Calendar) Active(date time.Time) []ActiveShower {
	md := MonthDayOf(date)
	year := date.Year()

	out := []ActiveShower{}
	for _, s := range c.showers {
		if !s.Contains(md) {
			continue
		}
		out = append(out, resolve(s, md, year))
	}
	return out
}

// resolve pins the shower's dates to the occurrence that contains md.
func resolve(s Shower, md MonthDay, year int) ActiveShower {
	startYear, endYear := year, year
	if s.wraps() {
		if md.Before(s.Start) {
			startYear--
		} else {
			endYear++
		}
	}

	a := ActiveShower{
		Name:   s.Name,
		Start:  s.Start.In(startYear),
		End:    s.End.In(endYear),
		Peaks:  make([]time.Time, 0, len(s.Peaks)),
		ZHR:    s.ZHR,
		Parent: s.Parent,
	}
	for _, p := range s.Peaks {
		py := startYear
		if p.Before(s.Start) {
			py = endYear
		}
		a.Peaks = append(a.Peaks, p.In(py))
		if p == md {
			a.AtPeak = true
		}
	}
	return a
}
