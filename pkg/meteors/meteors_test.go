package meteors

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func names(active []ActiveShower) []string {
	out := make([]string, len(active))
	for i, a := range active {
		out[i] = a.Name
	}
	return out
}

func contains(list []string, name string) bool {
	for _, n := range list {
		if n == name {
			return true
		}
	}
	return false
}

func TestDefaultCalendar(t *testing.T) {
	cal, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	want := []string{
		"Quadrantids", "Lyrids", "Eta Aquariids", "Delta Aquariids",
		"Perseids", "Orionids", "Leonids", "Geminids", "Ursids",
	}
	got := cal.Showers()
	if len(got) != len(want) {
		t.Fatalf("got %d showers, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Name != want[i] {
			t.Errorf("shower %d = %q, want %q", i, s.Name, want[i])
		}
	}
}

func TestActiveInclusiveBoundaries(t *testing.T) {
	cal, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	tests := []struct {
		name   string
		date   time.Time
		shower string
		want   bool
	}{
		{"Perseids start", date(2024, 7, 17), "Perseids", true},
		{"day before Perseids", date(2024, 7, 16), "Perseids", false},
		{"Perseids end", date(2024, 8, 24), "Perseids", true},
		{"day after Perseids", date(2024, 8, 25), "Perseids", false},
		{"Quadrantids start", date(2025, 1, 1), "Quadrantids", true},
		{"Quadrantids end", date(2025, 1, 5), "Quadrantids", true},
		{"day after Quadrantids", date(2025, 1, 6), "Quadrantids", false},
		{"Ursids start shared with Geminids end", date(2024, 12, 17), "Ursids", true},
		{"Geminids end", date(2024, 12, 17), "Geminids", true},
		{"day after Ursids", date(2024, 12, 27), "Ursids", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := contains(names(cal.Active(tt.date)), tt.shower)
			if got != tt.want {
				t.Errorf("Active(%s) includes %s = %v, want %v", tt.date.Format(time.DateOnly), tt.shower, got, tt.want)
			}
		})
	}
}

func TestActivePerseidsPeak(t *testing.T) {
	cal, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	active := cal.Active(date(2024, 8, 12))
	got := names(active)
	if !contains(got, "Perseids") || !contains(got, "Delta Aquariids") {
		t.Fatalf("Active(2024-08-12) = %v, want Perseids and Delta Aquariids", got)
	}

	for _, a := range active {
		if a.Name != "Perseids" {
			continue
		}
		if !a.AtPeak {
			t.Error("Perseids should be at peak on 12 August")
		}
		if !a.Start.Equal(time.Date(2024, 7, 17, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("Start = %v", a.Start)
		}
		if len(a.Peaks) != 2 || a.Peaks[1].Day() != 13 || a.Peaks[1].Year() != 2024 {
			t.Errorf("Peaks = %v", a.Peaks)
		}
	}
}

func TestActiveNeverNil(t *testing.T) {
	cal, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	got := cal.Active(date(2024, 3, 1))
	if got == nil || len(got) != 0 {
		t.Errorf("Active(2024-03-01) = %v, want empty", got)
	}
}

func TestYearWrappingShower(t *testing.T) {
	cal, err := Parse([]byte(`
showers:
  - name: Winter
    start: "12-28"
    end: "01-04"
    peaks: ["12-31", "01-02"]
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		date      time.Time
		active    bool
		startYear int
		endYear   int
	}{
		{date(2024, 12, 28), true, 2024, 2025},
		{date(2025, 1, 4), true, 2024, 2025},
		{date(2024, 12, 27), false, 0, 0},
		{date(2025, 1, 5), false, 0, 0},
	}
	for _, tt := range tests {
		got := cal.Active(tt.date)
		if (len(got) == 1) != tt.active {
			t.Errorf("Active(%s) = %v, want active %v", tt.date.Format(time.DateOnly), names(got), tt.active)
			continue
		}
		if !tt.active {
			continue
		}
		a := got[0]
		if a.Start.Year() != tt.startYear || a.End.Year() != tt.endYear {
			t.Errorf("Active(%s) resolved to %v..%v", tt.date.Format(time.DateOnly), a.Start, a.End)
		}
		if a.Peaks[0].Year() != tt.startYear || a.Peaks[1].Year() != tt.endYear {
			t.Errorf("Active(%s) peaks = %v", tt.date.Format(time.DateOnly), a.Peaks)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"no showers", `showers: []`},
		{"bad date", "showers:\n  - name: X\n    start: \"13-01\"\n    end: \"01-02\"\n"},
		{"missing name", "showers:\n  - start: \"01-01\"\n    end: \"01-02\"\n"},
		{"peak outside range", "showers:\n  - name: X\n    start: \"03-01\"\n    end: \"03-05\"\n    peaks: [\"04-01\"]\n"},
		{"unknown field", "showers:\n  - name: X\n    start: \"03-01\"\n    end: \"03-05\"\n    colour: red\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse should fail")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(""); err != nil {
		t.Errorf("Open(\"\") failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "showers.yaml")
	data := "showers:\n  - name: Test\n    start: \"06-01\"\n    end: \"06-02\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cal, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", path, err)
	}
	if got := names(cal.Active(date(2024, 6, 2))); len(got) != 1 || got[0] != "Test" {
		t.Errorf("Active = %v", got)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Open of a missing file should fail")
	}
}

func TestMonthDay(t *testing.T) {
	md, err := ParseMonthDay("02-29")
	if err != nil {
		t.Fatalf("ParseMonthDay failed: %v", err)
	}
	if md.String() != "02-29" {
		t.Errorf("String() = %q", md.String())
	}
	if !(MonthDay{Month: time.January, Day: 31}).Before(MonthDay{Month: time.February, Day: 1}) {
		t.Error("01-31 should be before 02-01")
	}
	if got := MonthDayOf(time.Date(2024, 8, 12, 23, 0, 0, 0, time.FixedZone("X", -5*3600))); got.Day != 12 {
		t.Errorf("MonthDayOf uses the time's own location, got %v", got)
	}
}
