package availability

import (
	"testing"
	"time"
)

func TestStartOfWeek(t *testing.T) {
	cases := map[string]struct {
		reference string
		want      string
	}{
		"monday maps to itself":            {reference: "2026-01-19", want: "2026-01-19"},
		"friday maps back to monday":       {reference: "2026-01-23", want: "2026-01-19"},
		"sunday belongs to previous week":  {reference: "2026-01-25", want: "2026-01-19"},
		"week spanning a month boundary":   {reference: "2026-02-01", want: "2026-01-26"},
		"week spanning a year boundary":    {reference: "2026-01-03", want: "2025-12-29"},
		"first monday of following window": {reference: "2026-01-26", want: "2026-01-26"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			ref, err := ParseDate(tc.reference)
			if err != nil {
				t.Fatalf("parse reference: %v", err)
			}
			got := StartOfWeek(ref)
			if FormatDate(got) != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, FormatDate(got))
			}
			if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
				t.Fatalf("expected midnight normalization, got %v", got)
			}
			if got.Weekday() != time.Monday {
				t.Fatalf("expected a Monday, got %v", got.Weekday())
			}
		})
	}
}

func TestAddDays(t *testing.T) {
	start, err := ParseDate("2026-01-30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if got := FormatDate(AddDays(start, 2)); got != "2026-02-01" {
		t.Fatalf("expected month carry, got %s", got)
	}
	if got := FormatDate(AddDays(start, -30)); got != "2025-12-31" {
		t.Fatalf("expected year carry backwards, got %s", got)
	}
	if got := FormatDate(AddDays(start, 0)); got != "2026-01-30" {
		t.Fatalf("expected identity, got %s", got)
	}
}

func TestWeekdayOf(t *testing.T) {
	friday, _ := ParseDate("2026-01-23")
	if got := WeekdayOf(friday); got != Friday {
		t.Fatalf("expected FRIDAY, got %s", got)
	}
	sunday, _ := ParseDate("2026-01-25")
	if got := WeekdayOf(sunday); got != Sunday {
		t.Fatalf("expected SUNDAY, got %s", got)
	}
}

func TestFormatLongDate(t *testing.T) {
	t.Run("renders a readable label for the same calendar date", func(t *testing.T) {
		label, err := FormatLongDate("2026-01-23")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != "Friday 23 January 2026" {
			t.Fatalf("unexpected label %q", label)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		if _, err := FormatLongDate("23/01/2026"); err == nil {
			t.Fatal("expected an error for a non-ISO date")
		}
	})
}

func TestParseClock(t *testing.T) {
	if _, err := ParseClock("19:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseClock("7pm"); err == nil {
		t.Fatal("expected an error for a malformed time")
	}
}
