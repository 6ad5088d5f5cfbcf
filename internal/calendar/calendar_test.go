package calendar

import (
	"testing"
	"time"
)

func TestAdvanceZeroDurationIsIdentity(t *testing.T) {
	cal := New(DefaultConfig())
	start := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC)

	got := cal.Advance(start, 0)
	if !got.Equal(start) {
		t.Errorf("Advance(t, 0) = %v, want %v", got, start)
	}
}

func TestAdvanceNeverGoesBackwards(t *testing.T) {
	cal := New(DefaultConfig())
	start := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC)

	got := cal.Advance(start, 90)
	if got.Before(start.Add(90 * time.Minute)) {
		t.Errorf("Advance(t, 90) = %v, want >= %v", got, start.Add(90*time.Minute))
	}
}

func TestAdvanceAlwaysWorkingIsExact(t *testing.T) {
	cfg := Config{
		WeekdayShifts:         2,
		HoursPerWeekdayShift:  12,
		SaturdayShifts:        2,
		HoursPerSaturdayShift: 12,
		WorkingDays: map[time.Weekday]struct{}{
			time.Sunday: {}, time.Monday: {}, time.Tuesday: {}, time.Wednesday: {},
			time.Thursday: {}, time.Friday: {}, time.Saturday: {},
		},
		DayStartHour: 0,
		Efficiency:   1,
	}
	cal := New(cfg)
	start := time.Date(2026, 7, 30, 8, 0, 0, 0, time.UTC)

	got := cal.Advance(start, 120)
	want := start.Add(2 * time.Hour)
	if !got.Equal(want) {
		t.Errorf("Advance under 24/7 config = %v, want %v", got, want)
	}
}

func TestAdvanceSkipsNonWorkingDay(t *testing.T) {
	cfg := DefaultConfig() // working Mon-Sat, Sunday off
	cal := New(cfg)

	// Saturday 7:00 + 25h of duration (a full Saturday is 24h with 2
	// shifts of 12h, leaving 1h over) should roll into Monday, since
	// Sunday is not a working day.
	saturday := time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC) // a Saturday
	if saturday.Weekday() != time.Saturday {
		t.Fatalf("test fixture date is not a Saturday: %v", saturday.Weekday())
	}

	got := cal.Advance(saturday, 24*60+60)
	if got.Weekday() == time.Sunday {
		t.Errorf("Advance landed on a non-working Sunday: %v", got)
	}
}

func TestAdvanceDayStartNoCarryOver(t *testing.T) {
	cfg := DefaultConfig()
	cal := New(cfg)

	monday := time.Date(2026, 8, 3, 7, 0, 0, 0, time.UTC)
	if monday.Weekday() != time.Monday {
		t.Fatalf("test fixture date is not a Monday: %v", monday.Weekday())
	}

	// One full working day is 24h (2 shifts * 12h). Consuming exactly
	// that should land at the next working day's start hour, not
	// carry any leftover into a partial window.
	got := cal.Advance(monday, 24*60)
	wantDay := monday.AddDate(0, 0, 1)
	want := time.Date(wantDay.Year(), wantDay.Month(), wantDay.Day(), cfg.DayStartHour, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Advance(monday, full day) = %v, want %v", got, want)
	}
}
