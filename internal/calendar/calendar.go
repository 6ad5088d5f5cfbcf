// Package calendar implements the working-calendar date calculator:
// a deterministic mapping of raw durations onto a shift calendar,
// skipping non-working periods.
package calendar

import "time"

// Config configures a working calendar.
type Config struct {
	WeekdayShifts        int          // shifts per working weekday (Mon-Fri)
	HoursPerWeekdayShift float64
	SaturdayShifts       int
	HoursPerSaturdayShift float64
	WorkingDays          map[time.Weekday]struct{} // default Mon-Sat
	DayStartHour         int                       // default 7
	Efficiency           float64                   // (0,1]; DefaultConfig uses 0.95, New substitutes 0.85 when unset
	SafetyBufferFraction float64                   // default 0.01
}

// DefaultConfig returns the documented defaults from the external
// configuration table (weekday_shifts=2, hours_per_weekday_shift=12,
// saturday_shifts=2, hours_per_saturday_shift=12, working_days={Mon..Sat},
// day_start_hour=7, efficiency=0.95, safety_buffer_fraction=0.01).
func DefaultConfig() Config {
	return Config{
		WeekdayShifts:         2,
		HoursPerWeekdayShift:  12,
		SaturdayShifts:        2,
		HoursPerSaturdayShift: 12,
		WorkingDays:           defaultWorkingDays(),
		DayStartHour:          7,
		Efficiency:            0.95,
		SafetyBufferFraction:  0.01,
	}
}

func defaultWorkingDays() map[time.Weekday]struct{} {
	return map[time.Weekday]struct{}{
		time.Monday:    {},
		time.Tuesday:   {},
		time.Wednesday: {},
		time.Thursday:  {},
		time.Friday:    {},
		time.Saturday:  {},
	}
}

// Calendar maps wall-clock durations onto working windows.
type Calendar struct {
	cfg            Config
	minutesPerDay  map[time.Weekday]float64
	alwaysWorking  bool
}

// New precomputes, for each weekday, the number of working minutes
// available (0 if not a working day).
func New(cfg Config) *Calendar {
	if cfg.WorkingDays == nil {
		cfg.WorkingDays = defaultWorkingDays()
	}
	if cfg.DayStartHour == 0 {
		cfg.DayStartHour = 7
	}
	if cfg.Efficiency <= 0 {
		cfg.Efficiency = 0.85
	}

	weekdayMinutes := cfg.HoursPerWeekdayShift * 60 * float64(cfg.WeekdayShifts)
	saturdayMinutes := cfg.HoursPerSaturdayShift * 60 * float64(cfg.SaturdayShifts)

	minutesPerDay := make(map[time.Weekday]float64, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if _, ok := cfg.WorkingDays[d]; !ok {
			minutesPerDay[d] = 0
			continue
		}
		if d == time.Saturday {
			minutesPerDay[d] = saturdayMinutes
		} else {
			minutesPerDay[d] = weekdayMinutes
		}
	}

	always := true
	for d := time.Sunday; d <= time.Saturday; d++ {
		if minutesPerDay[d] != 1440 {
			always = false
			break
		}
	}

	return &Calendar{cfg: cfg, minutesPerDay: minutesPerDay, alwaysWorking: always}
}

// Config returns the calendar's configuration.
func (c *Calendar) Config() Config {
	return c.cfg
}

// dayStart returns the start-of-working-day timestamp for the calendar
// day containing t (the day-start hour, regardless of when the previous
// day ended — carry-over between days is disallowed).
func (c *Calendar) dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), c.cfg.DayStartHour, 0, 0, 0, t.Location())
}

func (c *Calendar) nextWorkingDayStart(t time.Time) time.Time {
	next := c.dayStart(t.AddDate(0, 0, 1))
	for c.minutesPerDay[next.Weekday()] == 0 {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Advance returns the timestamp reached by consuming duration minutes
// across working windows only, starting from start.
func (c *Calendar) Advance(start time.Time, durationMinutes float64) time.Time {
	if durationMinutes <= 0 {
		return start
	}

	// 24/7 fast path.
	if c.alwaysWorking {
		return start.Add(time.Duration(durationMinutes * float64(time.Minute)))
	}

	current := start
	remaining := durationMinutes

	for remaining > 0 {
		workingToday := c.minutesPerDay[current.Weekday()]
		if workingToday == 0 {
			current = c.dayStart(current.AddDate(0, 0, 1))
			for c.minutesPerDay[current.Weekday()] == 0 {
				current = current.AddDate(0, 0, 1)
			}
			continue
		}

		windowStart := c.dayStart(current)
		windowEnd := windowStart.Add(time.Duration(workingToday * float64(time.Minute)))

		if current.Before(windowStart) {
			current = windowStart
		}

		if !current.Before(windowEnd) {
			current = c.nextWorkingDayStart(current)
			continue
		}

		available := windowEnd.Sub(current).Minutes()
		if remaining <= available {
			current = current.Add(time.Duration(remaining * float64(time.Minute)))
			remaining = 0
		} else {
			remaining -= available
			current = c.nextWorkingDayStart(current)
		}
	}

	return current
}
