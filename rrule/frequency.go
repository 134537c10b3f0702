package rrule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Frequency is the FREQ rule part. Values are ordered from coarsest to finest.
type Frequency int

const (
	Yearly Frequency = iota
	Monthly
	Weekly
	Daily
	Hourly
	Minutely
	Secondly
)

var frequencyNames = [...]string{
	Yearly:   "YEARLY",
	Monthly:  "MONTHLY",
	Weekly:   "WEEKLY",
	Daily:    "DAILY",
	Hourly:   "HOURLY",
	Minutely: "MINUTELY",
	Secondly: "SECONDLY",
}

func (f Frequency) String() string {
	if f < Yearly || f > Secondly {
		return "Frequency(" + strconv.Itoa(int(f)) + ")"
	}
	return frequencyNames[f]
}

// ParseFrequency converts a FREQ value such as "MONTHLY" into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range frequencyNames {
		if name == s {
			return Frequency(i), nil
		}
	}
	return 0, fmt.Errorf("unknown frequency %q", s)
}

// subDaily reports whether the frequency is finer than a day.
func (f Frequency) subDaily() bool {
	return f >= Hourly
}

// seconds is the length of one sub-daily frequency unit.
func (f Frequency) seconds() int {
	switch f {
	case Hourly:
		return 3600
	case Minutely:
		return 60
	default:
		return 1
	}
}

// Weekday is one BYDAY entry: a day of the week with an optional ordinal.
// N == 0 means every such weekday in the period; N > 0 counts from the start
// of the month (or year) and N < 0 from its end.
type Weekday struct {
	Day time.Weekday
	N   int
}

// Plain weekdays, usable directly in RawRule.ByDay.
var (
	MO = Weekday{Day: time.Monday}
	TU = Weekday{Day: time.Tuesday}
	WE = Weekday{Day: time.Wednesday}
	TH = Weekday{Day: time.Thursday}
	FR = Weekday{Day: time.Friday}
	SA = Weekday{Day: time.Saturday}
	SU = Weekday{Day: time.Sunday}
)

var weekdayCodes = [...]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Nth returns the weekday restricted to the n-th occurrence in its period.
func (w Weekday) Nth(n int) Weekday {
	return Weekday{Day: w.Day, N: n}
}

func (w Weekday) String() string {
	code := WeekdayCode(w.Day)
	if w.N == 0 {
		return code
	}
	return strconv.Itoa(w.N) + code
}

// WeekdayCode returns the two-letter iCalendar code for a weekday.
func WeekdayCode(d time.Weekday) string {
	if d < time.Sunday || d > time.Saturday {
		return "??"
	}
	return weekdayCodes[d]
}

// ParseWeekdayCode converts a two-letter code ("MO", "tu") into a time.Weekday.
func ParseWeekdayCode(s string) (time.Weekday, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, code := range weekdayCodes {
		if code == s {
			return time.Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekday parses a BYDAY entry such as "FR", "1MO" or "-2TH".
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Weekday{}, fmt.Errorf("invalid weekday %q", s)
	}
	day, err := ParseWeekdayCode(s[len(s)-2:])
	if err != nil {
		return Weekday{}, err
	}
	w := Weekday{Day: day}
	if prefix := s[:len(s)-2]; prefix != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(prefix, "+"))
		if err != nil || n == 0 {
			return Weekday{}, fmt.Errorf("invalid weekday ordinal in %q", s)
		}
		w.N = n
	}
	return w, nil
}
