package rrule

import (
	"slices"
	"time"

	"github.com/samber/mo"
)

// RawRule holds the fields of one recurrence rule as delivered by a parser,
// before validation. Unset optional parts are mo.None.
type RawRule struct {
	Freq     Frequency
	Interval int // 0 means 1
	Wkst     mo.Option[time.Weekday]
	Count    mo.Option[int]
	Until    mo.Option[time.Time]

	ByMonth    []int
	ByMonthDay []int
	ByYearDay  []int
	ByWeekNo   []int
	ByDay      []Weekday
	ByHour     []int
	ByMinute   []int
	BySecond   []int
	BySetPos   []int
}

type terminationKind int

const (
	unbounded terminationKind = iota
	byCount
	byUntil
)

// Termination is how a rule ends: after a number of instants, after an
// instant, or never.
type Termination struct {
	kind  terminationKind
	count int
	until time.Time
}

// Count ends a rule after n instants.
func Count(n int) Termination {
	return Termination{kind: byCount, count: n}
}

// Until ends a rule after the last instant not later than t.
func Until(t time.Time) Termination {
	return Termination{kind: byUntil, until: t.Truncate(time.Second)}
}

// Unbounded never ends a rule; consumers must limit the sequence themselves.
func Unbounded() Termination {
	return Termination{}
}

// Count returns the instant budget, if the rule is count-bound.
func (t Termination) Count() (int, bool) {
	return t.count, t.kind == byCount
}

// Until returns the last allowed instant, if the rule is until-bound.
func (t Termination) Until() (time.Time, bool) {
	return t.until, t.kind == byUntil
}

// IsUnbounded reports whether the rule never ends on its own.
func (t Termination) IsUnbounded() bool {
	return t.kind == unbounded
}

// Equal compares terminations by mode and absolute bound.
func (t Termination) Equal(o Termination) bool {
	return t.kind == o.kind && t.count == o.count && t.until.Equal(o.until)
}

// Rule is a validated and normalized recurrence rule bound to its anchor.
// A Rule is a value; its slices must not be modified once it is built.
type Rule struct {
	Freq     Frequency
	Interval int
	Wkst     time.Weekday
	End      Termination
	Anchor   time.Time

	ByMonth    []int
	ByMonthDay []int
	ByYearDay  []int
	ByWeekNo   []int
	ByDay      []Weekday
	ByHour     []int
	ByMinute   []int
	BySecond   []int
	BySetPos   []int
}

// NewRule validates raw against the anchor instant and returns the
// normalized rule. The error, if any, is of kind ErrInvalidRule.
func NewRule(raw RawRule, anchor time.Time) (Rule, error) {
	if err := validate(raw, anchor); err != nil {
		return Rule{}, err
	}

	r := Rule{
		Freq:       raw.Freq,
		Interval:   raw.Interval,
		Wkst:       raw.Wkst.OrElse(time.Monday),
		End:        Unbounded(),
		Anchor:     anchor.Truncate(time.Second),
		ByMonth:    slices.Clone(raw.ByMonth),
		ByMonthDay: slices.Clone(raw.ByMonthDay),
		ByYearDay:  slices.Clone(raw.ByYearDay),
		ByWeekNo:   slices.Clone(raw.ByWeekNo),
		ByDay:      slices.Clone(raw.ByDay),
		ByHour:     slices.Clone(raw.ByHour),
		ByMinute:   slices.Clone(raw.ByMinute),
		BySecond:   slices.Clone(raw.BySecond),
		BySetPos:   slices.Clone(raw.BySetPos),
	}
	if r.Interval == 0 {
		r.Interval = 1
	}
	if n, ok := raw.Count.Get(); ok {
		r.End = Count(n)
	}
	if u, ok := raw.Until.Get(); ok {
		r.End = Until(u)
	}

	return Normalize(r), nil
}

// MustRule is like NewRule but panics on error. Intended for tests and
// package-level fixtures.
func MustRule(raw RawRule, anchor time.Time) Rule {
	r, err := NewRule(raw, anchor)
	if err != nil {
		panic(err)
	}
	return r
}

func validate(raw RawRule, anchor time.Time) error {
	if anchor.IsZero() {
		return invalidRule("anchor instant is required")
	}
	if raw.Freq < Yearly || raw.Freq > Secondly {
		return invalidRule("unknown frequency %d", int(raw.Freq))
	}
	if raw.Interval < 0 {
		return invalidRule("interval must be positive, got %d", raw.Interval)
	}
	if raw.Count.IsPresent() && raw.Until.IsPresent() {
		return invalidRule("COUNT and UNTIL are mutually exclusive")
	}
	if n, ok := raw.Count.Get(); ok && n <= 0 {
		return invalidRule("count must be positive, got %d", n)
	}
	if w, ok := raw.Wkst.Get(); ok && (w < time.Sunday || w > time.Saturday) {
		return invalidRule("invalid week start %d", int(w))
	}

	checks := []struct {
		name     string
		values   []int
		min, max int
		signed   bool
	}{
		{"BYMONTH", raw.ByMonth, 1, 12, false},
		{"BYMONTHDAY", raw.ByMonthDay, 1, 31, true},
		{"BYYEARDAY", raw.ByYearDay, 1, 366, true},
		{"BYWEEKNO", raw.ByWeekNo, 1, 53, true},
		{"BYHOUR", raw.ByHour, 0, 23, false},
		{"BYMINUTE", raw.ByMinute, 0, 59, false},
		{"BYSECOND", raw.BySecond, 0, 60, false},
		{"BYSETPOS", raw.BySetPos, 1, 366, true},
	}
	for _, c := range checks {
		for _, v := range c.values {
			abs := v
			if c.signed && v < 0 {
				abs = -v
			}
			if abs < c.min || abs > c.max {
				return invalidRule("%s value %d out of range", c.name, v)
			}
		}
	}

	for _, wd := range raw.ByDay {
		if wd.Day < time.Sunday || wd.Day > time.Saturday {
			return invalidRule("BYDAY weekday %d out of range", int(wd.Day))
		}
		if wd.N < -53 || wd.N > 53 {
			return invalidRule("BYDAY ordinal %d out of range", wd.N)
		}
	}
	return nil
}
