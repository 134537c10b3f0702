package rrule

import (
	"cmp"
	"slices"
	"time"
)

// Normalize clears the by-fields that do not apply to the rule's frequency,
// fills in the implicit defaults derived from the anchor, and sorts every
// list. Normalize(Normalize(r)) equals Normalize(r).
func Normalize(r Rule) Rule {
	if r.Interval <= 0 {
		r.Interval = 1
	}
	r.Anchor = r.Anchor.Truncate(time.Second)

	switch r.Freq {
	case Weekly:
		r.ByMonthDay = nil
		r.ByYearDay = nil
	case Monthly, Daily:
		r.ByYearDay = nil
	}
	if r.Freq != Yearly {
		r.ByWeekNo = nil
	}

	// Ordinal weekdays only mean something inside a month or a year, and
	// not when the year is already cut into numbered weeks.
	keepOrdinals := r.Freq == Monthly || (r.Freq == Yearly && len(r.ByWeekNo) == 0)
	if !keepOrdinals && len(r.ByDay) > 0 {
		days := make([]Weekday, len(r.ByDay))
		for i, wd := range r.ByDay {
			days[i] = Weekday{Day: wd.Day}
		}
		r.ByDay = days
	}

	r.ByMonth = sortedSet(r.ByMonth)
	r.ByMonthDay = sortedSet(r.ByMonthDay)
	r.ByYearDay = sortedSet(r.ByYearDay)
	r.ByWeekNo = sortedSet(r.ByWeekNo)
	r.ByHour = sortedSet(r.ByHour)
	r.ByMinute = sortedSet(r.ByMinute)
	r.BySecond = sortedSet(r.BySecond)
	r.BySetPos = sortedSet(r.BySetPos)
	r.ByDay = sortedWeekdays(r.ByDay)

	a := r.Anchor
	if len(r.ByWeekNo) == 0 && len(r.ByYearDay) == 0 && len(r.ByMonthDay) == 0 && len(r.ByDay) == 0 {
		switch r.Freq {
		case Yearly:
			if len(r.ByMonth) == 0 {
				r.ByMonth = []int{int(a.Month())}
			}
			r.ByMonthDay = []int{a.Day()}
		case Monthly:
			r.ByMonthDay = []int{a.Day()}
		case Weekly:
			r.ByDay = []Weekday{{Day: a.Weekday()}}
		}
	}
	if len(r.ByHour) == 0 && r.Freq < Hourly {
		r.ByHour = []int{a.Hour()}
	}
	if len(r.ByMinute) == 0 && r.Freq < Minutely {
		r.ByMinute = []int{a.Minute()}
	}
	if len(r.BySecond) == 0 && r.Freq < Secondly {
		r.BySecond = []int{a.Second()}
	}
	return r
}

func sortedSet(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

func sortedWeekdays(days []Weekday) []Weekday {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.SortFunc(out, func(a, b Weekday) int {
		if c := cmp.Compare(weekdayIndex(a.Day, time.Monday), weekdayIndex(b.Day, time.Monday)); c != 0 {
			return c
		}
		return cmp.Compare(a.N, b.N)
	})
	return slices.Compact(out)
}
