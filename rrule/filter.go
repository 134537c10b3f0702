package rrule

import (
	"slices"
	"time"
)

// dayFilter keeps or drops one candidate date of a period.
type dayFilter func(date time.Time) bool

// pipeline is a rule compiled into independent stages: day filters applied
// in order (month, week number, year day, month day, weekday), then time
// expansion, then set-position selection.
type pipeline struct {
	rule    Rule
	filters []dayFilter
	// times holds the seconds-of-day expansion for Daily and coarser rules.
	times []int
	// naiveAnchor is the anchor's wall clock, used to align sub-daily steps.
	naiveAnchor time.Time
}

func newPipeline(r Rule) *pipeline {
	p := &pipeline{rule: r, naiveAnchor: naiveOf(r.Anchor)}

	if len(r.ByMonth) > 0 {
		p.filters = append(p.filters, byMonthFilter(r.ByMonth))
	}
	if len(r.ByWeekNo) > 0 {
		p.filters = append(p.filters, byWeekNoFilter(r.ByWeekNo, r.Wkst))
	}
	if len(r.ByYearDay) > 0 {
		p.filters = append(p.filters, byYearDayFilter(r.ByYearDay))
	}
	if len(r.ByMonthDay) > 0 {
		p.filters = append(p.filters, byMonthDayFilter(r.ByMonthDay))
	}
	if len(r.ByDay) > 0 {
		p.filters = append(p.filters, byDayFilter(r.ByDay, r.Freq == Yearly && len(r.ByMonth) == 0))
	}

	if !r.Freq.subDaily() {
		for _, h := range r.ByHour {
			for _, m := range r.ByMinute {
				for _, s := range r.BySecond {
					if s < 60 {
						p.times = append(p.times, h*3600+m*60+s)
					}
				}
			}
		}
		slices.Sort(p.times)
	}
	return p
}

func byMonthFilter(months []int) dayFilter {
	return func(date time.Time) bool {
		return slices.Contains(months, int(date.Month()))
	}
}

func byWeekNoFilter(weeks []int, wkst time.Weekday) dayFilter {
	return func(date time.Time) bool {
		year, week := weekNumber(date, wkst)
		fromEnd := week - weeksInYear(year, wkst) - 1
		return slices.Contains(weeks, week) || slices.Contains(weeks, fromEnd)
	}
}

func byYearDayFilter(days []int) dayFilter {
	return func(date time.Time) bool {
		yd := date.YearDay()
		fromEnd := yd - yearLen(date.Year()) - 1
		return slices.Contains(days, yd) || slices.Contains(days, fromEnd)
	}
}

func byMonthDayFilter(days []int) dayFilter {
	return func(date time.Time) bool {
		d := date.Day()
		fromEnd := d - daysIn(date.Year(), date.Month()) - 1
		return slices.Contains(days, d) || slices.Contains(days, fromEnd)
	}
}

// byDayFilter matches plain weekdays anywhere, and ordinal weekdays by their
// position inside the date's month, or inside its year when yearScope is set.
func byDayFilter(days []Weekday, yearScope bool) dayFilter {
	var plain []time.Weekday
	var nth []Weekday
	for _, wd := range days {
		if wd.N == 0 {
			plain = append(plain, wd.Day)
		} else {
			nth = append(nth, wd)
		}
	}

	return func(date time.Time) bool {
		wd := date.Weekday()
		if slices.Contains(plain, wd) {
			return true
		}
		if len(nth) == 0 {
			return false
		}

		var index, length int
		if yearScope {
			index, length = date.YearDay()-1, yearLen(date.Year())
		} else {
			index, length = date.Day()-1, daysIn(date.Year(), date.Month())
		}
		fromStart := index/7 + 1
		fromEnd := -((length-1-index)/7 + 1)
		for _, n := range nth {
			if n.Day == wd && (n.N == fromStart || n.N == fromEnd) {
				return true
			}
		}
		return false
	}
}

func (p *pipeline) keep(date time.Time) bool {
	for _, f := range p.filters {
		if !f(date) {
			return false
		}
	}
	return true
}

// periodDays lists the dates of the period that begins at start.
func (p *pipeline) periodDays(start time.Time) []time.Time {
	var n int
	switch p.rule.Freq {
	case Yearly:
		n = yearLen(start.Year())
	case Monthly:
		n = daysIn(start.Year(), start.Month())
	case Weekly:
		// Runs up to, not including, the next week start. The first period
		// begins at the anchor and may be shorter than seven days.
		n = 7 - weekdayIndex(start.Weekday(), p.rule.Wkst)
	default:
		n = 1
	}

	days := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i)
		if p.keep(date) {
			days = append(days, date)
		}
	}
	return days
}

// timesOf returns the seconds-of-day at which instants fall on date.
func (p *pipeline) timesOf(date time.Time) []int {
	if !p.rule.Freq.subDaily() {
		return p.times
	}

	r := p.rule
	hours := r.ByHour
	if len(hours) == 0 {
		hours = allHours
	}
	minutes := r.ByMinute
	if len(minutes) == 0 {
		minutes = allMinutes
	}
	seconds := r.BySecond
	if len(seconds) == 0 {
		seconds = allMinutes
	}

	a := p.naiveAnchor
	dayDiff := int64(daysBetween(dateOnly(a), date))
	step := int64(r.Interval)

	var out []int
	for _, h := range hours {
		units := dayDiff*24 + int64(h-a.Hour())
		if r.Freq == Hourly && mod(units, step) != 0 {
			continue
		}
		for _, m := range minutes {
			units := (dayDiff*24+int64(h))*60 + int64(m) - int64(a.Hour()*60+a.Minute())
			if r.Freq == Minutely && mod(units, step) != 0 {
				continue
			}
			for _, s := range seconds {
				if s >= 60 {
					// BYSECOND=60 never names a real wall-clock reading.
					continue
				}
				if r.Freq == Secondly {
					units := ((dayDiff*24+int64(h))*60+int64(m))*60 + int64(s) -
						int64(a.Hour()*3600+a.Minute()*60+a.Second())
					if mod(units, step) != 0 {
						continue
					}
				}
				out = append(out, h*3600+m*60+s)
			}
		}
	}
	return out
}

// candidates expands a period into its sorted wall-clock candidates and
// applies set-position selection. Sub-daily rules expand a whole day at a
// time but select positions within each hour, minute or second.
func (p *pipeline) candidates(start time.Time) []time.Time {
	r := p.rule
	perInterval := len(r.BySetPos) > 0 && r.Freq.subDaily()

	var out []time.Time
	for _, date := range p.periodDays(start) {
		secs := p.timesOf(date)
		if perInterval {
			for _, group := range groupByWidth(secs, r.Freq.seconds()) {
				out = append(out, selectPositions(atSeconds(date, group), r.BySetPos)...)
			}
			continue
		}
		out = append(out, atSeconds(date, secs)...)
	}
	if len(r.BySetPos) == 0 || perInterval {
		return out
	}
	return selectPositions(out, r.BySetPos)
}

func atSeconds(date time.Time, secs []int) []time.Time {
	out := make([]time.Time, len(secs))
	for i, sec := range secs {
		out[i] = date.Add(time.Duration(sec) * time.Second)
	}
	return out
}

// groupByWidth splits ascending seconds-of-day into runs that share the same
// width-second unit of the day.
func groupByWidth(secs []int, width int) [][]int {
	var groups [][]int
	for i, sec := range secs {
		if i == 0 || sec/width != secs[i-1]/width {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], sec)
	}
	return groups
}

// selectPositions picks the 1-based (or negative, from the end) positions
// of a sorted candidate list.
func selectPositions(sorted []time.Time, positions []int) []time.Time {
	var out []time.Time
	for _, pos := range positions {
		i := pos - 1
		if pos < 0 {
			i = len(sorted) + pos
		}
		if i < 0 || i >= len(sorted) {
			continue
		}
		out = append(out, sorted[i])
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

var (
	allHours   = fullRange(24)
	allMinutes = fullRange(60)
)

func fullRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
