package rrule

import "time"

// MaxYear is the last calendar year the generator expands into.
const MaxYear = 9999

const secondsPerDay = 24 * 60 * 60

// Wall-clock arithmetic is done on "naive" times: calendar fields stored in
// a time.Time pinned to UTC, so that adding days never crosses a clock
// transition. Zone resolution happens once per candidate in resolveLocal.

func naiveDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func naiveOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	return naiveDate(t.Year(), t.Month(), t.Day())
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func yearLen(year int) int {
	if isLeap(year) {
		return 366
	}
	return 365
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// daysBetween returns the number of whole days from a to b (both naive dates).
func daysBetween(a, b time.Time) int {
	return int(b.Unix()-a.Unix()) / secondsPerDay
}

// weekdayIndex returns d's position in a week that starts on wkst (0..6).
func weekdayIndex(d, wkst time.Weekday) int {
	return (int(d) - int(wkst) + 7) % 7
}

// weekOneStart returns the offset in days from 1 January of the first day of
// week number 1, which is the first week starting on wkst that has at least
// four days in the year. The offset is negative when week 1 begins in
// December of the previous year.
func weekOneStart(year int, wkst time.Weekday) int {
	jan1 := naiveDate(year, time.January, 1).Weekday()
	first := (int(wkst) - int(jan1) + 7) % 7
	if first >= 4 {
		return first - 7
	}
	return first
}

// weeksInYear returns the number of numbered weeks in year under wkst.
func weeksInYear(year int, wkst time.Weekday) int {
	return (yearLen(year) - weekOneStart(year, wkst) + weekOneStart(year+1, wkst)) / 7
}

// weekNumber returns the week-numbering year and week number of a date.
func weekNumber(date time.Time, wkst time.Weekday) (int, int) {
	year := date.Year()
	yd := date.YearDay() - 1
	start := weekOneStart(year, wkst)
	if yd < start {
		return year - 1, weeksInYear(year-1, wkst)
	}
	week := (yd-start)/7 + 1
	if week > weeksInYear(year, wkst) {
		return year + 1, 1
	}
	return year, week
}

// resolveLocal maps a naive wall-clock reading onto an instant in loc.
// A reading skipped by a forward clock change has no instant and reports
// false. A reading repeated by a backward change resolves to the earlier
// of its two instants.
func resolveLocal(wall time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil || loc == time.UTC {
		return wall, true
	}

	wallUnix := wall.Unix()
	var best int64
	found := false
	for _, probe := range [...]int64{wallUnix - secondsPerDay, wallUnix, wallUnix + secondsPerDay} {
		_, offset := time.Unix(probe, 0).In(loc).Zone()
		candidate := wallUnix - int64(offset)
		_, actual := time.Unix(candidate, 0).In(loc).Zone()
		if actual != offset {
			continue
		}
		if !found || candidate < best {
			best = candidate
			found = true
		}
	}
	if !found {
		return time.Time{}, false
	}
	return time.Unix(best, 0).In(loc), true
}

// EndOfDay returns the last second of the given calendar date in loc. A
// date-only UNTIL means this instant, not midnight UTC.
func EndOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	wall := time.Date(year, month, day, 23, 59, 59, 0, time.UTC)
	for i := 0; i < 4; i++ {
		if t, ok := resolveLocal(wall, loc); ok {
			return t
		}
		// The last second of the day fell into a gap; step back to the
		// latest reading that exists.
		wall = wall.Add(-time.Hour)
	}
	return time.Date(year, month, day, 23, 59, 59, 0, loc)
}
