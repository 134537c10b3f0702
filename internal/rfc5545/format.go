package rfc5545

import (
	"strconv"
	"strings"
	"time"

	"github.com/cyp0633/librecur/rrule"
)

// FormatRule writes a rule back as an RRULE value. Parts appear in a fixed
// order and defaults (INTERVAL=1, WKST=MO) are left out, so equal rules
// format identically.
func FormatRule(r rrule.Rule) string {
	var b strings.Builder
	b.WriteString("FREQ=")
	b.WriteString(r.Freq.String())

	if r.Interval > 1 {
		b.WriteString(";INTERVAL=")
		b.WriteString(strconv.Itoa(r.Interval))
	}
	if r.Wkst != time.Monday {
		b.WriteString(";WKST=")
		b.WriteString(rrule.WeekdayCode(r.Wkst))
	}
	if n, ok := r.End.Count(); ok {
		b.WriteString(";COUNT=")
		b.WriteString(strconv.Itoa(n))
	}
	if t, ok := r.End.Until(); ok {
		b.WriteString(";UNTIL=")
		b.WriteString(FormatDateTimeUTC(t))
	}

	writeInts(&b, "BYMONTH", r.ByMonth)
	writeInts(&b, "BYWEEKNO", r.ByWeekNo)
	writeInts(&b, "BYYEARDAY", r.ByYearDay)
	writeInts(&b, "BYMONTHDAY", r.ByMonthDay)
	if len(r.ByDay) > 0 {
		days := make([]string, len(r.ByDay))
		for i, wd := range r.ByDay {
			days[i] = wd.String()
		}
		b.WriteString(";BYDAY=")
		b.WriteString(strings.Join(days, ","))
	}
	writeInts(&b, "BYHOUR", r.ByHour)
	writeInts(&b, "BYMINUTE", r.ByMinute)
	writeInts(&b, "BYSECOND", r.BySecond)
	writeInts(&b, "BYSETPOS", r.BySetPos)
	return b.String()
}

// FormatDateTimeUTC writes t as a UTC DATE-TIME value.
func FormatDateTimeUTC(t time.Time) string {
	return t.UTC().Format(utcDateTimeLayout)
}

// FormatDateTimeProperty writes a DATE-TIME content line such as
// "DTSTART;TZID=Europe/Berlin:20240301T100000". UTC values use the Z form.
func FormatDateTimeProperty(name string, t time.Time) string {
	if t.Location() == time.UTC {
		return name + ":" + FormatDateTimeUTC(t)
	}
	return name + ";TZID=" + t.Location().String() + ":" + t.Format(dateTimeLayout)
}

func writeInts(b *strings.Builder, key string, values []int) {
	if len(values) == 0 {
		return
	}
	b.WriteByte(';')
	b.WriteString(key)
	b.WriteByte('=')
	for i, v := range values {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
}
