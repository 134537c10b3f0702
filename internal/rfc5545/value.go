// Package rfc5545 reads and writes the textual RRULE, DATE and DATE-TIME
// value forms used by iCalendar recurrence properties.
package rfc5545

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/cyp0633/librecur/rrule"
)

// Value types named by the VALUE property parameter.
const (
	ValueDate     = "DATE"
	ValueDateTime = "DATE-TIME"
	ValuePeriod   = "PERIOD"
)

const (
	dateLayout        = "20060102"
	dateTimeLayout    = "20060102T150405"
	utcDateTimeLayout = "20060102T150405Z"
)

// ParseRule parses an RRULE or EXRULE value such as
// "FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-2". A leading "RRULE:" or
// "EXRULE:" is accepted. Keys are case-insensitive; a key given twice keeps
// its last value; unknown keys and X- extensions are ignored. A floating or
// date-only UNTIL is read in loc.
func ParseRule(value string, loc *time.Location) (rrule.RawRule, error) {
	if loc == nil {
		loc = time.UTC
	}
	var raw rrule.RawRule

	value = strings.TrimSpace(value)
	if name, rest, ok := strings.Cut(value, ":"); ok {
		switch strings.ToUpper(name) {
		case "RRULE", "EXRULE":
			value = rest
		default:
			return raw, invalid("unexpected property %q", name)
		}
	}
	if value == "" {
		return raw, invalid("empty rule")
	}

	hasFreq := false
	for _, part := range strings.Split(value, ";") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return raw, invalid("rule part %q is not KEY=VALUE", part)
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		var err error
		switch key {
		case "FREQ":
			raw.Freq, err = rrule.ParseFrequency(val)
			hasFreq = err == nil
		case "INTERVAL":
			raw.Interval, err = strconv.Atoi(val)
		case "COUNT":
			var n int
			if n, err = strconv.Atoi(val); err == nil {
				raw.Count = mo.Some(n)
			}
		case "UNTIL":
			var t time.Time
			if t, err = parseUntil(val, loc); err == nil {
				raw.Until = mo.Some(t)
			}
		case "WKST":
			var d time.Weekday
			if d, err = rrule.ParseWeekdayCode(val); err == nil {
				raw.Wkst = mo.Some(d)
			}
		case "BYMONTH":
			raw.ByMonth, err = parseInts(val)
		case "BYMONTHDAY":
			raw.ByMonthDay, err = parseInts(val)
		case "BYYEARDAY":
			raw.ByYearDay, err = parseInts(val)
		case "BYWEEKNO":
			raw.ByWeekNo, err = parseInts(val)
		case "BYDAY":
			raw.ByDay, err = parseWeekdays(val)
		case "BYHOUR":
			raw.ByHour, err = parseInts(val)
		case "BYMINUTE":
			raw.ByMinute, err = parseInts(val)
		case "BYSECOND":
			raw.BySecond, err = parseInts(val)
		case "BYSETPOS":
			raw.BySetPos, err = parseInts(val)
		default:
			// Vendor extensions and parts this engine has no use for.
			continue
		}
		if err != nil {
			return raw, &rrule.Error{Kind: rrule.ErrInvalidRule, Message: fmt.Sprintf("invalid %s value %q", key, val), Err: err}
		}
	}

	if !hasFreq {
		return raw, invalid("FREQ is required")
	}
	return raw, nil
}

// parseUntil reads an UNTIL value. A date-only bound means the last second
// of that day in loc.
func parseUntil(val string, loc *time.Location) (time.Time, error) {
	if len(val) == len(dateLayout) {
		d, err := time.Parse(dateLayout, val)
		if err != nil {
			return time.Time{}, err
		}
		return rrule.EndOfDay(d.Year(), d.Month(), d.Day(), loc), nil
	}
	return ParseDateTime(val, loc, ValueDateTime)
}

// ParseDateTime parses a DATE or DATE-TIME value. A trailing "Z" means UTC;
// otherwise the reading is taken in loc (UTC when nil). A DATE value is
// midnight of that day in loc. An empty valueType accepts either form.
func ParseDateTime(value string, loc *time.Location, valueType string) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)

	switch {
	case strings.EqualFold(valueType, ValueDate) || valueType == "" && len(value) == len(dateLayout):
		t, err := time.ParseInLocation(dateLayout, value, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DATE %q: %w", value, err)
		}
		return t, nil
	case strings.HasSuffix(value, "Z"):
		t, err := time.Parse(utcDateTimeLayout, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DATE-TIME %q: %w", value, err)
		}
		return t, nil
	default:
		t, err := time.ParseInLocation(dateTimeLayout, value, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DATE-TIME %q: %w", value, err)
		}
		return t, nil
	}
}

// ParseDateList parses the comma-separated value of an RDATE or EXDATE
// property. Empty entries are skipped. For PERIOD values only the start of
// each period is kept.
func ParseDateList(value string, loc *time.Location, valueType string) ([]time.Time, error) {
	period := strings.EqualFold(valueType, ValuePeriod)
	if period {
		valueType = ValueDateTime
	}

	var out []time.Time
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		if period {
			item, _, _ = strings.Cut(item, "/")
		}
		t, err := ParseDateTime(item, loc, valueType)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func parseInts(val string) ([]int, error) {
	var out []int
	for _, s := range strings.Split(val, ",") {
		n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "+"))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func parseWeekdays(val string) ([]rrule.Weekday, error) {
	var out []rrule.Weekday
	for _, s := range strings.Split(val, ",") {
		wd, err := rrule.ParseWeekday(s)
		if err != nil {
			return nil, err
		}
		out = append(out, wd)
	}
	return out, nil
}

func invalid(format string, args ...any) error {
	return &rrule.Error{Kind: rrule.ErrInvalidRule, Message: fmt.Sprintf(format, args...)}
}
