package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/cyp0633/librecur/internal/rfc5545"
	"github.com/cyp0633/librecur/rrule"
)

const (
	propExceptionRule = "EXRULE"
	propRecurrenceID  = "RECURRENCE-ID"
)

// ExtractRecurrenceInfoFromComponent extracts recurrence information from an
// iCal component. Values that fail to parse are skipped; use
// SetFromComponent to have them reported.
func ExtractRecurrenceInfoFromComponent(comp *ical.Component) RecurrenceInfo {
	info, _ := recurrenceInfo(comp, startLocation(comp))
	return info
}

// recurrenceInfo reads the recurrence properties of comp. Floating and
// date-only values are taken in loc. Every value that parses is kept; the
// failures are joined into the returned error.
func recurrenceInfo(comp *ical.Component, loc *time.Location) (RecurrenceInfo, error) {
	var (
		info RecurrenceInfo
		errs []error
	)

	info.RRULE = ruleValues(comp, ical.PropRecurrenceRule)
	info.EXRULE = ruleValues(comp, propExceptionRule)

	for _, prop := range comp.Props[ical.PropRecurrenceDates] {
		dates, err := propDates(prop, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("RDATE: %w", err))
			continue
		}
		info.RDATE = append(info.RDATE, dates...)
	}
	for _, prop := range comp.Props[ical.PropExceptionDates] {
		dates, err := propDates(prop, loc)
		if err != nil {
			errs = append(errs, fmt.Errorf("EXDATE: %w", err))
			continue
		}
		info.EXDATE = append(info.EXDATE, dates...)
	}

	if prop := comp.Props.Get(propRecurrenceID); prop != nil && prop.Value != "" {
		if recID, err := prop.DateTime(loc); err == nil {
			info.RecurrenceID = &recID
		} else {
			errs = append(errs, fmt.Errorf("RECURRENCE-ID: %w", err))
		}
	}

	return info, errors.Join(errs...)
}

func ruleValues(comp *ical.Component, name string) []string {
	var out []string
	for _, prop := range comp.Props[name] {
		if v := strings.TrimSpace(prop.Value); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// propDates parses an RDATE or EXDATE property, honoring its TZID and VALUE
// parameters.
func propDates(prop ical.Prop, loc *time.Location) ([]time.Time, error) {
	if tzid := prop.Params.Get("TZID"); tzid != "" {
		tz, err := time.LoadLocation(tzid)
		if err != nil {
			return nil, fmt.Errorf("unknown time zone %q: %w", tzid, err)
		}
		loc = tz
	}
	return rfc5545.ParseDateList(prop.Value, loc, prop.Params.Get("VALUE"))
}

// startLocation is the zone of the component's DTSTART, UTC when it has none.
func startLocation(comp *ical.Component) *time.Location {
	if start, err := comp.Props.DateTime(ical.PropDateTimeStart, nil); err == nil && !start.IsZero() {
		return start.Location()
	}
	return time.UTC
}

// ExtractBasicTimeInfoFromComponent extracts start and end times from an iCal component
func ExtractBasicTimeInfoFromComponent(comp *ical.Component) (start, end time.Time, hasTime bool) {
	return basicTimeInfo(comp, nil)
}

// basicTimeInfo resolves DTSTART and the end of the master instance. Floating
// values are read in loc (UTC when nil).
func basicTimeInfo(comp *ical.Component, loc *time.Location) (start, end time.Time, hasTime bool) {
	// Props.DateTime reports a missing property as the zero time.
	if dtstart, err := comp.Props.DateTime(ical.PropDateTimeStart, loc); err == nil && !dtstart.IsZero() {
		start = dtstart
		hasTime = true

		// End comes from DTEND, then DURATION, then the default for the value type.
		if dtend, err := comp.Props.DateTime(ical.PropDateTimeEnd, loc); err == nil && !dtend.IsZero() {
			end = dtend

			// An all-day event whose DTEND repeats the start date lasts the whole day.
			startYear, startMonth, startDay := start.Date()
			endYear, endMonth, endDay := end.Date()
			if isAllDayDate(start) && startYear == endYear && startMonth == endMonth && startDay == endDay {
				end = start.AddDate(0, 0, 1)
			}
		} else if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
			duration, err := durationProp.Duration()
			if err != nil {
				hasTime = false
				return
			}
			end = start.Add(duration)
		} else if isAllDayDate(start) {
			end = start.AddDate(0, 0, 1)
		} else {
			end = start
		}
	}

	// For VTODO, also check DUE property
	if comp.Name == ical.CompToDo {
		if due, err := comp.Props.DateTime(ical.PropDue, loc); err == nil && !due.IsZero() {
			if !hasTime {
				start = due
				end = due
				hasTime = true
			} else if due.After(end) {
				end = due
			}
		}
	}

	return start, end, hasTime
}

// BuildSet turns a master start and its recurrence information into a
// recurrence set. The start itself is an explicit inclusion instant, so an
// EXDATE can remove it and a coinciding RRULE occurrence is counted once.
// Rule text is read in the start's zone.
func BuildSet(start time.Time, info RecurrenceInfo) (*rrule.Set, error) {
	loc := start.Location()
	opts := []rrule.SetOption{
		rrule.WithRDates(start),
		rrule.WithRDates(info.RDATE...),
		rrule.WithExDates(info.EXDATE...),
	}

	for _, value := range info.RRULE {
		raw, err := rfc5545.ParseRule(value, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RRULE %q: %w", value, err)
		}
		opts = append(opts, rrule.WithRule(raw))
	}
	for _, value := range info.EXRULE {
		raw, err := rfc5545.ParseRule(value, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse EXRULE %q: %w", value, err)
		}
		opts = append(opts, rrule.WithExRule(raw))
	}

	return rrule.NewSet(start, opts...)
}

// SetFromComponent builds the recurrence set of a VEVENT, VTODO or
// VJOURNAL. DTSTART, with its TZID, is the anchor. Any malformed recurrence
// property fails the call.
func SetFromComponent(comp *ical.Component) (*rrule.Set, error) {
	return setFromComponent(comp, nil)
}

func setFromComponent(comp *ical.Component, loc *time.Location) (*rrule.Set, error) {
	start, err := comp.Props.DateTime(ical.PropDateTimeStart, loc)
	if err != nil {
		return nil, fmt.Errorf("failed to read DTSTART: %w", err)
	}
	if start.IsZero() {
		return nil, errors.New("missing DTSTART")
	}
	info, err := recurrenceInfo(comp, start.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to read recurrence properties: %w", err)
	}
	return BuildSet(start, info)
}

// isAllDayDate checks if a time represents an all-day date (time part is midnight)
func isAllDayDate(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0
}

// SafeTimeDeref safely dereferences a time pointer, returning defaultTime if nil
func SafeTimeDeref(t *time.Time, defaultTime time.Time) time.Time {
	if t == nil {
		return defaultTime
	}
	return *t
}
