package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/cyp0633/librecur/rrule"
)

// ParseRuleSet parses a recurrence set written as content lines, one
// property per line:
//
//	DTSTART;TZID=America/New_York:19970902T090000
//	RRULE:FREQ=WEEKLY;COUNT=10;BYDAY=TU,TH
//	EXDATE;TZID=America/New_York:19970909T090000
//
// A line without a property name is read as an RRULE. Floating DTSTART
// values are taken in loc (UTC when nil).
func ParseRuleSet(text string, loc *time.Location) (*rrule.Set, error) {
	comp, err := ParseRuleSetComponent(text)
	if err != nil {
		return nil, err
	}
	return setFromComponent(comp, loc)
}

// ParseRuleSetComponent decodes the content lines accepted by ParseRuleSet
// into a VEVENT component.
func ParseRuleSetComponent(text string) (*ical.Component, error) {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + productID + "\r\nBEGIN:VEVENT\r\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		if strings.HasPrefix(upper, "BEGIN:") || strings.HasPrefix(upper, "END:") {
			return nil, fmt.Errorf("unexpected component line %q", line)
		}
		if !strings.Contains(line, ":") {
			line = ical.PropRecurrenceRule + ":" + line
		}
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	b.WriteString("END:VEVENT\r\nEND:VCALENDAR\r\n")

	cal, err := ical.NewDecoder(strings.NewReader(b.String())).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode rule set: %w", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		return nil, errors.New("failed to decode rule set: no event")
	}
	return events[0].Component, nil
}

// productID identifies calendars assembled by this package.
const productID = "-//librecur//recurrence//EN"
