package render

import (
	"github.com/emersion/go-ical"
)

// encodeICS writes one VEVENT per occurrence, each carrying the
// RECURRENCE-ID of the instance it stands for, with times in UTC. This is
// the shape of a CalDAV expanded calendar-data response.
func (e *Encoder) encodeICS(exps []Expansion) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)

	stamp := e.stamp().UTC()
	for _, exp := range e.withUIDs(exps) {
		for _, o := range exp.Occurrences {
			event := ical.NewEvent()
			event.Props.SetText(ical.PropUID, exp.UID)
			event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
			event.Props.SetDateTime(ical.PropDateTimeStart, o.Start.UTC())
			if !o.End.Equal(o.Start) {
				event.Props.SetDateTime(ical.PropDateTimeEnd, o.End.UTC())
			}
			event.Props.SetDateTime(propRecurrenceID, recurrenceID(o).UTC())
			if exp.Summary != "" {
				event.Props.SetText(ical.PropSummary, exp.Summary)
			}
			cal.Children = append(cal.Children, event.Component)
		}
	}

	return ical.NewEncoder(e.w).Encode(cal)
}

const propRecurrenceID = "RECURRENCE-ID"
