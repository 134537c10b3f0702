package render

import (
	"time"

	"github.com/beevik/etree"
)

// XCalNamespace is the RFC 6321 XML namespace.
const XCalNamespace = "urn:ietf:params:xml:ns:icalendar-2.0"

// xCal date-time values use the extended ISO 8601 form.
const xcalDateTime = "2006-01-02T15:04:05Z"

// encodeXCal writes the same events as encodeICS in the RFC 6321 XML
// representation.
func (e *Encoder) encodeXCal(exps []Expansion) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", XCalNamespace)
	vcalendar := root.CreateElement("vcalendar")
	props := vcalendar.CreateElement("properties")
	addText(props, "prodid", ProductID)
	addText(props, "version", "2.0")
	components := vcalendar.CreateElement("components")

	stamp := e.stamp().UTC()
	for _, exp := range e.withUIDs(exps) {
		for _, o := range exp.Occurrences {
			event := components.CreateElement("vevent").CreateElement("properties")
			addText(event, "uid", exp.UID)
			addDateTime(event, "dtstamp", stamp)
			addDateTime(event, "dtstart", o.Start)
			if !o.End.Equal(o.Start) {
				addDateTime(event, "dtend", o.End)
			}
			addDateTime(event, "recurrence-id", recurrenceID(o))
			if exp.Summary != "" {
				addText(event, "summary", exp.Summary)
			}
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(e.w)
	return err
}

func addText(parent *etree.Element, name, value string) {
	parent.CreateElement(name).CreateElement("text").SetText(value)
}

func addDateTime(parent *etree.Element, name string, t time.Time) {
	parent.CreateElement(name).CreateElement("date-time").SetText(t.UTC().Format(xcalDateTime))
}
