package render

import (
	"encoding/json"
	"time"
)

type jsonOccurrence struct {
	Start        time.Time  `json:"start"`
	End          *time.Time `json:"end,omitempty"`
	Exception    bool       `json:"exception,omitempty"`
	RecurrenceID *time.Time `json:"recurrence_id,omitempty"`
}

type jsonExpansion struct {
	UID         string           `json:"uid,omitempty"`
	Summary     string           `json:"summary,omitempty"`
	Occurrences []jsonOccurrence `json:"occurrences"`
	Limited     bool             `json:"limited"`
}

type jsonDocument struct {
	Expansions []jsonExpansion `json:"expansions"`
}

func (e *Encoder) encodeJSON(exps []Expansion) error {
	doc := jsonDocument{Expansions: make([]jsonExpansion, 0, len(exps))}
	for _, exp := range exps {
		je := jsonExpansion{
			UID:         exp.UID,
			Summary:     exp.Summary,
			Occurrences: make([]jsonOccurrence, 0, len(exp.Occurrences)),
			Limited:     exp.Limited,
		}
		for _, o := range exp.Occurrences {
			jo := jsonOccurrence{Start: o.Start, Exception: o.IsException, RecurrenceID: o.RecurrenceID}
			if !o.End.Equal(o.Start) {
				end := o.End
				jo.End = &end
			}
			je.Occurrences = append(je.Occurrences, jo)
		}
		doc.Expansions = append(doc.Expansions, je)
	}

	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
