package render

import (
	"fmt"
	"strings"
	"time"
)

func (e *Encoder) encodeText(exps []Expansion) error {
	var b strings.Builder
	for i, exp := range exps {
		if i > 0 {
			b.WriteByte('\n')
		}
		if exp.UID != "" || exp.Summary != "" {
			fmt.Fprintf(&b, "# %s\n", strings.TrimSpace(exp.UID+" "+exp.Summary))
		}
		for _, o := range exp.Occurrences {
			b.WriteString(o.Start.Format(time.RFC3339))
			if !o.End.Equal(o.Start) {
				b.WriteByte('/')
				b.WriteString(o.End.Format(time.RFC3339))
			}
			if o.IsException {
				fmt.Fprintf(&b, " (replaces %s)", recurrenceID(o).Format(time.RFC3339))
			}
			b.WriteByte('\n')
		}
		if exp.Limited {
			fmt.Fprintf(&b, "# stopped after %d occurrences\n", len(exp.Occurrences))
		}
	}
	_, err := e.w.Write([]byte(b.String()))
	return err
}
