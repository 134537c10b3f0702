// Package render writes expanded occurrences in the output formats of the
// recur command.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/cyp0633/librecur/recurrence"
)

// ProductID is written as PRODID into generated calendars.
const ProductID = "-//librecur//recur//EN"

// Expansion is the outcome of expanding one recurrence set.
type Expansion struct {
	UID         string
	Summary     string
	Occurrences []recurrence.TimeOccurrence
	// Limited is set when the expansion stopped at its occurrence limit.
	Limited bool
}

// Encoder writes expansions to an output stream.
type Encoder struct {
	w      io.Writer
	stamp  func() time.Time
	newUID func() string
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithClock sets the source of DTSTAMP values.
func WithClock(now func() time.Time) Option {
	return func(e *Encoder) {
		e.stamp = now
	}
}

// WithUIDSource sets how UIDs are generated for expansions that have none.
func WithUIDSource(newUID func() string) Option {
	return func(e *Encoder) {
		e.newUID = newUID
	}
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	e := &Encoder{
		w:      w,
		stamp:  time.Now,
		newUID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type encodeFunc func(exps []Expansion) error

// Encode writes exps in the named format.
func (e *Encoder) Encode(format string, exps []Expansion) error {
	encode, err := e.lookup(format).Get()
	if err != nil {
		return err
	}
	return encode(exps)
}

func (e *Encoder) lookup(format string) mo.Result[encodeFunc] {
	switch format {
	case "text":
		return mo.Ok[encodeFunc](e.encodeText)
	case "json":
		return mo.Ok[encodeFunc](e.encodeJSON)
	case "ics":
		return mo.Ok[encodeFunc](e.encodeICS)
	case "xcal":
		return mo.Ok[encodeFunc](e.encodeXCal)
	default:
		return mo.Err[encodeFunc](fmt.Errorf("unknown output format %q", format))
	}
}

// withUIDs fills in missing UIDs. Calendar formats need one per event.
func (e *Encoder) withUIDs(exps []Expansion) []Expansion {
	out := make([]Expansion, len(exps))
	for i, exp := range exps {
		if exp.UID == "" {
			exp.UID = e.newUID()
		}
		out[i] = exp
	}
	return out
}

// recurrenceID is the instant an occurrence replaces: its own start for a
// generated instance, the original start for an override.
func recurrenceID(o recurrence.TimeOccurrence) time.Time {
	return recurrence.SafeTimeDeref(o.RecurrenceID, o.Start)
}
