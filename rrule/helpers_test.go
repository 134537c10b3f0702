package rrule

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/samber/mo"
	"github.com/stretchr/testify/require"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

// take pulls at most n values from seq and renders them as RFC 3339.
func take(t *testing.T, seq Sequence, n int) []string {
	t.Helper()
	var out []string
	for len(out) < n {
		step := seq.Next()
		if step.Kind == StepFailed {
			t.Fatalf("unexpected failure: %v", step.Err)
		}
		if !step.Ok() {
			break
		}
		out = append(out, step.Value.Format(time.RFC3339))
	}
	return out
}

func ruleIter(t *testing.T, raw RawRule, anchor time.Time) *Iterator {
	t.Helper()
	r, err := NewRule(raw, anchor)
	require.NoError(t, err)
	return r.Iter()
}

func count(n int) mo.Option[int] {
	return mo.Some(n)
}

func until(t time.Time) mo.Option[time.Time] {
	return mo.Some(t)
}

func weekStart(d time.Weekday) mo.Option[time.Weekday] {
	return mo.Some(d)
}
