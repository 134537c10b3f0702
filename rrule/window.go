package rrule

import "time"

// DefaultLimit caps Set.All and Set.Between when the caller passes no limit.
// Large calendar providers stop expanding recurring events at the same
// number of instances.
const DefaultLimit = 730

// afterSeq drops instants before a lower bound.
type afterSeq struct {
	src       Sequence
	bound     time.Time
	inclusive bool
}

// After passes through the instants of src that are after t (or equal to
// it when inclusive).
func After(src Sequence, t time.Time, inclusive bool) Sequence {
	return &afterSeq{src: src, bound: t, inclusive: inclusive}
}

func (a *afterSeq) Next() Step {
	for {
		step := a.src.Next()
		if !step.Ok() {
			return step
		}
		if step.Value.After(a.bound) || a.inclusive && step.Value.Equal(a.bound) {
			return step
		}
	}
}

// beforeSeq ends the sequence at an upper bound. Since sources ascend, the
// first instant past the bound ends it for good.
type beforeSeq struct {
	src       Sequence
	bound     time.Time
	inclusive bool
	done      bool
}

// Before passes through the instants of src that are before t (or equal to
// it when inclusive) and then reports StepDone.
func Before(src Sequence, t time.Time, inclusive bool) Sequence {
	return &beforeSeq{src: src, bound: t, inclusive: inclusive}
}

func (b *beforeSeq) Next() Step {
	if b.done {
		return doneStep()
	}
	step := b.src.Next()
	if !step.Ok() {
		return step
	}
	if step.Value.Before(b.bound) || b.inclusive && step.Value.Equal(b.bound) {
		return step
	}
	b.done = true
	return doneStep()
}

// Between restricts src to the half-open window [after, before).
func Between(src Sequence, after, before time.Time) Sequence {
	return Before(After(src, after, true), before, false)
}

type limitSeq struct {
	src  Sequence
	left int
}

// Limit ends the sequence after n instants.
func Limit(src Sequence, n int) Sequence {
	return &limitSeq{src: src, left: n}
}

func (l *limitSeq) Next() Step {
	if l.left <= 0 {
		return doneStep()
	}
	step := l.src.Next()
	if step.Ok() {
		l.left--
	}
	return step
}

// Collect drains src into a slice. max > 0 stops after that many instants;
// the boolean then reports whether src had more to give. A failed sequence
// returns the instants gathered so far together with its error.
func Collect(src Sequence, max int) ([]time.Time, bool, error) {
	var out []time.Time
	for {
		if max > 0 && len(out) >= max {
			more := src.Next()
			if more.Kind == StepFailed {
				return out, false, more.Err
			}
			return out, more.Ok(), nil
		}
		step := src.Next()
		switch step.Kind {
		case StepDone:
			return out, false, nil
		case StepFailed:
			return out, false, step.Err
		}
		out = append(out, step.Value)
	}
}

// Result is a bounded expansion of a set.
type Result struct {
	Dates []time.Time
	// Limited is set when the expansion stopped at the limit while the set
	// still had instants left.
	Limited bool
}

// All expands the set from its beginning, up to limit instants
// (DefaultLimit when limit <= 0).
func (s *Set) All(limit int, opts ...IterOption) (Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	dates, limited, err := Collect(s.Iter(opts...), limit)
	return Result{Dates: dates, Limited: limited}, err
}

// Between expands the instants of the set inside [after, before), up to
// limit instants (DefaultLimit when limit <= 0).
func (s *Set) Between(after, before time.Time, limit int, opts ...IterOption) (Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	dates, limited, err := Collect(Between(s.Iter(opts...), after, before), limit)
	return Result{Dates: dates, Limited: limited}, err
}
