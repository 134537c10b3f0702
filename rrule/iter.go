package rrule

import "time"

// MaxEmptyPeriods bounds how many consecutive periods may produce no
// candidate before the generator gives up with ErrGenerationLimit.
const MaxEmptyPeriods = 100_000

type cursorState int

const (
	cursorActive cursorState = iota
	cursorDone
	cursorFailed
)

// Iterator is the single-rule generator. It walks the rule's periods from
// the anchor, buffering one period's candidates at a time, and yields them in
// strictly ascending order. An Iterator is not safe for concurrent use;
// create one per consumer with Rule.Iter.
type Iterator struct {
	rule Rule
	pipe *pipeline
	loc  *time.Location

	period  time.Time // naive date the current period starts on
	buf     []time.Time
	pos     int
	last    time.Time
	emitted int

	emptyRun int
	state    cursorState
	err      error
}

// Iter starts a new pass over the rule from its anchor.
func (r Rule) Iter() *Iterator {
	r = Normalize(r)
	it := &Iterator{
		rule: r,
		pipe: newPipeline(r),
		loc:  r.Anchor.Location(),
	}

	a := naiveOf(r.Anchor)
	switch r.Freq {
	case Yearly:
		it.period = naiveDate(a.Year(), time.January, 1)
	case Monthly:
		it.period = naiveDate(a.Year(), a.Month(), 1)
	default:
		it.period = dateOnly(a)
	}
	return it
}

// Next returns the next instant of the rule, StepDone once the termination
// condition is reached, or StepFailed when MaxEmptyPeriods is exceeded.
func (it *Iterator) Next() Step {
	for {
		switch it.state {
		case cursorDone:
			return doneStep()
		case cursorFailed:
			return failedStep(it.err)
		}

		if it.pos >= len(it.buf) {
			it.fill()
			continue
		}

		t := it.buf[it.pos]
		it.pos++

		if until, ok := it.rule.End.Until(); ok && t.After(until) {
			it.finish()
			return doneStep()
		}
		it.emitted++
		if n, ok := it.rule.End.Count(); ok && it.emitted >= n {
			it.finish()
		}
		return valueStep(t)
	}
}

func (it *Iterator) finish() {
	it.state = cursorDone
	it.buf = nil
	it.pos = 0
}

// fill expands periods until one produces at least one instant, the
// sequence runs past MaxYear or the until bound, or the empty-period guard
// trips.
func (it *Iterator) fill() {
	it.buf = it.buf[:0]
	it.pos = 0

	for len(it.buf) == 0 {
		if it.period.Year() > MaxYear || it.pastUntil() {
			it.finish()
			return
		}

		for _, wall := range it.pipe.candidates(it.period) {
			t, ok := resolveLocal(wall, it.loc)
			if !ok {
				// Skipped by a forward clock change: not a candidate.
				continue
			}
			if t.Before(it.rule.Anchor) {
				continue
			}
			if !it.last.IsZero() && !t.After(it.last) {
				continue
			}
			it.buf = append(it.buf, t)
			it.last = t
		}
		it.advance()

		if len(it.buf) > 0 {
			it.emptyRun = 0
			return
		}
		it.emptyRun++
		if it.emptyRun > MaxEmptyPeriods {
			it.state = cursorFailed
			it.err = generationLimit("rule %s produced no instant in %d consecutive periods", it.rule.Freq, MaxEmptyPeriods)
			return
		}
	}
}

// pastUntil reports whether the current period starts after the day the
// until bound falls on, so no later period can produce an allowed instant.
func (it *Iterator) pastUntil() bool {
	until, ok := it.rule.End.Until()
	if !ok {
		return false
	}
	limit := dateOnly(until.In(it.loc)).AddDate(0, 0, 1)
	return it.period.After(limit)
}

func (it *Iterator) advance() {
	r := it.rule
	switch r.Freq {
	case Yearly:
		it.period = naiveDate(it.period.Year()+r.Interval, time.January, 1)
	case Monthly:
		it.period = naiveDate(it.period.Year(), it.period.Month()+time.Month(r.Interval), 1)
	case Weekly:
		weekStart := it.period.AddDate(0, 0, -weekdayIndex(it.period.Weekday(), r.Wkst))
		it.period = weekStart.AddDate(0, 0, 7*r.Interval)
	case Daily:
		it.period = it.period.AddDate(0, 0, r.Interval)
	default:
		it.period = it.period.AddDate(0, 0, 1)
	}
}
