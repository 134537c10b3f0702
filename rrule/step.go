package rrule

import "time"

// StepKind tells what a pull from a Sequence produced.
type StepKind int

const (
	// StepValue carries the next instant.
	StepValue StepKind = iota
	// StepDone means the sequence is exhausted. Every later pull is Done too.
	StepDone
	// StepFailed means a generation limit was hit. Every later pull returns
	// the same failure.
	StepFailed
)

func (k StepKind) String() string {
	switch k {
	case StepValue:
		return "value"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Step is the result of one pull: a value, exhaustion, or a sticky failure.
type Step struct {
	Kind  StepKind
	Value time.Time
	Err   error
}

// Ok reports whether the step carries a value.
func (s Step) Ok() bool {
	return s.Kind == StepValue
}

func valueStep(t time.Time) Step {
	return Step{Kind: StepValue, Value: t}
}

func doneStep() Step {
	return Step{Kind: StepDone}
}

func failedStep(err error) Step {
	return Step{Kind: StepFailed, Err: err}
}

// Sequence is a lazily produced, strictly ascending series of instants.
// Rule iterators, set iterators and the window decorators implement it.
type Sequence interface {
	Next() Step
}
