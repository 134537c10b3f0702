package rrule

import (
	"fmt"
	"slices"
	"time"
)

// Set is a recurrence set: an anchor instant, inclusion rules (RRULE),
// exclusion rules (EXRULE), explicit inclusion instants (RDATE) and explicit
// exclusion instants (EXDATE). A Set is immutable once built and may be
// iterated by any number of independent SetIterators at the same time.
type Set struct {
	anchor  time.Time
	rules   []Rule
	exrules []Rule
	rdates  []time.Time
	exdates []time.Time
}

// SetOption configures a Set under construction.
type SetOption func(*setBuilder)

type setBuilder struct {
	rules   []RawRule
	exrules []RawRule
	rdates  []time.Time
	exdates []time.Time
}

// WithRule adds an inclusion rule.
func WithRule(raw RawRule) SetOption {
	return func(b *setBuilder) {
		b.rules = append(b.rules, raw)
	}
}

// WithExRule adds an exclusion rule.
func WithExRule(raw RawRule) SetOption {
	return func(b *setBuilder) {
		b.exrules = append(b.exrules, raw)
	}
}

// WithRDates adds explicit inclusion instants.
func WithRDates(dates ...time.Time) SetOption {
	return func(b *setBuilder) {
		b.rdates = append(b.rdates, dates...)
	}
}

// WithExDates adds explicit exclusion instants.
func WithExDates(dates ...time.Time) SetOption {
	return func(b *setBuilder) {
		b.exdates = append(b.exdates, dates...)
	}
}

// NewSet builds a recurrence set anchored at anchor. Every rule is validated
// and normalized against the anchor; the first invalid rule fails the whole
// set with an ErrInvalidRule error.
func NewSet(anchor time.Time, opts ...SetOption) (*Set, error) {
	if anchor.IsZero() {
		return nil, invalidRule("anchor instant is required")
	}

	var b setBuilder
	for _, opt := range opts {
		opt(&b)
	}

	s := &Set{anchor: anchor.Truncate(time.Second)}
	for i, raw := range b.rules {
		r, err := NewRule(raw, s.anchor)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidRule, Message: fmt.Sprintf("rule %d", i), Err: err}
		}
		s.rules = append(s.rules, r)
	}
	for i, raw := range b.exrules {
		r, err := NewRule(raw, s.anchor)
		if err != nil {
			return nil, &Error{Kind: ErrInvalidRule, Message: fmt.Sprintf("exclusion rule %d", i), Err: err}
		}
		s.exrules = append(s.exrules, r)
	}

	s.rdates = sortedInstants(b.rdates)
	s.exdates = sortedInstants(b.exdates)
	return s, nil
}

// Anchor returns the set's start instant.
func (s *Set) Anchor() time.Time { return s.anchor }

// Rules returns a copy of the inclusion rules.
func (s *Set) Rules() []Rule { return slices.Clone(s.rules) }

// ExRules returns a copy of the exclusion rules.
func (s *Set) ExRules() []Rule { return slices.Clone(s.exrules) }

// RDates returns the explicit inclusion instants, ascending and distinct.
func (s *Set) RDates() []time.Time { return slices.Clone(s.rdates) }

// ExDates returns the explicit exclusion instants, ascending and distinct.
func (s *Set) ExDates() []time.Time { return slices.Clone(s.exdates) }

// sortedInstants truncates to seconds, sorts ascending and drops instants
// that share an absolute second, keeping the first one given.
func sortedInstants(in []time.Time) []time.Time {
	if len(in) == 0 {
		return nil
	}
	out := make([]time.Time, len(in))
	for i, t := range in {
		out[i] = t.Truncate(time.Second)
	}
	slices.SortStableFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}
