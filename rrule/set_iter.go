package rrule

import (
	"io"
	"log/slog"
	"time"

	"github.com/samber/mo"
)

// DefaultMaxSkips is the default bound on consecutive excluded candidates a
// single source may produce before iteration fails.
const DefaultMaxSkips = 100_000

// IterOption configures a SetIterator.
type IterOption func(*iterConfig)

type iterConfig struct {
	maxSkips int
	logger   *slog.Logger
}

// WithMaxSkips bounds how many consecutive candidates of one source may be
// excluded before the iterator fails with ErrGenerationLimit.
func WithMaxSkips(n int) IterOption {
	return func(c *iterConfig) {
		if n > 0 {
			c.maxSkips = n
		}
	}
}

// WithLogger sets the logger the iterator reports its failure to.
func WithLogger(logger *slog.Logger) IterOption {
	return func(c *iterConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

type mergeState int

const (
	mergeIdle mergeState = iota
	mergeRunning
	mergeExhausted
	mergeFailed
)

// SetIterator merges the inclusion sources of a Set into one ascending,
// duplicate-free sequence, skipping excluded instants. It owns all of its
// state: rule cursors, lookahead slots and the exclusion cache.
type SetIterator struct {
	set *Set
	cfg iterConfig

	// sources holds one iterator per inclusion rule followed by the RDATE
	// list; slots[i] is the lookahead for sources[i].
	sources []Sequence
	slots   []mo.Option[time.Time]
	live    []bool
	cache   *exclusionCache

	state mergeState
	err   error
}

// Iter starts a new pass over the set from its beginning.
func (s *Set) Iter(opts ...IterOption) *SetIterator {
	cfg := iterConfig{
		maxSkips: DefaultMaxSkips,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	it := &SetIterator{
		set:   s,
		cfg:   cfg,
		cache: newExclusionCache(s),
	}
	for _, r := range s.rules {
		it.sources = append(it.sources, r.Iter())
	}
	it.sources = append(it.sources, &listSource{dates: s.rdates})
	it.slots = make([]mo.Option[time.Time], len(it.sources))
	it.live = make([]bool, len(it.sources))
	for i := range it.live {
		it.live[i] = true
	}
	return it
}

// Next returns the next instant of the set. After StepDone or StepFailed
// every further call returns the same kind.
func (it *SetIterator) Next() Step {
	switch it.state {
	case mergeExhausted:
		return doneStep()
	case mergeFailed:
		return failedStep(it.err)
	}
	it.state = mergeRunning

	for i := range it.sources {
		if it.slots[i].IsPresent() || !it.live[i] {
			continue
		}
		if err := it.refill(i); err != nil {
			return it.fail(err)
		}
	}

	var next time.Time
	found := false
	for _, slot := range it.slots {
		t, ok := slot.Get()
		if ok && (!found || t.Before(next)) {
			next = t
			found = true
		}
	}
	if !found {
		it.state = mergeExhausted
		return doneStep()
	}

	// Clear every slot that tied, so the value is emitted exactly once.
	for i, slot := range it.slots {
		if t, ok := slot.Get(); ok && t.Unix() == next.Unix() {
			it.slots[i] = mo.None[time.Time]()
		}
	}
	return valueStep(next)
}

// Err returns the failure that latched the iterator, if any.
func (it *SetIterator) Err() error {
	return it.err
}

// refill pulls from source i until it yields a candidate that is not
// excluded, or runs out.
func (it *SetIterator) refill(i int) error {
	skips := 0
	for {
		step := it.sources[i].Next()
		switch step.Kind {
		case StepDone:
			it.live[i] = false
			return nil
		case StepFailed:
			return step.Err
		}

		excluded, err := isExcluded(it.set, step.Value, it.cache)
		if err != nil {
			return err
		}
		if !excluded {
			it.slots[i] = mo.Some(step.Value)
			return nil
		}

		skips++
		if skips > it.cfg.maxSkips {
			return generationLimit("more than %d consecutive candidates excluded", it.cfg.maxSkips)
		}
	}
}

func (it *SetIterator) fail(err error) Step {
	it.state = mergeFailed
	it.err = err
	for i := range it.slots {
		it.slots[i] = mo.None[time.Time]()
	}
	it.cfg.logger.Error("recurrence iteration failed",
		"anchor", it.set.anchor,
		"error", err)
	return failedStep(err)
}

// listSource yields a pre-sorted list of explicit instants.
type listSource struct {
	dates []time.Time
	pos   int
}

func (l *listSource) Next() Step {
	if l.pos >= len(l.dates) {
		return doneStep()
	}
	t := l.dates[l.pos]
	l.pos++
	return valueStep(t)
}
