package rrule

import (
	"time"

	"github.com/samber/mo"
)

// exclusionWindow is the half-width of the window an exclusion rule is
// expanded over around each queried candidate.
const exclusionWindow = time.Second

// exclusionCache is the per-iteration state of the exclusion resolver: the
// epoch seconds confirmed excluded, and one forward cursor per exclusion
// rule. Entries are only ever added during an iteration.
type exclusionCache struct {
	excluded map[int64]struct{}
	cursors  []*exruleCursor
}

// exruleCursor remembers how far an exclusion rule has been expanded so
// that ascending queries continue where the previous one stopped.
type exruleCursor struct {
	it      *Iterator
	skipped mo.Option[time.Time] // latest instant passed over without caching
	pending mo.Option[time.Time] // pulled but beyond the previous window
}

func newExclusionCache(s *Set) *exclusionCache {
	c := &exclusionCache{
		excluded: make(map[int64]struct{}, len(s.exdates)),
		cursors:  make([]*exruleCursor, len(s.exrules)),
	}
	for _, t := range s.exdates {
		c.excluded[t.Unix()] = struct{}{}
	}
	return c
}

// isExcluded answers whether candidate belongs to the exclusion set of s,
// materializing exclusion-rule instants near candidate into cache first.
// It fails only when an exclusion rule itself hits a generation limit.
func isExcluded(s *Set, candidate time.Time, cache *exclusionCache) (bool, error) {
	ts := candidate.Unix()
	if _, ok := cache.excluded[ts]; ok {
		return true, nil
	}
	if len(s.exrules) == 0 {
		return false, nil
	}

	lo := candidate.Add(-exclusionWindow)
	hi := candidate.Add(exclusionWindow)
	for i, rule := range s.exrules {
		if err := cache.expand(i, rule, lo, hi); err != nil {
			return false, err
		}
	}

	_, ok := cache.excluded[ts]
	return ok, nil
}

// expand materializes the instants of exclusion rule i that fall inside
// [lo, hi]. A cursor is reused unless it already passed over an instant at
// or after lo without caching it; then the rule is re-expanded from its
// anchor.
func (c *exclusionCache) expand(i int, rule Rule, lo, hi time.Time) error {
	cur := c.cursors[i]
	if cur == nil || cur.skipped.IsPresent() && !cur.skipped.MustGet().Before(lo) {
		// Restarting from the anchor is the fallback for queries that go back.
		cur = &exruleCursor{it: rule.Iter()}
		c.cursors[i] = cur
	}

	for {
		t, ok := cur.pending.Get()
		if ok {
			cur.pending = mo.None[time.Time]()
		} else {
			step := cur.it.Next()
			switch step.Kind {
			case StepDone:
				return nil
			case StepFailed:
				return step.Err
			}
			t = step.Value
		}

		if t.After(hi) {
			cur.pending = mo.Some(t)
			return nil
		}
		if t.Before(lo) {
			cur.skipped = mo.Some(t)
			continue
		}
		c.excluded[t.Unix()] = struct{}{}
	}
}
