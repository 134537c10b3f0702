/*
Package rrule expands RFC 5545 recurrence sets (RRULE, EXRULE, RDATE and
EXDATE) into ascending sequences of zone-aware instants.

# Basic Usage

Build a set from an anchor and rules, then pull instants from an iterator:

	loc, _ := time.LoadLocation("America/New_York")
	anchor := time.Date(1997, 9, 29, 9, 0, 0, 0, loc)

	set, err := rrule.NewSet(anchor, rrule.WithRule(rrule.RawRule{
		Freq:     rrule.Monthly,
		ByDay:    []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
		BySetPos: []int{-2},
	}))
	if err != nil {
		log.Fatal(err)
	}

	it := set.Iter()
	for step := it.Next(); step.Ok(); step = it.Next() {
		fmt.Println(step.Value)
	}

Unbounded rules never finish on their own; wrap the iterator with Limit,
Before or Between, or use Set.All and Set.Between which cap the expansion.

# Pull Results

Every Next call returns a Step whose Kind is StepValue, StepDone or
StepFailed. Done and Failed are final: a failed iterator keeps returning the
same error, so a loop draining it always ends.

# Time Zones

Rules are expanded on the anchor's wall clock and mapped to instants in the
anchor's location. Readings skipped by a forward clock change produce no
instant; readings repeated by a backward change resolve to the earlier
instant.

# Concurrency

Sets are immutable and may be shared. Iterators are not safe for concurrent
use; each goroutine should call Iter for its own.
*/
package rrule
