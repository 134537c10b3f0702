package rrule

import (
	"bytes"
	"log/slog"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_RDateMatchingRuleIsEmittedOnce(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	anchor := time.Date(2024, 5, 30, 20, 0, 0, 0, berlin)

	set, err := NewSet(anchor,
		WithRule(RawRule{Freq: Daily, Count: count(3)}),
		WithRDates(anchor),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-05-30T20:00:00+02:00", "2024-05-31T20:00:00+02:00", "2024-06-01T20:00:00+02:00",
	}, take(t, set.Iter(), 10))
}

func TestSet_RDateOutsideRule(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	anchor := time.Date(2024, 5, 30, 20, 0, 0, 0, berlin) // a Thursday

	set, err := NewSet(anchor,
		WithRule(RawRule{Freq: Weekly, Count: count(3), ByDay: []Weekday{WE}}),
		WithRDates(anchor),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-05-30T20:00:00+02:00", "2024-06-05T20:00:00+02:00",
		"2024-06-12T20:00:00+02:00", "2024-06-19T20:00:00+02:00",
	}, take(t, set.Iter(), 10))
}

func TestSet_ExDates(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		exdate time.Time
	}{
		{"same zone", time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)},
		{"other zone, same instant", time.Date(2024, 1, 3, 4, 0, 0, 0, ny)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := NewSet(anchor,
				WithRule(RawRule{Freq: Daily, Count: count(5)}),
				WithExDates(tt.exdate),
			)
			require.NoError(t, err)
			assert.Equal(t, []string{
				"2024-01-01T09:00:00Z", "2024-01-02T09:00:00Z", "2024-01-04T09:00:00Z", "2024-01-05T09:00:00Z",
			}, take(t, set.Iter(), 10))
		})
	}
}

func TestSet_ExDateRemovesRDate(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	extra := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	set, err := NewSet(anchor, WithRDates(anchor, extra), WithExDates(extra))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01T09:00:00Z"}, take(t, set.Iter(), 10))
}

func TestSet_ExRule(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // a Monday

	set, err := NewSet(anchor,
		WithRule(RawRule{Freq: Daily, Count: count(14)}),
		WithExRule(RawRule{Freq: Weekly, ByDay: []Weekday{SA, SU}}),
	)
	require.NoError(t, err)

	got := take(t, set.Iter(), 20)
	assert.Equal(t, []string{
		"2024-01-01T09:00:00Z", "2024-01-02T09:00:00Z", "2024-01-03T09:00:00Z", "2024-01-04T09:00:00Z", "2024-01-05T09:00:00Z",
		"2024-01-08T09:00:00Z", "2024-01-09T09:00:00Z", "2024-01-10T09:00:00Z", "2024-01-11T09:00:00Z", "2024-01-12T09:00:00Z",
	}, got)
}

func TestSet_MergesRules(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	set, err := NewSet(anchor,
		WithRule(RawRule{Freq: Daily, Count: count(3), ByHour: []int{9}}),
		WithRule(RawRule{Freq: Daily, Count: count(2), ByHour: []int{12}}),
		WithRule(RawRule{Freq: Daily, Count: count(1), ByHour: []int{9}}),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-01-01T09:00:00Z", "2024-01-01T12:00:00Z",
		"2024-01-02T09:00:00Z", "2024-01-02T12:00:00Z",
		"2024-01-03T09:00:00Z",
	}, take(t, set.Iter(), 10))
}

func TestSet_EmptySet(t *testing.T) {
	set, err := NewSet(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	it := set.Iter()
	assert.Equal(t, StepDone, it.Next().Kind)
	assert.Equal(t, StepDone, it.Next().Kind)
	assert.NoError(t, it.Err())
}

func TestSet_ConstructionErrors(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewSet(time.Time{})
	assert.True(t, IsKind(err, ErrInvalidRule))

	_, err = NewSet(anchor, WithRule(RawRule{Freq: Daily}), WithRule(RawRule{Freq: Daily, ByHour: []int{25}}))
	require.Error(t, err)
	assert.True(t, IsKind(err, ErrInvalidRule))
	assert.Contains(t, err.Error(), "rule 1")

	_, err = NewSet(anchor, WithExRule(RawRule{Freq: Daily, Count: count(-1)}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exclusion rule 0")
}

func TestSet_SkipLimit(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	set, err := NewSet(anchor,
		WithRule(RawRule{Freq: Daily}),
		WithExRule(RawRule{Freq: Daily}),
	)
	require.NoError(t, err)

	var logs bytes.Buffer
	it := set.Iter(WithMaxSkips(5), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	step := it.Next()
	require.Equal(t, StepFailed, step.Kind)
	assert.True(t, IsKind(step.Err, ErrGenerationLimit))
	assert.Equal(t, step.Err, it.Err())
	assert.Equal(t, StepFailed, it.Next().Kind)
	assert.Contains(t, logs.String(), "recurrence iteration failed")
}

func TestSet_IteratorsAreIndependent(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, loc)

	set, err := NewSet(anchor,
		WithRule(RawRule{Freq: Weekly, ByDay: []Weekday{MO, WE, FR}}),
		WithExRule(RawRule{Freq: Monthly, ByDay: []Weekday{FR.Nth(-1)}}),
		WithRDates(time.Date(2024, 1, 6, 10, 0, 0, 0, loc)),
		WithExDates(time.Date(2024, 1, 10, 9, 0, 0, 0, loc)),
	)
	require.NoError(t, err)

	want := take(t, Limit(set.Iter(), 200), 200)
	require.Len(t, want, 200)

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := set.All(200)
			if err != nil {
				return
			}
			for _, d := range res.Dates {
				results[i] = append(results[i], d.Format(time.RFC3339))
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

// TestSet_RandomSets checks the merged output of randomly generated sets
// against a direct computation from the individual sources.
func TestSet_RandomSets(t *testing.T) {
	rng := rand.New(rand.NewSource(20240530))
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return anchor.AddDate(0, 0, n) }

	for round := 0; round < 50; round++ {
		raw := RawRule{Freq: Daily, Interval: 1 + rng.Intn(3), Count: count(5 + rng.Intn(20))}

		var rdates, exdates []time.Time
		for i := rng.Intn(10); i > 0; i-- {
			rdates = append(rdates, day(rng.Intn(40)))
		}
		for i := rng.Intn(10); i > 0; i-- {
			exdates = append(exdates, day(rng.Intn(40)))
		}

		set, err := NewSet(anchor, WithRule(raw), WithRDates(rdates...), WithExDates(exdates...))
		require.NoError(t, err)

		rule, err := NewRule(raw, anchor)
		require.NoError(t, err)
		expected := map[int64]bool{}
		it := rule.Iter()
		for step := it.Next(); step.Ok(); step = it.Next() {
			expected[step.Value.Unix()] = true
		}
		for _, d := range rdates {
			expected[d.Unix()] = true
		}
		for _, d := range exdates {
			delete(expected, d.Unix())
		}
		want := make([]int64, 0, len(expected))
		for ts := range expected {
			want = append(want, ts)
		}
		slices.Sort(want)

		res, err := set.All(1000)
		require.NoError(t, err)
		got := make([]int64, len(res.Dates))
		for i, d := range res.Dates {
			got[i] = d.Unix()
		}
		assert.Equal(t, want, got, "round %d", round)
	}
}

// TestSet_RandomRulesAndExRules mixes several inclusion and exclusion rules,
// so exclusion lookups arrive out of order from interleaved sources, and
// compares the merge with a brute-force expansion.
func TestSet_RandomRulesAndExRules(t *testing.T) {
	rng := rand.New(rand.NewSource(20241018))
	anchor := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	hours := []int{9, 13, 17}

	randomRule := func(maxCount int) RawRule {
		raw := RawRule{Freq: Daily, Interval: 1 + rng.Intn(3), Count: count(1 + rng.Intn(maxCount))}
		if rng.Intn(2) == 0 {
			raw.Freq = Weekly
			raw.ByDay = []Weekday{MO, WE, FR}[:1+rng.Intn(3)]
		}
		for _, h := range hours {
			if rng.Intn(2) == 0 {
				raw.ByHour = append(raw.ByHour, h)
			}
		}
		return raw
	}
	instants := func(raw RawRule) []int64 {
		rule, err := NewRule(raw, anchor)
		require.NoError(t, err)
		var out []int64
		it := rule.Iter()
		for step := it.Next(); step.Ok(); step = it.Next() {
			out = append(out, step.Value.Unix())
		}
		return out
	}

	for round := 0; round < 100; round++ {
		opts := []SetOption{}
		expected := map[int64]bool{}
		for i := 2 + rng.Intn(2); i > 0; i-- {
			raw := randomRule(40)
			opts = append(opts, WithRule(raw))
			for _, ts := range instants(raw) {
				expected[ts] = true
			}
		}
		var excluded []int64
		for i := 1 + rng.Intn(2); i > 0; i-- {
			raw := randomRule(30)
			opts = append(opts, WithExRule(raw))
			excluded = append(excluded, instants(raw)...)
		}
		for _, ts := range excluded {
			delete(expected, ts)
		}

		want := make([]int64, 0, len(expected))
		for ts := range expected {
			want = append(want, ts)
		}
		slices.Sort(want)

		set, err := NewSet(anchor, opts...)
		require.NoError(t, err)
		res, err := set.All(1000)
		require.NoError(t, err)
		got := make([]int64, len(res.Dates))
		for i, d := range res.Dates {
			got[i] = d.Unix()
		}
		assert.Equal(t, want, got, "round %d", round)
	}
}
