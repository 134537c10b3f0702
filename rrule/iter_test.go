package rrule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator_Expansion(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	at := func(year int, month time.Month, day, hour, min int) time.Time {
		return time.Date(year, month, day, hour, min, 0, 0, ny)
	}

	tests := []struct {
		name   string
		raw    RawRule
		anchor time.Time
		want   []string
	}{
		{
			name:   "daily for 10 occurrences",
			raw:    RawRule{Freq: Daily, Count: count(10)},
			anchor: at(1997, 9, 2, 9, 0),
			want: []string{
				"1997-09-02T09:00:00-04:00", "1997-09-03T09:00:00-04:00", "1997-09-04T09:00:00-04:00",
				"1997-09-05T09:00:00-04:00", "1997-09-06T09:00:00-04:00", "1997-09-07T09:00:00-04:00",
				"1997-09-08T09:00:00-04:00", "1997-09-09T09:00:00-04:00", "1997-09-10T09:00:00-04:00",
				"1997-09-11T09:00:00-04:00",
			},
		},
		{
			name: "every other week on Tuesday and Thursday, weeks starting Sunday",
			raw: RawRule{
				Freq: Weekly, Interval: 2, Count: count(8),
				Wkst:  weekStart(time.Sunday),
				ByDay: []Weekday{TU, TH},
			},
			anchor: at(1997, 9, 2, 9, 0),
			want: []string{
				"1997-09-02T09:00:00-04:00", "1997-09-04T09:00:00-04:00",
				"1997-09-16T09:00:00-04:00", "1997-09-18T09:00:00-04:00",
				"1997-09-30T09:00:00-04:00", "1997-10-02T09:00:00-04:00",
				"1997-10-14T09:00:00-04:00", "1997-10-16T09:00:00-04:00",
			},
		},
		{
			name:   "monthly on the first Friday",
			raw:    RawRule{Freq: Monthly, Count: count(6), ByDay: []Weekday{FR.Nth(1)}},
			anchor: at(1997, 9, 5, 9, 0),
			want: []string{
				"1997-09-05T09:00:00-04:00", "1997-10-03T09:00:00-04:00", "1997-11-07T09:00:00-05:00",
				"1997-12-05T09:00:00-05:00", "1998-01-02T09:00:00-05:00", "1998-02-06T09:00:00-05:00",
			},
		},
		{
			name:   "monthly on the third to last day",
			raw:    RawRule{Freq: Monthly, Count: count(6), ByMonthDay: []int{-3}},
			anchor: at(1997, 9, 28, 9, 0),
			want: []string{
				"1997-09-28T09:00:00-04:00", "1997-10-29T09:00:00-05:00", "1997-11-28T09:00:00-05:00",
				"1997-12-29T09:00:00-05:00", "1998-01-29T09:00:00-05:00", "1998-02-26T09:00:00-05:00",
			},
		},
		{
			name:   "yearly in June and July",
			raw:    RawRule{Freq: Yearly, Count: count(6), ByMonth: []int{6, 7}},
			anchor: at(1997, 6, 10, 9, 0),
			want: []string{
				"1997-06-10T09:00:00-04:00", "1997-07-10T09:00:00-04:00",
				"1998-06-10T09:00:00-04:00", "1998-07-10T09:00:00-04:00",
				"1999-06-10T09:00:00-04:00", "1999-07-10T09:00:00-04:00",
			},
		},
		{
			name:   "yearly on the 20th Monday",
			raw:    RawRule{Freq: Yearly, Count: count(3), ByDay: []Weekday{MO.Nth(20)}},
			anchor: at(1997, 5, 19, 9, 0),
			want: []string{
				"1997-05-19T09:00:00-04:00", "1998-05-18T09:00:00-04:00", "1999-05-17T09:00:00-04:00",
			},
		},
		{
			name:   "Monday of week number 20",
			raw:    RawRule{Freq: Yearly, Count: count(3), ByWeekNo: []int{20}, ByDay: []Weekday{MO}},
			anchor: at(1997, 5, 12, 9, 0),
			want: []string{
				"1997-05-12T09:00:00-04:00", "1998-05-11T09:00:00-04:00", "1999-05-17T09:00:00-04:00",
			},
		},
		{
			name:   "every Friday the 13th",
			raw:    RawRule{Freq: Monthly, Count: count(5), ByDay: []Weekday{FR}, ByMonthDay: []int{13}},
			anchor: at(1997, 9, 2, 9, 0),
			want: []string{
				"1998-02-13T09:00:00-05:00", "1998-03-13T09:00:00-05:00", "1998-11-13T09:00:00-05:00",
				"1999-08-13T09:00:00-04:00", "2000-10-13T09:00:00-04:00",
			},
		},
		{
			name: "second to last weekday of the month",
			raw: RawRule{
				Freq: Monthly, Count: count(7),
				ByDay:    []Weekday{MO, TU, WE, TH, FR},
				BySetPos: []int{-2},
			},
			anchor: at(1997, 9, 29, 9, 0),
			want: []string{
				"1997-09-29T09:00:00-04:00", "1997-10-30T09:00:00-05:00", "1997-11-27T09:00:00-05:00",
				"1997-12-30T09:00:00-05:00", "1998-01-29T09:00:00-05:00", "1998-02-26T09:00:00-05:00",
				"1998-03-30T09:00:00-05:00",
			},
		},
		{
			name:   "weekly on Wednesday from a Thursday",
			raw:    RawRule{Freq: Weekly, Count: count(3), ByDay: []Weekday{WE}},
			anchor: at(2024, 1, 4, 9, 0),
			want: []string{
				"2024-01-10T09:00:00-05:00", "2024-01-17T09:00:00-05:00", "2024-01-24T09:00:00-05:00",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := ruleIter(t, tt.raw, tt.anchor)
			assert.Equal(t, tt.want, take(t, it, len(tt.want)+5))
		})
	}
}

func TestIterator_SubDaily(t *testing.T) {
	anchor := time.Date(1997, 9, 2, 9, 0, 0, 0, time.UTC)

	t.Run("every three hours until five in the afternoon", func(t *testing.T) {
		it := ruleIter(t, RawRule{
			Freq: Hourly, Interval: 3,
			Until: until(time.Date(1997, 9, 2, 17, 0, 0, 0, time.UTC)),
		}, anchor)
		assert.Equal(t, []string{
			"1997-09-02T09:00:00Z", "1997-09-02T12:00:00Z", "1997-09-02T15:00:00Z",
		}, take(t, it, 10))
	})

	t.Run("every fifteen minutes", func(t *testing.T) {
		it := ruleIter(t, RawRule{Freq: Minutely, Interval: 15, Count: count(6)}, anchor)
		assert.Equal(t, []string{
			"1997-09-02T09:00:00Z", "1997-09-02T09:15:00Z", "1997-09-02T09:30:00Z",
			"1997-09-02T09:45:00Z", "1997-09-02T10:00:00Z", "1997-09-02T10:15:00Z",
		}, take(t, it, 10))
	})

	t.Run("every twenty minutes during office hours", func(t *testing.T) {
		it := ruleIter(t, RawRule{
			Freq: Minutely, Interval: 20, Count: count(27),
			ByHour: []int{9, 10, 11, 12, 13, 14, 15, 16},
		}, anchor)
		got := take(t, it, 30)
		require.Len(t, got, 27)
		assert.Equal(t, "1997-09-02T09:20:00Z", got[1])
		assert.Equal(t, "1997-09-02T16:40:00Z", got[23])
		assert.Equal(t, "1997-09-03T09:00:00Z", got[24])
		assert.Equal(t, "1997-09-03T09:40:00Z", got[26])
	})

	t.Run("set position within each hour", func(t *testing.T) {
		it := ruleIter(t, RawRule{
			Freq: Hourly, Count: count(3),
			ByMinute: []int{0, 30}, BySetPos: []int{1},
		}, anchor)
		assert.Equal(t, []string{
			"1997-09-02T09:00:00Z", "1997-09-02T10:00:00Z", "1997-09-02T11:00:00Z",
		}, take(t, it, 10))
	})

	t.Run("last quarter of every other hour", func(t *testing.T) {
		it := ruleIter(t, RawRule{
			Freq: Hourly, Interval: 2, Count: count(3),
			ByMinute: []int{0, 15, 30, 45}, BySetPos: []int{-1},
		}, anchor)
		assert.Equal(t, []string{
			"1997-09-02T09:45:00Z", "1997-09-02T11:45:00Z", "1997-09-02T13:45:00Z",
		}, take(t, it, 10))
	})

	t.Run("set position within each minute", func(t *testing.T) {
		it := ruleIter(t, RawRule{
			Freq: Minutely, Interval: 15, Count: count(3),
			BySecond: []int{0, 20, 40}, BySetPos: []int{2},
		}, anchor)
		assert.Equal(t, []string{
			"1997-09-02T09:00:20Z", "1997-09-02T09:15:20Z", "1997-09-02T09:30:20Z",
		}, take(t, it, 10))
	})

	t.Run("every thirty seconds", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
		it := ruleIter(t, RawRule{Freq: Secondly, Interval: 30, Count: count(4)}, start)
		assert.Equal(t, []string{
			"2024-01-01T00:00:10Z", "2024-01-01T00:00:40Z", "2024-01-01T00:01:10Z", "2024-01-01T00:01:40Z",
		}, take(t, it, 10))
	})
}

func TestIterator_Until(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	anchor := time.Date(1997, 9, 2, 9, 0, 0, 0, ny)

	tests := []struct {
		name  string
		until time.Time
		want  int
	}{
		{"bound equal to an occurrence is inclusive", time.Date(1997, 9, 5, 9, 0, 0, 0, ny), 4},
		{"bound just before an occurrence", time.Date(1997, 9, 5, 8, 59, 59, 0, ny), 3},
		{"date-only bound covers the whole day", EndOfDay(1997, time.September, 5, ny), 4},
		{"bound before the anchor", time.Date(1997, 9, 1, 0, 0, 0, 0, ny), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := ruleIter(t, RawRule{Freq: Daily, Until: until(tt.until)}, anchor)
			assert.Len(t, take(t, it, 100), tt.want)
			assert.Equal(t, StepDone, it.Next().Kind)
		})
	}
}

func TestIterator_ClockChanges(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	t.Run("skipped reading does not use up the count", func(t *testing.T) {
		it := ruleIter(t, RawRule{Freq: Daily, Count: count(4)}, time.Date(2024, 3, 8, 2, 30, 0, 0, ny))
		assert.Equal(t, []string{
			"2024-03-08T02:30:00-05:00", "2024-03-09T02:30:00-05:00",
			"2024-03-11T02:30:00-04:00", "2024-03-12T02:30:00-04:00",
		}, take(t, it, 10))
	})

	t.Run("repeated reading resolves to the earlier instant", func(t *testing.T) {
		it := ruleIter(t, RawRule{Freq: Daily, Count: count(3)}, time.Date(2024, 11, 2, 1, 30, 0, 0, ny))
		got := take(t, it, 10)
		assert.Equal(t, []string{
			"2024-11-02T01:30:00-04:00", "2024-11-03T01:30:00-04:00", "2024-11-04T01:30:00-05:00",
		}, got)
	})

	t.Run("wall clock is kept across the change", func(t *testing.T) {
		it := ruleIter(t, RawRule{Freq: Weekly, Count: count(3)}, time.Date(2024, 10, 27, 9, 0, 0, 0, ny))
		assert.Equal(t, []string{
			"2024-10-27T09:00:00-04:00", "2024-11-03T09:00:00-05:00", "2024-11-10T09:00:00-05:00",
		}, take(t, it, 10))
	})
}

func TestIterator_SparseDates(t *testing.T) {
	t.Run("leap day yearly", func(t *testing.T) {
		it := ruleIter(t, RawRule{Freq: Yearly, Count: count(3)}, time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, []string{
			"2024-02-29T12:00:00Z", "2028-02-29T12:00:00Z", "2032-02-29T12:00:00Z",
		}, take(t, it, 10))
	})

	t.Run("monthly on the 31st skips short months", func(t *testing.T) {
		it := ruleIter(t, RawRule{Freq: Monthly, Count: count(4)}, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, []string{
			"2024-01-31T12:00:00Z", "2024-03-31T12:00:00Z", "2024-05-31T12:00:00Z", "2024-07-31T12:00:00Z",
		}, take(t, it, 10))
	})

	t.Run("impossible date ends at the last year", func(t *testing.T) {
		it := ruleIter(t, RawRule{Freq: Yearly, ByMonth: []int{2}, ByMonthDay: []int{30}}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		step := it.Next()
		assert.Equal(t, StepDone, step.Kind)
	})
}

func TestIterator_EmptyPeriodLimit(t *testing.T) {
	// Hours reachable from midnight in steps of two are all even.
	it := ruleIter(t, RawRule{Freq: Hourly, Interval: 2, ByHour: []int{3}}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	step := it.Next()
	require.Equal(t, StepFailed, step.Kind)
	assert.True(t, IsKind(step.Err, ErrGenerationLimit), "got %v", step.Err)

	again := it.Next()
	assert.Equal(t, StepFailed, again.Kind)
	assert.Equal(t, step.Err, again.Err)
}

func TestIterator_StrictlyAscending(t *testing.T) {
	loc := mustLoad(t, "Europe/Berlin")
	it := ruleIter(t, RawRule{
		Freq:     Monthly,
		ByDay:    []Weekday{MO, FR.Nth(-1), SU.Nth(1)},
		ByHour:   []int{2, 9, 18},
		BySetPos: []int{1, 2, -1, -2},
	}, time.Date(2023, 1, 1, 0, 0, 0, 0, loc))

	var prev time.Time
	for i := 0; i < 500; i++ {
		step := it.Next()
		require.True(t, step.Ok())
		if !prev.IsZero() {
			require.True(t, step.Value.After(prev), "%s after %s", step.Value, prev)
		}
		prev = step.Value
	}
}

func TestIterator_Restartable(t *testing.T) {
	r, err := NewRule(RawRule{Freq: Weekly, Count: count(5), ByDay: []Weekday{MO, TH}}, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	first := take(t, r.Iter(), 10)
	second := take(t, r.Iter(), 10)
	assert.Len(t, first, 5)
	assert.Equal(t, first, second)
}
