package recurrence

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/emersion/go-ical"

	"github.com/cyp0633/librecur/rrule"
)

// Engine provides unified recurrence expansion and validation logic
type Engine struct {
	cache  *RecurrenceCache
	config EngineConfig
	logger *slog.Logger
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithLogger sets the logger used by the engine and its iterations
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a recurrence engine with DefaultEngineConfig
func NewEngine(opts ...EngineOption) *Engine {
	return NewEngineWithConfig(DefaultEngineConfig, opts...)
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		config: config,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if config.CacheEnabled {
		e.cache = NewRecurrenceCache(config.CacheConfig)
	}
	return e
}

// Close releases the result cache
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports result cache statistics; the zero value when caching is disabled
func (e *Engine) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// Config returns the engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// HasOccurrenceInRange checks if a recurring event has any occurrence in the
// time range. Occurrences last as long as the master instance; one that
// touches either end of the range counts. Only the first matching
// occurrence is generated.
func (e *Engine) HasOccurrenceInRange(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (bool, error) {
	const op = "has-occurrence"
	if e.cache != nil {
		if cached, ok := e.cache.Get(op, masterStart, masterEnd, recurrence, rangeStart, rangeEnd); ok {
			return cached.(bool), nil
		}
	}

	seq, err := e.window(masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
	if err != nil {
		return false, err
	}
	step := seq.Next()
	if step.Kind == rrule.StepFailed {
		return false, fmt.Errorf("failed to check occurrences: %w", step.Err)
	}
	found := step.Ok()

	if e.cache != nil {
		e.cache.Set(op, masterStart, masterEnd, recurrence, rangeStart, rangeEnd, found)
	}
	return found, nil
}

// Expand returns the occurrences that overlap [rangeStart, rangeEnd] in
// ascending order. Limits left at zero in opts fall back to the engine
// configuration. Results are cached when the engine has a cache.
func (e *Engine) Expand(
	masterStart, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
	opts ExpansionOptions,
) ([]TimeOccurrence, error) {
	limit := opts.MaxOccurrences
	if limit <= 0 {
		limit = e.config.MaxOccurrences
	}
	span := opts.MaxTimeSpan
	if span <= 0 {
		span = e.config.MaxTimeSpan
	}
	if span > 0 && rangeEnd.Sub(rangeStart) > span {
		e.logger.Debug("expansion range clipped",
			"range_start", rangeStart,
			"range_end", rangeEnd,
			"max_span", span)
		rangeEnd = rangeStart.Add(span)
	}

	op := fmt.Sprintf("expand:%d", limit)
	if e.cache != nil {
		if cached, ok := e.cache.Get(op, masterStart, masterEnd, recurrence, rangeStart, rangeEnd); ok {
			return slices.Clone(cached.([]TimeOccurrence)), nil
		}
	}

	seq, err := e.window(masterStart, masterEnd, recurrence, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}
	starts, more, err := rrule.Collect(seq, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to expand recurrence: %w", err)
	}
	if more {
		e.logger.Warn("expansion stopped at occurrence limit",
			"limit", limit,
			"master_start", masterStart)
	}

	duration := masterEnd.Sub(masterStart)
	occurrences := make([]TimeOccurrence, len(starts))
	for i, start := range starts {
		occurrences[i] = TimeOccurrence{Start: start, End: start.Add(duration)}
	}

	if e.cache != nil {
		e.cache.Set(op, masterStart, masterEnd, recurrence, rangeStart, rangeEnd, slices.Clone(occurrences))
	}
	return occurrences, nil
}

// ExpandComponent expands the occurrences of a VEVENT or VTODO inside
// [rangeStart, rangeEnd]. A component carrying RECURRENCE-ID overrides a
// single occurrence; it is reported as one exception occurrence when
// opts.IncludeExceptions is set, and skipped otherwise.
func (e *Engine) ExpandComponent(comp *ical.Component, rangeStart, rangeEnd time.Time, opts ExpansionOptions) ([]TimeOccurrence, error) {
	start, end, hasTime := ExtractBasicTimeInfoFromComponent(comp)
	if !hasTime {
		return nil, errors.New("component has no start time")
	}
	info, err := recurrenceInfo(comp, start.Location())
	if err != nil {
		return nil, fmt.Errorf("failed to read recurrence properties: %w", err)
	}

	if info.RecurrenceID != nil {
		if !opts.IncludeExceptions || start.After(rangeEnd) || end.Before(rangeStart) {
			return nil, nil
		}
		return []TimeOccurrence{{
			Start:        start,
			End:          end,
			IsException:  true,
			RecurrenceID: info.RecurrenceID,
		}}, nil
	}

	return e.Expand(start, end, info, rangeStart, rangeEnd, opts)
}

// ExpandObject expands the components of one calendar object: a master
// and the overrides sharing its UID. A generated occurrence whose start
// matches an override's RECURRENCE-ID is dropped, even when the override
// itself was moved out of the range; the overrides are merged in when
// opts.IncludeExceptions is set. The result is ordered by start and cut to
// the occurrence limit.
func (e *Engine) ExpandObject(comps []*ical.Component, rangeStart, rangeEnd time.Time, opts ExpansionOptions) ([]TimeOccurrence, error) {
	replaced := make(map[int64]bool)
	var masters, overrides []*ical.Component
	for _, comp := range comps {
		start, _, _ := ExtractBasicTimeInfoFromComponent(comp)
		if info, _ := recurrenceInfo(comp, start.Location()); info.RecurrenceID != nil {
			replaced[info.RecurrenceID.Unix()] = true
			overrides = append(overrides, comp)
			continue
		}
		masters = append(masters, comp)
	}

	limit := opts.MaxOccurrences
	if limit <= 0 {
		limit = e.config.MaxOccurrences
	}
	// Replaced instances still count against the master's limit.
	masterOpts := opts
	if limit > 0 {
		masterOpts.MaxOccurrences = limit + len(overrides)
	}

	var out []TimeOccurrence
	for _, comp := range masters {
		occurrences, err := e.ExpandComponent(comp, rangeStart, rangeEnd, masterOpts)
		if err != nil {
			return nil, err
		}
		for _, o := range occurrences {
			if !replaced[o.Start.Unix()] {
				out = append(out, o)
			}
		}
	}
	for _, comp := range overrides {
		occurrences, err := e.ExpandComponent(comp, rangeStart, rangeEnd, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, occurrences...)
	}
	slices.SortStableFunc(out, func(a, b TimeOccurrence) int {
		return a.Start.Compare(b.Start)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// window builds the occurrence starts whose span overlaps the closed range.
func (e *Engine) window(masterStart, masterEnd time.Time, recurrence RecurrenceInfo, rangeStart, rangeEnd time.Time) (rrule.Sequence, error) {
	set, err := BuildSet(masterStart, recurrence)
	if err != nil {
		return nil, err
	}
	duration := masterEnd.Sub(masterStart)
	iter := set.Iter(rrule.WithMaxSkips(e.maxSkips()), rrule.WithLogger(e.logger))
	return rrule.Before(rrule.After(iter, rangeStart.Add(-duration), true), rangeEnd, true), nil
}

func (e *Engine) maxSkips() int {
	if e.config.MaxSkips > 0 {
		return e.config.MaxSkips
	}
	return rrule.DefaultMaxSkips
}
