package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/cyp0633/librecur/internal/config"
	"github.com/cyp0633/librecur/internal/httpclient"
	"github.com/cyp0633/librecur/internal/render"
	"github.com/cyp0633/librecur/internal/rfc5545"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/rrule"
)

// ExpandOptions holds the flags of the expand command.
type ExpandOptions struct {
	ICSPath  string
	After    string
	Before   string
	Count    int
	Timezone string
}

// NewExpandCommand creates the expand command.
func NewExpandCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExpandOptions{}

	cmd := &cobra.Command{
		Use:   "expand [rule-set | -]",
		Short: "Print the occurrences of a recurrence set",
		Long: `Print the occurrences of a recurrence set.

The set is given as iCalendar content lines, for example

  recur expand 'DTSTART;TZID=America/New_York:19970902T090000
  RRULE:FREQ=WEEKLY;COUNT=10;BYDAY=TU,TH'

A literal "\n" also separates lines, and "-" reads the set from standard
input. Occurrences are kept when after <= start < before.

With --ics, every VEVENT and VTODO of a calendar file or feed URL is
expanded instead. Overrides replace the instances they stand for, and an
occurrence is kept when it overlaps the window.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(rootOpts, opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.ICSPath, "ics", "", "expand the events of an iCalendar file or http(s) URL")
	cmd.Flags().StringVar(&opts.After, "after", "", "window start (RFC 3339 or iCalendar DATE-TIME)")
	cmd.Flags().StringVar(&opts.Before, "before", "", "window end (RFC 3339 or iCalendar DATE-TIME)")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 0, "maximum number of occurrences (default from configuration)")
	cmd.Flags().StringVar(&opts.Timezone, "tz", "", "zone for floating times (default from configuration)")

	return cmd
}

// window is an optional [after, before) bound pair.
type window struct {
	after  mo.Option[time.Time]
	before mo.Option[time.Time]
}

func runExpand(rootOpts *RootOptions, opts *ExpandOptions, cmd *cobra.Command, args []string) error {
	cfg, logger := rootOpts.options()

	loc, err := location(opts.Timezone, cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid time zone", err)
	}
	w, err := parseWindow(opts.After, opts.Before, loc)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid window", err)
	}
	limit := opts.Count
	if limit <= 0 {
		limit = cfg.MaxOccurrences
	}
	if limit <= 0 {
		limit = rrule.DefaultLimit
	}

	var exps []render.Expansion
	switch {
	case opts.ICSPath != "" && len(args) > 0:
		return WrapExitError(ExitCommandError, "give either a rule set or --ics, not both", nil)
	case opts.ICSPath != "":
		exps, err = expandCalendar(opts.ICSPath, cfg, logger, w, limit)
	case len(args) == 1:
		var exp render.Expansion
		exp, err = expandRuleSet(args[0], cmd.InOrStdin(), loc, cfg, logger, w, limit)
		exps = []render.Expansion{exp}
	default:
		return WrapExitError(ExitCommandError, "a rule set or --ics is required", nil)
	}
	if err != nil {
		return err
	}

	enc := render.NewEncoder(cmd.OutOrStdout())
	if err := enc.Encode(cfg.Format, exps); err != nil {
		return WrapExitError(ExitFailure, "failed to write output", err)
	}
	return nil
}

func expandRuleSet(arg string, stdin io.Reader, loc *time.Location, cfg config.Config, logger *slog.Logger, w window, limit int) (render.Expansion, error) {
	text, err := readRuleSet(arg, stdin)
	if err != nil {
		return render.Expansion{}, WrapExitError(ExitCommandError, "failed to read rule set", err)
	}
	set, err := recurrence.ParseRuleSet(text, loc)
	if err != nil {
		return render.Expansion{}, WrapExitError(ExitCommandError, "invalid rule set", err)
	}

	var seq rrule.Sequence = set.Iter(rrule.WithMaxSkips(cfg.MaxSkips), rrule.WithLogger(logger))
	if after, ok := w.after.Get(); ok {
		seq = rrule.After(seq, after, true)
	}
	if before, ok := w.before.Get(); ok {
		seq = rrule.Before(seq, before, false)
	}

	dates, more, err := rrule.Collect(seq, limit)
	if err != nil {
		return render.Expansion{}, expansionError(err)
	}
	logger.Debug("rule set expanded",
		"anchor", set.Anchor(),
		"rules", len(set.Rules()),
		"occurrences", len(dates),
		"limited", more)

	occurrences := make([]recurrence.TimeOccurrence, len(dates))
	for i, d := range dates {
		occurrences[i] = recurrence.TimeOccurrence{Start: d, End: d}
	}
	return render.Expansion{Occurrences: occurrences, Limited: more}, nil
}

func expandCalendar(path string, cfg config.Config, logger *slog.Logger, w window, limit int) ([]render.Expansion, error) {
	cal, err := loadCalendar(path, cfg.Feed, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load calendar", err)
	}

	engine := recurrence.NewEngineWithConfig(cfg.EngineConfig(), recurrence.WithLogger(logger))
	defer engine.Close()

	rangeStart := w.after.OrElse(time.Time{})
	rangeEnd := w.before.OrElse(rrule.EndOfDay(rrule.MaxYear, time.December, 31, time.UTC))
	opts := recurrence.ExpansionOptions{
		// One extra occurrence tells whether the limit cut the expansion.
		MaxOccurrences:    limit + 1,
		IncludeExceptions: true,
	}

	var exps []render.Expansion
	for _, obj := range groupByUID(cal, logger) {
		occurrences, err := engine.ExpandObject(obj.comps, rangeStart, rangeEnd, opts)
		if err != nil {
			return nil, expansionError(fmt.Errorf("%s: %w", obj.uid, err))
		}
		exp := render.Expansion{UID: obj.uid, Summary: obj.summary, Occurrences: occurrences}
		if len(occurrences) > limit {
			exp.Occurrences = occurrences[:limit]
			exp.Limited = true
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

// loadCalendar reads a calendar from a file, or downloads it when source is
// an http or https URL.
func loadCalendar(source string, feed config.FeedConfig, logger *slog.Logger) (*ical.Calendar, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		httpClient := &http.Client{Timeout: feed.Timeout}
		if feed.Username != "" {
			httpClient.Transport = httpclient.NewBasicAuthTransport(feed.Username, feed.Password, nil, logger)
		}
		client, err := httpclient.NewCalendarClient(httpClient, *u, logger)
		if err != nil {
			return nil, err
		}
		cal, err := client.GetCalendar(u.String())
		if err != nil {
			return nil, err
		}
		logger.Debug("calendar downloaded", "url", u.Redacted(), "etag", cal.ETag)
		return cal.Calendar, nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ical.NewDecoder(f).Decode()
}

type calendarObject struct {
	uid     string
	summary string
	comps   []*ical.Component
}

// groupByUID collects the VEVENT and VTODO components of cal into calendar
// objects, in order of first appearance. Components without a start are
// skipped.
func groupByUID(cal *ical.Calendar, logger *slog.Logger) []*calendarObject {
	var objects []*calendarObject
	byUID := make(map[string]*calendarObject)

	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent && comp.Name != ical.CompToDo {
			continue
		}
		uid, _ := comp.Props.Text(ical.PropUID)
		if _, _, ok := recurrence.ExtractBasicTimeInfoFromComponent(comp); !ok {
			logger.Warn("skipping component without a start", "uid", uid, "component", comp.Name)
			continue
		}

		obj, ok := byUID[uid]
		if !ok || uid == "" {
			obj = &calendarObject{uid: uid}
			objects = append(objects, obj)
			byUID[uid] = obj
		}
		if comp.Props.Get("RECURRENCE-ID") == nil {
			obj.summary, _ = comp.Props.Text(ical.PropSummary)
		}
		obj.comps = append(obj.comps, comp)
	}
	return objects
}

func readRuleSet(arg string, stdin io.Reader) (string, error) {
	if arg == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	return strings.ReplaceAll(arg, `\n`, "\n"), nil
}

func location(name string, cfg config.Config) (*time.Location, error) {
	if name == "" {
		return cfg.Location()
	}
	return time.LoadLocation(name)
}

func parseWindow(after, before string, loc *time.Location) (window, error) {
	var w window
	if after != "" {
		t, err := parseBound(after, loc)
		if err != nil {
			return w, fmt.Errorf("--after: %w", err)
		}
		w.after = mo.Some(t)
	}
	if before != "" {
		t, err := parseBound(before, loc)
		if err != nil {
			return w, fmt.Errorf("--before: %w", err)
		}
		w.before = mo.Some(t)
	}
	return w, nil
}

func parseBound(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return rfc5545.ParseDateTime(value, loc, "")
}

// expansionError maps engine failures onto exit codes: a tripped loop guard
// is a failure of the run, anything else a problem with the input.
func expansionError(err error) error {
	if rrule.IsKind(err, rrule.ErrGenerationLimit) {
		return WrapExitError(ExitFailure, "expansion aborted", err)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return WrapExitError(ExitCommandError, "expansion failed", err)
}
