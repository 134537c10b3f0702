package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyp0633/librecur/internal/rfc5545"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/rrule"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var timezone string

	cmd := &cobra.Command{
		Use:   "check [rule-set | -]",
		Short: "Validate a recurrence set and print it normalized",
		Long: `Validate a recurrence set and print it normalized.

Rules are written back with every implicit part made explicit, so two
rule sets that describe the same occurrences print the same way.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := rootOpts.options()

			loc, err := location(timezone, cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid time zone", err)
			}
			text, err := readRuleSet(args[0], cmd.InOrStdin())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read rule set", err)
			}
			set, err := recurrence.ParseRuleSet(text, loc)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid rule set", err)
			}
			logger.Debug("rule set is valid", "anchor", set.Anchor())

			lines := normalizedLines(set)
			if cfg.Format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Lines []string `json:"lines"`
				}{lines})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return err
		},
	}

	cmd.Flags().StringVar(&timezone, "tz", "", "zone for floating times (default from configuration)")

	return cmd
}

// normalizedLines writes set back as content lines. The anchor is printed
// as DTSTART only, not repeated as an RDATE.
func normalizedLines(set *rrule.Set) []string {
	anchor := set.Anchor()
	lines := []string{rfc5545.FormatDateTimeProperty("DTSTART", anchor)}
	for _, r := range set.Rules() {
		lines = append(lines, "RRULE:"+rfc5545.FormatRule(r))
	}
	for _, r := range set.ExRules() {
		lines = append(lines, "EXRULE:"+rfc5545.FormatRule(r))
	}
	lines = appendDates(lines, "RDATE", set.RDates(), anchor)
	lines = appendDates(lines, "EXDATE", set.ExDates(), time.Time{})
	return lines
}

func appendDates(lines []string, name string, dates []time.Time, skip time.Time) []string {
	for _, d := range dates {
		if d.Equal(skip) {
			continue
		}
		lines = append(lines, rfc5545.FormatDateTimeProperty(name, d))
	}
	return lines
}
