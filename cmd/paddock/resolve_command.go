package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/ingest"
	"paddock/internal/resolver"
	"paddock/internal/store"
)

type resolveOutput struct {
	Summary   ingest.Summary      `json:"summary"`
	Decisions []resolver.Decision `json:"decisions"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var (
		typeFlag     string
		sourceFlag   string
		strategyFlag string
		asJSON       bool
		progress     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <file>...",
		Short: "Resolve raw record files into canonical entities",
		Long: "Reads JSON, NDJSON/JSONL or YAML record files and decides for each record whether it\n" +
			"matches an existing entity, creates a new one, or is queued for review.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := ingest.Defaults{Source: strings.TrimSpace(sourceFlag)}
			if strings.TrimSpace(typeFlag) != "" {
				typ, err := entity.ParseType(typeFlag)
				if err != nil {
					return usageError("%v", err)
				}
				defaults.Type = typ
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				strategyValue := strategyFlag
				if strings.TrimSpace(strategyValue) == "" {
					strategyValue = cfg.Ingest.Strategy
				}
				strategy, err := resolver.ParseStrategy(strategyValue)
				if err != nil {
					return usageError("%v", err)
				}

				var records []entity.Record
				for _, path := range args {
					recs, err := ingest.ReadRecords(path, defaults)
					if err != nil {
						return usageError("%v", err)
					}
					records = append(records, recs...)
				}

				res, err := newResolver(cfg, logger)
				if err != nil {
					return err
				}
				runner := ingest.NewRunner(res, st, logger)

				opts := ingest.Options{Strategy: strategy}
				if progress || cfg.Ingest.Progress {
					opts.Progress = progressWriter(cmd)
				}
				var (
					mu        sync.Mutex
					decisions []resolver.Decision
				)
				if asJSON {
					opts.OnDecision = func(d resolver.Decision) {
						mu.Lock()
						decisions = append(decisions, d)
						mu.Unlock()
					}
				}

				summary, runErr := runner.Run(cmd.Context(), records, opts)
				if asJSON {
					sortDecisions(decisions)
					if err := writeJSON(cmd, resolveOutput{Summary: summary, Decisions: decisions}); err != nil {
						return err
					}
					return runErr
				}
				fmt.Fprint(cmd.OutOrStdout(), renderRunSummary(summary))
				return runErr
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Entity type for records that omit one (driver, team, circuit, round)")
	cmd.Flags().StringVarP(&sourceFlag, "source", "s", "", "Source name for records that omit one (defaults to the file name)")
	cmd.Flags().StringVar(&strategyFlag, "strategy", "", "Resolution strategy: scored or exact (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary and every decision as JSON")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a progress bar on a terminal")
	return cmd
}

// sortDecisions orders decisions by entity type; records of one type keep
// their input order.
func sortDecisions(decisions []resolver.Decision) {
	order := entity.AllTypes()
	slices.SortStableFunc(decisions, func(a, b resolver.Decision) int {
		return slices.Index(order, a.EntityType) - slices.Index(order, b.EntityType)
	})
}

func renderRunSummary(summary ingest.Summary) string {
	rows := make([][]string, 0, len(summary.Types)+1)
	for _, ts := range summary.Types {
		rows = append(rows, summaryRow(string(ts.Type), ts))
	}
	if len(summary.Types) > 1 {
		rows = append(rows, summaryRow("total", summary.Totals()))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished in %s\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	if len(rows) > 0 {
		b.WriteString(renderTable(
			[]string{"Type", "Records", outcomeLabel(resolver.OutcomeMatched), outcomeLabel(resolver.OutcomeCreated), outcomeLabel(resolver.OutcomeQueued), "Skipped"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
	} else {
		b.WriteString("No records to resolve\n")
	}
	if summary.Invalid > 0 {
		fmt.Fprintf(&b, "%s records skipped with an unknown entity type\n", formatCount(summary.Invalid))
	}
	return b.String()
}

func summaryRow(label string, ts ingest.TypeSummary) []string {
	return []string{
		label,
		formatCount(ts.Records),
		formatCount(ts.Matched),
		formatCount(ts.Created),
		formatCount(ts.Queued),
		formatCount(ts.Skipped),
	}
}
