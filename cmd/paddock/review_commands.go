package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"paddock/internal/config"
	"paddock/internal/entity"
	"paddock/internal/review"
	"paddock/internal/store"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Inspect and adjudicate pending matches",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewShowCommand(ctx))
	reviewCmd.AddCommand(newReviewApproveCommand(ctx))
	reviewCmd.AddCommand(newReviewRejectCommand(ctx))
	reviewCmd.AddCommand(newReviewBulkApproveCommand(ctx))
	reviewCmd.AddCommand(newReviewExportCommand(ctx))

	return reviewCmd
}

// filterFlags are the pending match filters shared by list and export.
type filterFlags struct {
	typ      string
	status   string
	minScore float64
	limit    int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "Filter by entity type (driver, team, circuit, round)")
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "Filter by status: pending, approved, rejected, or all (default pending)")
	cmd.Flags().Float64Var(&f.minScore, "min-score", 0, "Only include matches with a total score at or above this value")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum number of matches (0 = no limit)")
}

func (f *filterFlags) build(cmd *cobra.Command) (store.PendingFilter, error) {
	var filter store.PendingFilter
	if strings.TrimSpace(f.typ) != "" {
		typ, err := entity.ParseType(f.typ)
		if err != nil {
			return filter, usageError("%v", err)
		}
		filter.Type = typ
	}
	switch status := strings.ToLower(strings.TrimSpace(f.status)); status {
	case "":
	case "all":
		filter.AnyState = true
	default:
		parsed, ok := store.ParsePendingStatus(status)
		if !ok {
			return filter, usageError("unknown status %q (want pending, approved, rejected, or all)", f.status)
		}
		filter.Status = parsed
	}
	if cmd.Flags().Changed("min-score") {
		if f.minScore < 0 || f.minScore > 1 {
			return filter, usageError("--min-score must be within [0, 1], got %v", f.minScore)
		}
		minScore := f.minScore
		filter.MinScore = &minScore
	}
	if f.limit < 0 {
		return filter, usageError("--limit must not be negative")
	}
	filter.Limit = f.limit
	return filter, nil
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.build(cmd)
			if err != nil {
				return err
			}
			return ctx.withReview(func(svc *review.Service, _ *store.Store) error {
				items, err := svc.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					return review.ErrNoMatches
				}
				if asJSON {
					return writeJSON(cmd, items)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Type", "Source", "Raw Name", "Best Candidate", "Score", "Reason", "Status", "Queued"},
					buildPendingRows(items),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print matches as JSON")
	return cmd
}

func buildPendingRows(items []store.PendingMatch) [][]string {
	rows := make([][]string, 0, len(items))
	for _, p := range items {
		best := "-"
		if c, ok := p.BestCandidate(); ok {
			best = c.Name
		}
		rows = append(rows, []string{
			p.ID,
			string(p.Type),
			p.Source,
			p.RawName,
			best,
			formatScore(p.TotalScore),
			p.Reason,
			statusLabel(p.Status),
			formatAge(p.CreatedAt),
		})
	}
	return rows
}

func newReviewShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a pending match with its scored candidates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReview(func(svc *review.Service, _ *store.Store) error {
				p, err := svc.Show(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, p)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderPending(p))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")
	return cmd
}

func renderPending(p *store.PendingMatch) string {
	pairs := [][2]string{
		{"ID", p.ID},
		{"Type", string(p.Type)},
		{"Source", p.Source},
		{"Raw key", p.RawKey},
		{"Raw name", p.RawName},
		{"Reason", p.Reason},
		{"Total score", formatScore(p.TotalScore)},
		{"Status", statusLabel(p.Status)},
		{"Queued", formatAge(p.CreatedAt)},
	}
	if p.Status.Terminal() {
		decided := "-"
		if p.DecidedAt != nil {
			decided = formatAge(*p.DecidedAt)
		}
		pairs = append(pairs,
			[2]string{"Decided by", orDash(p.DecidedBy)},
			[2]string{"Decided", decided},
			[2]string{"Resolved entity", orDash(p.ResolvedEntityID)},
		)
	}

	var b strings.Builder
	b.WriteString(renderKeyValues(pairs))
	for i, c := range p.Candidates {
		fmt.Fprintf(&b, "\nCandidate %d: %s (%s) total %s\n", i+1, c.Name, c.EntityID, formatScore(c.Total))
		rows := make([][]string, 0, len(c.Scores))
		for _, fs := range c.Scores {
			rows = append(rows, []string{fs.Name, formatScore(fs.Weight), formatScore(fs.Score), formatScore(fs.Weighted)})
		}
		b.WriteString(renderTable(
			[]string{"Feature", "Weight", "Score", "Weighted"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		))
	}
	return b.String()
}

func newReviewApproveCommand(ctx *commandContext) *cobra.Command {
	var candidate string
	var actor string

	cmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Merge a pending record into a candidate entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReview(func(svc *review.Service, _ *store.Store) error {
				p, err := svc.Approve(cmd.Context(), args[0], review.ApproveOptions{
					CandidateID: strings.TrimSpace(candidate),
					Actor:       actor,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Approved %s: %s/%s -> %s\n", p.ID, p.Source, p.RawKey, p.ResolvedEntityID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&candidate, "candidate", "", "Entity id to merge into (default: best candidate)")
	cmd.Flags().StringVar(&actor, "actor", "", "Reviewer name recorded with the decision")
	return cmd
}

func newReviewRejectCommand(ctx *commandContext) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Create a new canonical entity from a pending record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReview(func(svc *review.Service, _ *store.Store) error {
				p, created, err := svc.Reject(cmd.Context(), args[0], actor)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s: created %s %q (%s)\n", p.ID, created.Type, created.Name, created.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Reviewer name recorded with the decision")
	return cmd
}

func newReviewBulkApproveCommand(ctx *commandContext) *cobra.Command {
	var typeFlag string
	var actor string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "bulk-approve-above <score>",
		Short: "Approve every pending match with a total score at or above <score>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return usageError("score %q is not a number", args[0])
			}
			var filter store.PendingFilter
			if strings.TrimSpace(typeFlag) != "" {
				typ, err := entity.ParseType(typeFlag)
				if err != nil {
					return usageError("%v", err)
				}
				filter.Type = typ
			}
			return ctx.withReview(func(svc *review.Service, _ *store.Store) error {
				result, err := svc.BulkApproveAbove(cmd.Context(), threshold, filter, actor)
				if err != nil {
					return err
				}
				if asJSON {
					if err := writeJSON(cmd, result); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Approved %s pending matches\n", formatCount(len(result.Approved)))
					ids := make([]string, 0, len(result.Failed))
					for id := range result.Failed {
						ids = append(ids, id)
					}
					sort.Strings(ids)
					for _, id := range ids {
						fmt.Fprintf(out, "  %s: %s\n", id, result.Failed[id])
					}
				}
				if len(result.Failed) > 0 {
					return fmt.Errorf("%d pending matches could not be approved", len(result.Failed))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Restrict to one entity type")
	cmd.Flags().StringVar(&actor, "actor", "", "Reviewer name recorded with the decisions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func newReviewExportCommand(ctx *commandContext) *cobra.Command {
	var filters filterFlags
	var format string

	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Export pending matches as JSON, CSV or YAML (use - for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := filters.build(cmd)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(args[0])
			if target == "" {
				return usageError("export path is required")
			}
			return ctx.withReview(func(svc *review.Service, _ *store.Store) error {
				var buf bytes.Buffer
				n, err := svc.Export(cmd.Context(), &buf, exportFormat(format, target), filter)
				if err != nil {
					if errors.Is(err, review.ErrNoMatches) {
						return err
					}
					return usageError("%v", err)
				}
				if target == "-" {
					_, err := cmd.OutOrStdout().Write(buf.Bytes())
					return err
				}
				path, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create export directory: %w", err)
				}
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s pending matches to %s\n", formatCount(n), path)
				return nil
			})
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format: json, csv, or yaml (default from the file extension or config)")
	return cmd
}

// exportFormat picks the explicit format, then the path extension. An empty
// result defers to the configured default.
func exportFormat(flag, path string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return review.FormatCSV
	case ".yaml", ".yml":
		return review.FormatYAML
	case ".json":
		return review.FormatJSON
	default:
		return ""
	}
}
