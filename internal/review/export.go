package review

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"paddock/internal/store"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatYAML = "yaml"
)

var csvHeader = []string{
	"id", "entity_type", "source", "raw_key", "raw_name", "status", "reason", "total_score",
	"best_candidate_id", "best_candidate_name", "candidate_count",
	"decided_by", "decided_at", "resolved_entity_id", "created_at",
}

// Export writes the pending matches selected by filter to w and returns how
// many were written. An empty format uses the configured default.
func (s *Service) Export(ctx context.Context, w io.Writer, format string, filter store.PendingFilter) (int, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = s.format
	}
	switch format {
	case FormatJSON, FormatCSV, FormatYAML:
	default:
		return 0, fmt.Errorf("unsupported export format %q (want json, csv, or yaml)", format)
	}

	items, err := s.store.ListPending(ctx, filter)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, ErrNoMatches
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(items)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(items)
		if closeErr := enc.Close(); err == nil {
			err = closeErr
		}
	case FormatCSV:
		err = writeCSV(w, items)
	}
	if err != nil {
		return 0, fmt.Errorf("write %s export: %w", format, err)
	}
	return len(items), nil
}

func writeCSV(w io.Writer, items []store.PendingMatch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range items {
		best, _ := p.BestCandidate()
		decidedAt := ""
		if p.DecidedAt != nil {
			decidedAt = p.DecidedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			p.ID,
			string(p.Type),
			p.Source,
			p.RawKey,
			p.RawName,
			string(p.Status),
			p.Reason,
			strconv.FormatFloat(p.TotalScore, 'f', 4, 64),
			best.EntityID,
			best.Name,
			strconv.Itoa(len(p.Candidates)),
			p.DecidedBy,
			decidedAt,
			p.ResolvedEntityID,
			p.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
