package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID identifies one resolve run.
	FieldRunID = "run_id"
	// FieldEntityType is the entity type discriminant (driver, team, circuit, round).
	FieldEntityType = "entity_type"
	// FieldSource names the upstream data source of a raw record.
	FieldSource = "source"
	// FieldRawKey is the source-native record key.
	FieldRawKey = "raw_key"
	FieldEntityID  = "entity_id"
	FieldPendingID = "pending_id"
	// FieldDecision carries matched, created or queued.
	FieldDecision   = "decision"
	FieldTotalScore = "total_score"
	FieldEventType  = "event_type"
	FieldErrorHint  = "error_hint"
)

type contextKey string

const (
	runIDKey      contextKey = "run_id"
	entityTypeKey contextKey = "entity_type"
)

// WithRunID annotates context with the resolve run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok && v != ""
}

// WithEntityType annotates context with the entity type being processed.
func WithEntityType(ctx context.Context, entityType string) context.Context {
	if entityType == "" {
		return ctx
	}
	return context.WithValue(ctx, entityTypeKey, entityType)
}

// EntityTypeFromContext returns the entity type if present.
func EntityTypeFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(entityTypeKey).(string)
	return v, ok && v != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if entityType, ok := EntityTypeFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldEntityType, entityType))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
