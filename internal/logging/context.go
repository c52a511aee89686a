package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldProjectID is the standardized structured logging key for project identifiers.
	FieldProjectID = "project_id"
	// FieldImageID is the standardized structured logging key for image identifiers.
	FieldImageID = "image_id"
	// FieldRunID is the standardized structured logging key for export run identifiers.
	FieldRunID = "run_id"
)

type contextKey int

const (
	ctxProjectID contextKey = iota
	ctxImageID
	ctxRunID
)

// WithProjectID stores a project identifier for later log correlation.
func WithProjectID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxProjectID, id)
}

// WithImageID stores an image identifier for later log correlation.
func WithImageID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxImageID, id)
}

// WithRunID stores an export run identifier for later log correlation.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRunID, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := ctx.Value(ctxProjectID).(int64); ok {
		fields = append(fields, slog.Int64(FieldProjectID, id))
	}
	if id, ok := ctx.Value(ctxImageID).(int64); ok {
		fields = append(fields, slog.Int64(FieldImageID, id))
	}
	if id, ok := ctx.Value(ctxRunID).(string); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
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
