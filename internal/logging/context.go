package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAsset is the standardized structured logging key for the video asset path.
	FieldAsset = "asset"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldLanguage is the standardized structured logging key for subtitle language codes.
	FieldLanguage = "language"
	// FieldProvider is the standardized structured logging key for subtitle provider names.
	FieldProvider = "provider"
	// FieldRunID is the standardized structured logging key for run correlation identifiers.
	FieldRunID = "run_id"
	// FieldEventType labels machine-consumable log events.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next diagnostic step for a failure.
	FieldErrorHint = "error_hint"
)

type contextKey string

const (
	ctxAsset contextKey = "asset"
	ctxStage contextKey = "stage"
	ctxRunID contextKey = "run_id"
)

// WithAsset attaches the asset path to the context for log enrichment.
func WithAsset(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxAsset, path)
}

// WithStage attaches the active pipeline stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, ctxStage, stage)
}

// WithRunID attaches the run correlation identifier to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRunID, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var fields []slog.Attr
	if asset, ok := ctx.Value(ctxAsset).(string); ok && asset != "" {
		fields = append(fields, slog.String(FieldAsset, asset))
	}
	if stage, ok := ctx.Value(ctxStage).(string); ok && stage != "" {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if id, ok := ctx.Value(ctxRunID).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger enriched with any context-carried fields.
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
