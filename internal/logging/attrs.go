package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"podpipe/internal/services"
)

// Well-known attribute keys.
const (
	FieldComponent = "component" // printed ahead of the message on the console
	FieldRunID     = "run_id"
	FieldStage     = "stage"
	FieldItemID    = "item_id"
	FieldTitle     = "title"

	FieldEventType    = "event_type"
	FieldErrorHint    = "error_hint"
	FieldImpact       = "impact"
	FieldDecisionType = "decision_type"
)

type Attr = slog.Attr

func String(key, value string) Attr { return slog.String(key, value) }
func Int(key string, value int) Attr { return slog.Int(key, value) }
func Int64(key string, value int64) Attr { return slog.Int64(key, value) }
func Float64(key string, value float64) Attr { return slog.Float64(key, value) }
func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

// Error records err under "error". WarnWithContext and ErrorWithContext add
// the stage and operation of a classified service error.
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attributes into the variadic form slog methods expect.
func Args(attrs ...Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning tagged with eventType. A hint and impact are
// filled in when attrs carry none.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
		String(FieldImpact, "item skipped"),
	)
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error tagged with eventType.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefaults(attrs,
		String(FieldEventType, eventType),
		String(FieldErrorHint, "check logs for details"),
	)
	logger.Error(msg, Args(attrs...)...)
}

// DecisionAttrs builds the attributes every decision log line carries.
func DecisionAttrs(decisionType, result, reason string) []Attr {
	return []Attr{
		String(FieldDecisionType, decisionType),
		String("decision_result", result),
		String("decision_reason", reason),
	}
}

// withDefaults appends each default whose key attrs lack, then the stage and
// operation of any classified error found under "error".
func withDefaults(attrs []Attr, defaults ...Attr) []Attr {
	present := make(map[string]bool, len(attrs))
	var svcErr *services.Error
	for _, a := range attrs {
		present[a.Key] = true
		if a.Key != "error" {
			continue
		}
		if err, ok := a.Value.Any().(error); ok {
			errors.As(err, &svcErr)
		}
	}
	for _, d := range defaults {
		if !present[d.Key] {
			attrs = append(attrs, d)
			present[d.Key] = true
		}
	}
	if svcErr != nil {
		if svcErr.Stage != "" && !present[FieldStage] {
			attrs = append(attrs, String(FieldStage, svcErr.Stage))
		}
		if svcErr.Operation != "" {
			attrs = append(attrs, String("operation", svcErr.Operation))
		}
	}
	return attrs
}

// WithContext returns logger augmented with the run, stage and item carried by
// ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	var fields []any
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, String(FieldRunID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, String(FieldStage, stage))
	}
	if id, ok := services.ItemIDFromContext(ctx); ok {
		fields = append(fields, Int64(FieldItemID, id))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
