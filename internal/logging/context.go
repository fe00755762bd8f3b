package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldApplicationID is the standardized structured logging key for application identifiers.
	FieldApplicationID = "application_id"
	// FieldStageID is the standardized structured logging key for stage identifiers.
	FieldStageID = "stage_id"
	// FieldDepartment is the standardized structured logging key for department identifiers.
	FieldDepartment = "department"
	// FieldActor is the standardized structured logging key for the deciding actor.
	FieldActor = "actor"
	// FieldEventType is the standardized structured logging key for event classification.
	FieldEventType = "event_type"
	// FieldRequestID is the standardized structured logging key for request correlation identifiers.
	FieldRequestID = "request_id"
)

type contextKey string

const (
	applicationIDKey contextKey = "application_id"
	departmentKey    contextKey = "department"
	requestIDKey     contextKey = "request_id"
)

// WithApplicationID stores the application identifier in the context.
func WithApplicationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, applicationIDKey, id)
}

// WithDepartment stores the department identifier in the context.
func WithDepartment(ctx context.Context, department string) context.Context {
	return context.WithValue(ctx, departmentKey, department)
}

// WithRequestID stores the request correlation identifier in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := ctx.Value(applicationIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldApplicationID, id))
	}
	if department, ok := ctx.Value(departmentKey).(string); ok && department != "" {
		fields = append(fields, slog.String(FieldDepartment, department))
	}
	if rid, ok := ctx.Value(requestIDKey).(string); ok && rid != "" {
		fields = append(fields, slog.String(FieldRequestID, rid))
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
	return logger.With(attrsToArgs(fields)...)
}
