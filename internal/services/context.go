package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	roundKey  contextKey = "round"
	stageKey  contextKey = "stage"
	cameraKey contextKey = "camera"
)

// WithRunID annotates context with the run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRound annotates context with the capture round sequence number.
func WithRound(ctx context.Context, round int) context.Context {
	return context.WithValue(ctx, roundKey, round)
}

// RoundFromContext extracts the capture round if present.
func RoundFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(roundKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithStage annotates context with the run stage name (initialize, capture, save).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithCamera annotates context with the serial of the camera being serviced.
func WithCamera(ctx context.Context, serial string) context.Context {
	if serial == "" {
		return ctx
	}
	return context.WithValue(ctx, cameraKey, serial)
}

// CameraFromContext returns the camera serial if present.
func CameraFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(cameraKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
