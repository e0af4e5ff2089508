package logging

import (
	"context"
	"log/slog"

	"multicam/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized key for the run identifier.
	FieldRunID = "run_id"
	// FieldRound is the standardized key for the capture round sequence number.
	FieldRound = "round"
	// FieldStage is the standardized key for the run stage (initialize, capture, save).
	FieldStage = "stage"
	// FieldCameraSerial identifies the camera by serial number.
	FieldCameraSerial = "camera_serial"
	// FieldCameraLabel identifies the camera by its run label.
	FieldCameraLabel = "camera_label"
	// FieldImageKey identifies a captured image.
	FieldImageKey = "image_key"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint is a short next step for the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if round, ok := services.RoundFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldRound, round))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if serial, ok := services.CameraFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCameraSerial, serial))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.New(discardHandler{})
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
