package services_test

import (
	"context"
	"testing"

	"multicam/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithRound(ctx, 4)
	ctx = services.WithStage(ctx, "capture")
	ctx = services.WithCamera(ctx, "18407214")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if round, ok := services.RoundFromContext(ctx); !ok || round != 4 {
		t.Fatalf("unexpected round: %v %v", round, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "capture" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if serial, ok := services.CameraFromContext(ctx); !ok || serial != "18407214" {
		t.Fatalf("unexpected camera: %v %v", serial, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	ctx = services.WithCamera(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id")
	}
	if _, ok := services.CameraFromContext(ctx); ok {
		t.Fatal("expected no camera")
	}
	if _, ok := services.RoundFromContext(ctx); ok {
		t.Fatal("expected no round")
	}
}
