package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestContextWithLogger_RoundTrip(t *testing.T) {
	t.Parallel()

	logger := NewLogger(slog.LevelInfo)
	ctx := ContextWithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected the attached logger back, got %v", got)
	}
}

func TestFromContext_MissingLoggerReturnsNil(t *testing.T) {
	t.Parallel()

	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil for a bare context, got %v", got)
	}
	if got := FromContext(nil); got != nil { //nolint:staticcheck
		t.Fatalf("expected nil for a nil context, got %v", got)
	}
}

func TestContextWithLogger_NilLoggerLeavesContextUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := ContextWithLogger(ctx, nil); got != ctx {
		t.Fatalf("expected the original context back")
	}
}
