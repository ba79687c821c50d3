package context_test

import (
	"context"
	"testing"

	context_ "github.com/mkrupp/homecase-gameapp/internal/infra/context"
)

func TestTraceID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, ok := context_.TraceIDFromContext(ctx); ok {
		t.Fatal("expected no trace id on empty context")
	}

	ctx = context_.WithTraceID(ctx, "abc")

	if got, ok := context_.TraceIDFromContext(ctx); !ok || got != "abc" {
		t.Errorf("TraceIDFromContext() = %q, %v, want %q, true", got, ok, "abc")
	}
}

func TestSessionUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	if _, ok := context_.SessionUserFromContext(ctx); ok {
		t.Fatal("expected no session user on empty context")
	}

	ctx = context_.WithSessionUser(ctx, 7, "alice")

	user, ok := context_.SessionUserFromContext(ctx)
	if !ok {
		t.Fatal("expected session user")
	}

	if user.ID != 7 || user.Username != "alice" {
		t.Errorf("SessionUserFromContext() = %+v", user)
	}
}
