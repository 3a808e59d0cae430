package firestore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gfirestore "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/HowestAILab/AIUPD8-Website/internal/platform/config"
)

func TestWrapErrorClassifies(t *testing.T) {
	if err := WrapError("op", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	notFound := WrapError("favorites.get", status.Error(codes.NotFound, "nope"))
	if !IsNotFound(notFound) || IsUnavailable(notFound) {
		t.Fatalf("expected not found classification, got %v", notFound)
	}
	unavailable := WrapError("favorites.set", status.Error(codes.Unavailable, "down"))
	if !IsUnavailable(fmt.Errorf("wrapped: %w", unavailable)) {
		t.Fatalf("expected unavailable classification")
	}
	if got := WrapError("op", status.Error(codes.DeadlineExceeded, "slow")); !errors.Is(got, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", got)
	}
	if got := WrapError("op", context.Canceled); !errors.Is(got, context.Canceled) {
		t.Fatalf("expected canceled passthrough, got %v", got)
	}
}

func TestProviderRequiresProject(t *testing.T) {
	t.Setenv(envGoogleProjectID, "")
	p := NewProvider(config.FirestoreConfig{})
	if _, err := p.Client(context.Background()); err == nil {
		t.Fatalf("expected project id error")
	}
}

func TestProviderClosed(t *testing.T) {
	p := NewProvider(config.FirestoreConfig{ProjectID: "demo"})
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := p.Client(context.Background()); !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}

func TestRunTransactionRejectsNilFunc(t *testing.T) {
	p := NewProvider(config.FirestoreConfig{ProjectID: "demo"})
	if err := p.RunTransaction(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil transaction function")
	}
	_ = p.Close()
	err := p.RunTransaction(context.Background(), func(context.Context, *gfirestore.Transaction) error { return nil })
	if !errors.Is(err, ErrProviderClosed) {
		t.Fatalf("expected ErrProviderClosed, got %v", err)
	}
}
