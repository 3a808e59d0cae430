// Package favorites keeps the tools a visitor marked, keyed by an anonymous
// visitor id stored in a cookie.
package favorites

import (
	"context"
	"errors"
	"strings"

	"github.com/oklog/ulid/v2"
)

// ErrInvalidID is returned for empty visitor or tool ids.
var ErrInvalidID = errors.New("favorites: visitor and tool id are required")

// Store persists favourite tool ids per visitor.
type Store interface {
	// List returns the visitor's tool ids, most recently added first.
	List(ctx context.Context, visitorID string) ([]string, error)
	Contains(ctx context.Context, visitorID, toolID string) (bool, error)
	// Toggle adds or removes toolID and reports the resulting state.
	Toggle(ctx context.Context, visitorID, toolID string) (bool, error)
}

// NewVisitorID returns a fresh, time-ordered visitor id.
func NewVisitorID() string {
	return ulid.Make().String()
}

// ValidVisitorID reports whether id was produced by NewVisitorID.
func ValidVisitorID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// Set loads the visitor's favourites as a lookup map.
func Set(ctx context.Context, store Store, visitorID string) (map[string]bool, error) {
	ids, err := store.List(ctx, visitorID)
	if err != nil {
		return map[string]bool{}, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func normalizeIDs(visitorID, toolID string) (string, string, error) {
	visitorID = strings.TrimSpace(visitorID)
	toolID = strings.TrimSpace(toolID)
	if visitorID == "" || toolID == "" || strings.Contains(toolID, "/") {
		return "", "", ErrInvalidID
	}
	return visitorID, toolID, nil
}
