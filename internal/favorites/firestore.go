package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/HowestAILab/AIUPD8-Website/internal/platform/firestore"
)

const favoriteCollectionPattern = "visitors/%s/favorites"

// FirestoreStore persists favourites under visitors/{visitorId}/favorites/{toolId}.
type FirestoreStore struct {
	provider *pfirestore.Provider
	now      func() time.Time
}

func NewFirestoreStore(provider *pfirestore.Provider) (*FirestoreStore, error) {
	if provider == nil {
		return nil, errors.New("favorites: firestore store requires a provider")
	}
	return &FirestoreStore{provider: provider, now: func() time.Time { return time.Now().UTC() }}, nil
}

type favoriteDocument struct {
	ToolID  string    `firestore:"toolId"`
	AddedAt time.Time `firestore:"addedAt"`
}

func (s *FirestoreStore) List(ctx context.Context, visitorID string) ([]string, error) {
	coll, err := s.collection(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	iter := coll.OrderBy("addedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var out []string
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("favorites.list", err)
		}
		var doc favoriteDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode favorite %s: %w", snap.Ref.ID, err)
		}
		id := doc.ToolID
		if id == "" {
			id = snap.Ref.ID
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *FirestoreStore) Contains(ctx context.Context, visitorID, toolID string) (bool, error) {
	visitorID, toolID, err := normalizeIDs(visitorID, toolID)
	if err != nil {
		return false, err
	}
	coll, err := s.collection(ctx, visitorID)
	if err != nil {
		return false, err
	}
	if _, err := coll.Doc(toolID).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, pfirestore.WrapError("favorites.contains", err)
	}
	return true, nil
}

func (s *FirestoreStore) Toggle(ctx context.Context, visitorID, toolID string) (bool, error) {
	visitorID, toolID, err := normalizeIDs(visitorID, toolID)
	if err != nil {
		return false, err
	}
	coll, err := s.collection(ctx, visitorID)
	if err != nil {
		return false, err
	}

	added := false
	err = s.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := coll.Doc(toolID)
		if _, err := tx.Get(ref); err == nil {
			added = false
			return tx.Delete(ref)
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		added = true
		return tx.Set(ref, favoriteDocument{ToolID: toolID, AddedAt: s.now()})
	})
	if err != nil {
		return false, pfirestore.WrapError("favorites.toggle", err)
	}
	return added, nil
}

func (s *FirestoreStore) collection(ctx context.Context, visitorID string) (*firestore.CollectionRef, error) {
	vid := strings.TrimSpace(visitorID)
	if vid == "" || strings.Contains(vid, "/") {
		return nil, ErrInvalidID
	}
	client, err := s.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(favoriteCollectionPattern, vid)), nil
}

var _ Store = (*FirestoreStore)(nil)
