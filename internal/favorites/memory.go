package favorites

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps favourites in process memory. It backs local
// development and tests; contents are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	seq      uint64
	visitors map[string]map[string]uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{visitors: map[string]map[string]uint64{}}
}

func (s *MemoryStore) List(_ context.Context, visitorID string) ([]string, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return nil, ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tools := s.visitors[visitorID]
	out := make([]string, 0, len(tools))
	for id := range tools {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return tools[out[i]] > tools[out[j]] })
	return out, nil
}

func (s *MemoryStore) Contains(_ context.Context, visitorID, toolID string) (bool, error) {
	visitorID, toolID, err := normalizeIDs(visitorID, toolID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.visitors[visitorID][toolID]
	return ok, nil
}

func (s *MemoryStore) Toggle(_ context.Context, visitorID, toolID string) (bool, error) {
	visitorID, toolID, err := normalizeIDs(visitorID, toolID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tools := s.visitors[visitorID]
	if _, ok := tools[toolID]; ok {
		delete(tools, toolID)
		if len(tools) == 0 {
			delete(s.visitors, visitorID)
		}
		return false, nil
	}
	if tools == nil {
		tools = map[string]uint64{}
		s.visitors[visitorID] = tools
	}
	s.seq++
	tools[toolID] = s.seq
	return true, nil
}

var _ Store = (*MemoryStore)(nil)
