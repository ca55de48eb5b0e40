package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type MemStore struct {
	mu     sync.RWMutex
	m      map[int64]BoardGame
	nextID int64
	now    func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		m:   map[int64]BoardGame{},
		now: time.Now,
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) FindAll(ctx context.Context) ([]BoardGame, error) {
	return s.filter(func(BoardGame) bool { return true }), nil
}

func (s *MemStore) FindByID(ctx context.Context, id int64) (BoardGame, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.m[id]
	return g.clone(), ok, nil
}

func (s *MemStore) FindByName(ctx context.Context, name string) (BoardGame, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if g, ok := s.byNameLocked(name); ok {
		return g.clone(), true, nil
	}
	return BoardGame{}, false, nil
}

func (s *MemStore) FindByKeyword(ctx context.Context, keyword string) ([]BoardGame, error) {
	kw := strings.ToLower(keyword)
	return s.filter(func(g BoardGame) bool {
		return strings.Contains(strings.ToLower(g.Name), kw) ||
			strings.Contains(strings.ToLower(g.Description), kw)
	}), nil
}

func (s *MemStore) FindByPlayerCount(ctx context.Context, players int) ([]BoardGame, error) {
	return s.filter(func(g BoardGame) bool {
		return g.MinPlayers != nil && g.MaxPlayers != nil &&
			*g.MinPlayers <= players && *g.MaxPlayers >= players
	}), nil
}

func (s *MemStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.m[id]
	return ok, nil
}

// Save checks name uniqueness under the write lock, so two concurrent inserts
// of the same name cannot both succeed.
func (s *MemStore) Save(ctx context.Context, g BoardGame) (BoardGame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if other, ok := s.byNameLocked(g.Name); ok && other.ID != g.ID {
		return BoardGame{}, ErrNameConflict
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	g = g.clone()

	if g.Persisted() {
		prev, ok := s.m[g.ID]
		if !ok {
			return BoardGame{}, ErrGameMissing
		}
		g.CreatedAt = prev.CreatedAt
		if !now.After(prev.UpdatedAt) {
			now = prev.UpdatedAt.Add(time.Microsecond)
		}
		g.UpdatedAt = now
	} else {
		s.nextID++
		g.ID = s.nextID
		g.CreatedAt = now
		g.UpdatedAt = now
	}

	s.m[g.ID] = g
	return g.clone(), nil
}

func (s *MemStore) DeleteByID(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, id)
	return nil
}

func (s *MemStore) byNameLocked(name string) (BoardGame, bool) {
	for _, g := range s.m {
		if g.Name == name {
			return g, true
		}
	}
	return BoardGame{}, false
}

func (s *MemStore) filter(keep func(BoardGame) bool) []BoardGame {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BoardGame, 0, len(s.m))
	for _, g := range s.m {
		if keep(g) {
			out = append(out, g.clone())
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
