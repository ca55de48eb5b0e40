package catalog

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Service owns the catalog rules: names are unique and updates are partial
// merges. It keeps no state of its own; concurrent use is safe as long as the
// Store is.
type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// Ready reports whether the underlying store can serve requests.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) List(ctx context.Context) ([]BoardGame, error) {
	return s.store.FindAll(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (BoardGame, bool, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, name string) (BoardGame, bool, error) {
	return s.store.FindByName(ctx, name)
}

// Search matches keyword against name and description, ignoring case. The
// keyword is passed to the store as is, so an empty keyword matches everything.
func (s *Service) Search(ctx context.Context, keyword string) ([]BoardGame, error) {
	return s.store.FindByKeyword(ctx, keyword)
}

// ForPlayers lists games whose player range includes players.
func (s *Service) ForPlayers(ctx context.Context, players int) ([]BoardGame, error) {
	return s.store.FindByPlayerCount(ctx, players)
}

func (s *Service) Create(ctx context.Context, candidate BoardGame) (BoardGame, error) {
	if _, taken, err := s.store.FindByName(ctx, candidate.Name); err != nil {
		return BoardGame{}, err
	} else if taken {
		return BoardGame{}, s.duplicate(candidate.Name, OpCreate)
	}

	candidate.ID = 0
	saved, err := s.store.Save(ctx, candidate)
	if errors.Is(err, ErrNameConflict) {
		return BoardGame{}, s.duplicate(candidate.Name, OpCreate)
	}
	if err != nil {
		return BoardGame{}, err
	}

	s.log.Info("board game created", zap.Int64("id", saved.ID), zap.String("name", saved.Name))
	return saved, nil
}

// Update merges patch over the game with the given id. ok is false when no
// such game exists; nothing is written in that case.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (BoardGame, bool, error) {
	existing, found, err := s.findForWrite(ctx, id)
	if err != nil || !found {
		return BoardGame{}, false, err
	}

	merged := patch.ApplyTo(existing)

	if name, ok := patch.Name.Get(); ok {
		other, taken, err := s.store.FindByName(ctx, name)
		if err != nil {
			return BoardGame{}, false, err
		}
		if taken && other.ID != id {
			return BoardGame{}, false, s.duplicate(name, OpUpdate)
		}
	}

	saved, err := s.store.Save(ctx, merged)
	switch {
	case errors.Is(err, ErrNameConflict):
		return BoardGame{}, false, s.duplicate(merged.Name, OpUpdate)
	case errors.Is(err, ErrGameMissing):
		// deleted between the lookup and the write
		return BoardGame{}, false, nil
	case err != nil:
		return BoardGame{}, false, err
	}

	s.log.Info("board game updated", zap.Int64("id", saved.ID))
	return saved, true, nil
}

// Delete removes the game and reports whether it existed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	exists, err := s.store.ExistsByID(ctx, id)
	if err != nil || !exists {
		return false, err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return false, err
	}

	s.log.Info("board game deleted", zap.Int64("id", id))
	return true, nil
}

// directReader is implemented by stores that may answer FindByID from a
// cache. An update must merge over the authoritative row.
type directReader interface {
	FindByIDDirect(ctx context.Context, id int64) (BoardGame, bool, error)
}

func (s *Service) findForWrite(ctx context.Context, id int64) (BoardGame, bool, error) {
	if d, ok := s.store.(directReader); ok {
		return d.FindByIDDirect(ctx, id)
	}
	return s.store.FindByID(ctx, id)
}

func (s *Service) duplicate(name string, op Op) error {
	s.log.Info("board game name rejected",
		zap.String("name", name),
		zap.String("op", string(op)),
	)
	return &DuplicateNameError{Name: name, Op: op}
}
