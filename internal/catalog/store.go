package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNameConflict is returned by a Store when a save would give two games the same name.
	ErrNameConflict = errors.New("board game name conflict")
	// ErrGameMissing is returned by Save when asked to overwrite an id that no longer exists.
	ErrGameMissing = errors.New("board game no longer exists")
)

type BoardGame struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	MinPlayers      *int      `json:"minPlayers"`
	MaxPlayers      *int      `json:"maxPlayers"`
	PlayTimeMinutes *int      `json:"playTimeMinutes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Persisted reports whether storage has assigned an id.
func (g BoardGame) Persisted() bool { return g.ID != 0 }

// Store is the persistence boundary of the catalog. Implementations must be
// safe for concurrent use.
//
// Save inserts when g.ID is zero and overwrites the record with that id
// otherwise. Inserts set CreatedAt and UpdatedAt to the same instant; updates
// keep CreatedAt and move UpdatedAt strictly forward. Ids are never reused:
// overwriting a deleted id fails with ErrGameMissing.
type Store interface {
	Ping(ctx context.Context) error

	FindAll(ctx context.Context) ([]BoardGame, error)
	FindByID(ctx context.Context, id int64) (BoardGame, bool, error)
	FindByName(ctx context.Context, name string) (BoardGame, bool, error)
	FindByKeyword(ctx context.Context, keyword string) ([]BoardGame, error)
	FindByPlayerCount(ctx context.Context, players int) ([]BoardGame, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)

	Save(ctx context.Context, g BoardGame) (BoardGame, error)
	DeleteByID(ctx context.Context, id int64) error
}

func intPtr(v int) *int { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	return intPtr(*p)
}

// clone returns a copy that shares no pointers with g.
func (g BoardGame) clone() BoardGame {
	g.MinPlayers = cloneInt(g.MinPlayers)
	g.MaxPlayers = cloneInt(g.MaxPlayers)
	g.PlayTimeMinutes = cloneInt(g.PlayTimeMinutes)
	return g
}
