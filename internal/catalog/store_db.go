package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

//go:embed schema.sql
var schemaSQL string

const selectColumns = `
	SELECT id, name, description, min_players, max_players, play_time_minutes, created_at, updated_at
	FROM board_games`

type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("gameshelf/catalog"),
	}
}

// EnsureSchema creates the board_games table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create board_games schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]BoardGame, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.store.find_all")
	defer span.End()

	return s.query(ctx, span, selectColumns+` ORDER BY id ASC`)
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (BoardGame, bool, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.store.find_by_id",
		trace.WithAttributes(attribute.Int64("game.id", id)),
	)
	defer span.End()

	return s.queryOne(ctx, span, selectColumns+` WHERE id = $1`, id)
}

func (s *PostgresStore) FindByName(ctx context.Context, name string) (BoardGame, bool, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.store.find_by_name")
	defer span.End()

	return s.queryOne(ctx, span, selectColumns+` WHERE name = $1`, name)
}

// FindByKeyword uses strpos rather than LIKE so that % and _ in the keyword
// match literally.
func (s *PostgresStore) FindByKeyword(ctx context.Context, keyword string) ([]BoardGame, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.store.find_by_keyword",
		trace.WithAttributes(attribute.Int("keyword.len", len(keyword))),
	)
	defer span.End()

	return s.query(ctx, span, selectColumns+`
		WHERE strpos(lower(name), lower($1)) > 0
		   OR strpos(lower(description), lower($1)) > 0
		ORDER BY id ASC`, keyword)
}

func (s *PostgresStore) FindByPlayerCount(ctx context.Context, players int) ([]BoardGame, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.store.find_by_player_count",
		trace.WithAttributes(attribute.Int("players", players)),
	)
	defer span.End()

	return s.query(ctx, span, selectColumns+`
		WHERE min_players <= $1 AND max_players >= $1
		ORDER BY id ASC`, players)
}

func (s *PostgresStore) ExistsByID(ctx context.Context, id int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.store.exists_by_id",
		trace.WithAttributes(attribute.Int64("game.id", id)),
	)
	defer span.End()

	var exists bool
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM board_games WHERE id = $1)`, id,
		).Scan(&exists)
	})
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("exists board game %d: %w", id, err)
	}
	return exists, nil
}

func (s *PostgresStore) Save(ctx context.Context, g BoardGame) (BoardGame, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.store.save",
		trace.WithAttributes(
			attribute.Int64("game.id", g.ID),
			attribute.Bool("insert", !g.Persisted()),
		),
	)
	defer span.End()

	var err error
	if g.Persisted() {
		g, err = s.update(ctx, g)
	} else {
		g, err = s.insert(ctx, g)
	}

	switch {
	case err == nil:
		return g, nil
	case isUniqueViolation(err):
		span.SetAttributes(attribute.Bool("conflict.detected", true))
		return BoardGame{}, ErrNameConflict
	case errors.Is(err, ErrGameMissing):
		return BoardGame{}, err
	default:
		span.RecordError(err)
		return BoardGame{}, fmt.Errorf("save board game: %w", err)
	}
}

func (s *PostgresStore) insert(ctx context.Context, g BoardGame) (BoardGame, error) {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			INSERT INTO board_games
			  (name, description, min_players, max_players, play_time_minutes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			RETURNING id, created_at, updated_at
		`, g.Name, g.Description, g.MinPlayers, g.MaxPlayers, g.PlayTimeMinutes,
		).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	})
	return g, err
}

// update keeps updated_at strictly increasing even when the clock has not
// advanced past the previous write.
func (s *PostgresStore) update(ctx context.Context, g BoardGame) (BoardGame, error) {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			UPDATE board_games
			SET name = $2,
			    description = $3,
			    min_players = $4,
			    max_players = $5,
			    play_time_minutes = $6,
			    updated_at = GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')
			WHERE id = $1
			RETURNING created_at, updated_at
		`, g.ID, g.Name, g.Description, g.MinPlayers, g.MaxPlayers, g.PlayTimeMinutes,
		).Scan(&g.CreatedAt, &g.UpdatedAt)
	})
	if err == sql.ErrNoRows {
		return BoardGame{}, ErrGameMissing
	}
	return g, err
}

func (s *PostgresStore) DeleteByID(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "catalog.store.delete_by_id",
		trace.WithAttributes(attribute.Int64("game.id", id)),
	)
	defer span.End()

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM board_games WHERE id = $1`, id)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete board game %d: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, span trace.Span, q string, args ...any) ([]BoardGame, error) {
	var out []BoardGame

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]BoardGame, 0, 16)
		for rows.Next() {
			g, err := scanGame(rows.Scan)
			if err != nil {
				return err
			}
			out = append(out, g)
		}
		return rows.Err()
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query board games: %w", err)
	}

	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, nil
}

func (s *PostgresStore) queryOne(ctx context.Context, span trace.Span, q string, args ...any) (BoardGame, bool, error) {
	var g BoardGame
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		g, err = scanGame(s.db.QueryRowContext(ctx, q, args...).Scan)
		return err
	})

	if err == sql.ErrNoRows {
		return BoardGame{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return BoardGame{}, false, fmt.Errorf("query board game: %w", err)
	}
	return g, true, nil
}

func scanGame(scan func(...any) error) (BoardGame, error) {
	var g BoardGame
	err := scan(&g.ID, &g.Name, &g.Description,
		&g.MinPlayers, &g.MaxPlayers, &g.PlayTimeMinutes,
		&g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
