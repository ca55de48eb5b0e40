package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = 5 * time.Minute
	cacheKeyPrefix  = "gameshelf:board_game:"

	fieldVersion = "v"
	fieldData    = "d"

	// tombstoneVersion outranks every UpdatedAt in microseconds, so no
	// read-through can repopulate a deleted id while the tombstone lives.
	tombstoneVersion = int64(1) << 62
)

// putIfNewer stores a row only when its version is greater than the cached
// one. KEYS[1] = key, ARGV = version, payload, ttl in ms.
var putIfNewer = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'v')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'd', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// CachedStore serves FindByID from Redis and falls through to the wrapped
// Store on a miss. Entries carry the row's UpdatedAt as a version and are
// only ever replaced by a newer row; deletes leave a tombstone for one TTL.
// Redis failures are logged and never fail a call.
type CachedStore struct {
	Store

	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewCachedStore(next Store, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{Store: next, rdb: rdb, ttl: ttl, log: log}
}

func cacheKey(id int64) string {
	return cacheKeyPrefix + strconv.FormatInt(id, 10)
}

func (s *CachedStore) Ping(ctx context.Context) error {
	if err := s.Store.Ping(ctx); err != nil {
		return err
	}
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		s.log.Warn("redis ping failed", zap.Error(err))
	}
	return nil
}

func (s *CachedStore) FindByID(ctx context.Context, id int64) (BoardGame, bool, error) {
	key := cacheKey(id)
	vals, err := s.rdb.HMGet(ctx, key, fieldVersion, fieldData).Result()
	if err != nil {
		s.log.Warn("redis get failed", zap.Error(err), zap.Int64("id", id))
	} else {
		g, state := decodeEntry(vals)
		switch state {
		case entryHit:
			return g, true, nil
		case entryGone:
			return BoardGame{}, false, nil
		case entryCorrupt:
			if err := s.rdb.Del(ctx, key).Err(); err != nil {
				s.log.Warn("redis del failed", zap.Error(err), zap.Int64("id", id))
			}
		}
	}

	g, ok, err := s.Store.FindByID(ctx, id)
	if err != nil || !ok {
		return g, ok, err
	}

	s.put(ctx, g.ID, version(g), g)
	return g, true, nil
}

// FindByIDDirect reads the wrapped Store without consulting the cache. The
// service uses it as the base of a read-modify-write.
func (s *CachedStore) FindByIDDirect(ctx context.Context, id int64) (BoardGame, bool, error) {
	return s.Store.FindByID(ctx, id)
}

func (s *CachedStore) Save(ctx context.Context, g BoardGame) (BoardGame, error) {
	saved, err := s.Store.Save(ctx, g)
	switch {
	case err == nil:
		s.put(ctx, saved.ID, version(saved), saved)
	case errors.Is(err, ErrGameMissing):
		s.put(ctx, g.ID, tombstoneVersion, nil)
	}
	return saved, err
}

func (s *CachedStore) DeleteByID(ctx context.Context, id int64) error {
	if err := s.Store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.put(ctx, id, tombstoneVersion, nil)
	return nil
}

func version(g BoardGame) int64 { return g.UpdatedAt.UnixMicro() }

// put writes g (or a tombstone when g is nil) unless a newer entry is
// already cached. When the write fails the key is dropped instead.
func (s *CachedStore) put(ctx context.Context, id, ver int64, g any) {
	payload := []byte{}
	if g != nil {
		b, err := json.Marshal(g)
		if err != nil {
			return
		}
		payload = b
	}

	key := cacheKey(id)
	err := putIfNewer.Run(ctx, s.rdb, []string{key}, ver, payload, s.ttl.Milliseconds()).Err()
	if err == nil {
		return
	}
	s.log.Warn("redis set failed", zap.Error(err), zap.Int64("id", id))
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn("redis del failed", zap.Error(err), zap.Int64("id", id))
	}
}

type entryState int

const (
	entryMiss entryState = iota
	entryHit
	entryGone
	entryCorrupt
)

func decodeEntry(vals []any) (BoardGame, entryState) {
	if len(vals) != 2 || vals[0] == nil {
		return BoardGame{}, entryMiss
	}
	data, _ := vals[1].(string)
	if data == "" {
		return BoardGame{}, entryGone
	}
	var g BoardGame
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		return BoardGame{}, entryCorrupt
	}
	return g, entryHit
}
