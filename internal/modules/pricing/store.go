// README: Bus directory backed by PostgreSQL with a Redis read-through cache.
package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	busTypeKeyPrefix = "pricing:bus:%d:type"
	defaultBusTTL    = 10 * time.Minute
)

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
	ttl   time.Duration
}

func NewStore(db *pgxpool.Pool, redis *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultBusTTL
	}
	return &Store{db: db, redis: redis, ttl: ttl}
}

// BusTypes returns the vehicle type of every known, typed bus among ids, in
// the order the ids were given. Duplicate ids count once; unknown buses and
// buses without a type are skipped.
func (s *Store) BusTypes(ctx context.Context, ids []int64) ([]string, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}

	known := make(map[int64]string, len(ids))
	missing := ids
	if s.redis != nil {
		// Cache failures fall back to Postgres.
		if cached, err := s.cachedTypes(ctx, ids); err == nil {
			known = cached
			missing = missing[:0:0]
			for _, id := range ids {
				if _, ok := known[id]; !ok {
					missing = append(missing, id)
				}
			}
		}
	}

	if len(missing) > 0 {
		loaded, err := s.loadTypes(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, t := range loaded {
			known[id] = t
		}
		s.cacheTypes(ctx, loaded)
	}

	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if t := known[id]; t != "" {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *Store) loadTypes(ctx context.Context, ids []int64) (map[int64]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("bus directory: no database configured")
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, type
		FROM buses
		WHERE id = ANY($1) AND type IS NOT NULL`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loaded := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var busType string
		if err := rows.Scan(&id, &busType); err != nil {
			return nil, err
		}
		loaded[id] = busType
	}
	return loaded, rows.Err()
}

func (s *Store) cachedTypes(ctx context.Context, ids []int64) (map[int64]string, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = busTypeKey(id)
	}
	vals, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	cached := make(map[int64]string, len(ids))
	for i, v := range vals {
		if str, ok := v.(string); ok && str != "" {
			cached[ids[i]] = str
		}
	}
	return cached, nil
}

func (s *Store) cacheTypes(ctx context.Context, types map[int64]string) {
	if s.redis == nil || len(types) == 0 {
		return
	}
	pipe := s.redis.Pipeline()
	for id, t := range types {
		pipe.Set(ctx, busTypeKey(id), t, s.ttl)
	}
	_, _ = pipe.Exec(ctx)
}

func busTypeKey(id int64) string {
	return fmt.Sprintf(busTypeKeyPrefix, id)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
