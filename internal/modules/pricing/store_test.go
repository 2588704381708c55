package pricing

import (
	"context"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func TestUniqueIDs(t *testing.T) {
	got := uniqueIDs([]int64{3, 1, 3, 2, 1})
	if !slices.Equal(got, []int64{3, 1, 2}) {
		t.Errorf("uniqueIDs = %v", got)
	}
	if got := uniqueIDs(nil); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func TestStore_NoDatabase(t *testing.T) {
	s := NewStore(nil, nil, 0)
	if s.ttl != defaultBusTTL {
		t.Errorf("ttl = %v, want default", s.ttl)
	}
	types, err := s.BusTypes(context.Background(), nil)
	if err != nil || len(types) != 0 {
		t.Errorf("empty ids: %v %v", types, err)
	}
	if _, err := s.BusTypes(context.Background(), []int64{1}); err == nil {
		t.Error("expected error without a database")
	}
}

// TestStore_BusTypes runs against a real Postgres (and Redis when
// MOVA_REDIS_ADDR is set).
func TestStore_BusTypes(t *testing.T) {
	dsn := os.Getenv("MOVA_DB_DSN")
	if dsn == "" {
		t.Skip("MOVA_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS buses (id BIGINT PRIMARY KEY, type TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	ids := []int64{990001, 990002, 990003}
	cleanup := func() {
		_, _ = pool.Exec(ctx, `DELETE FROM buses WHERE id = ANY($1)`, ids)
	}
	cleanup()
	t.Cleanup(cleanup)
	if _, err := pool.Exec(ctx, `
		INSERT INTO buses (id, type) VALUES ($1, 'hiace'), ($2, 'coaster'), ($3, NULL)`,
		ids[0], ids[1], ids[2],
	); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var rdb *redis.Client
	if addr := os.Getenv("MOVA_REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		for _, id := range ids {
			rdb.Del(ctx, busTypeKey(id))
		}
	}

	store := NewStore(pool, rdb, time.Minute)
	want := []string{"coaster", "hiace"}
	for round := 0; round < 2; round++ {
		got, err := store.BusTypes(ctx, []int64{ids[1], ids[0], ids[2], 999999999, ids[1]})
		if err != nil {
			t.Fatalf("BusTypes (round %d): %v", round, err)
		}
		if !slices.Equal(got, want) {
			t.Errorf("BusTypes (round %d) = %v, want %v", round, got, want)
		}
	}

	if rdb != nil {
		cached, err := rdb.Get(ctx, busTypeKey(ids[0])).Result()
		if err != nil || cached != "hiace" {
			t.Errorf("expected cached type, got %q (%v)", cached, err)
		}
	}
}
