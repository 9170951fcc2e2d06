package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type cachedRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, zerolog.Nop()), mr
}

func TestRedisStoreRoundTripAndInvalidate(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	var out []cachedRow
	found, err := store.Get(ctx, StudentRosterKey, &out)
	require.NoError(t, err)
	require.False(t, found)

	rows := []cachedRow{{ID: "1", Name: "Ana"}, {ID: "2", Name: "Luis"}}
	require.NoError(t, store.Set(ctx, StudentRosterKey, rows, time.Minute))
	require.True(t, mr.Exists(StudentRosterKey))

	found, err = store.Get(ctx, StudentRosterKey, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, rows, out)

	require.NoError(t, store.Invalidate(ctx, StudentRosterKey, StudentKey("1")))
	require.False(t, mr.Exists(StudentRosterKey))
}

func TestRedisStoreDropsUndecodableEntry(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set(CourseListKey, "not-json"))

	var out []cachedRow
	found, err := store.Get(context.Background(), CourseListKey, &out)
	require.NoError(t, err)
	require.False(t, found)
	require.False(t, mr.Exists(CourseListKey))
}

func TestRedisStoreHonoursTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, StudentKey("9"), cachedRow{ID: "9"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out cachedRow
	found, err := store.Get(ctx, StudentKey("9"), &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestMemoryStoreExpiryAndIsolation(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }
	ctx := context.Background()

	row := cachedRow{ID: "1", Name: "Ana"}
	require.NoError(t, store.Set(ctx, StudentKey("1"), row, time.Minute))
	row.Name = "changed"

	var out cachedRow
	found, err := store.Get(ctx, StudentKey("1"), &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Ana", out.Name)

	current = current.Add(time.Minute)
	found, err = store.Get(ctx, StudentKey("1"), &out)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 0, store.Len())
}

func TestMemoryStoreZeroTTLLivesUntilInvalidated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, CourseListKey, []cachedRow{{ID: "c"}}, 0))
	store.now = func() time.Time { return time.Now().Add(24 * time.Hour) }

	var out []cachedRow
	found, err := store.Get(ctx, CourseListKey, &out)
	require.NoError(t, err)
	require.True(t, found)

	require.NoError(t, store.Invalidate(ctx, CourseListKey))
	found, err = store.Get(ctx, CourseListKey, &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestBroadcasterAppliesRemoteInvalidations(t *testing.T) {
	local := NewMemoryStore()
	broadcaster := NewBroadcaster(local, nil, "aula:cache", zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, broadcaster.Set(ctx, StudentRosterKey, []cachedRow{{ID: "1"}}, 0))
	require.NoError(t, broadcaster.Set(ctx, StudentKey("1"), cachedRow{ID: "1"}, 0))

	own, err := json.Marshal(invalidationEvent{Source: broadcaster.nodeID, Keys: []string{StudentRosterKey}})
	require.NoError(t, err)
	broadcaster.handleEvent(ctx, own)
	require.Equal(t, 2, local.Len())

	remote, err := json.Marshal(invalidationEvent{Source: "other-node", Keys: []string{StudentRosterKey}})
	require.NoError(t, err)
	broadcaster.handleEvent(ctx, remote)
	require.Equal(t, 1, local.Len())

	broadcaster.handleEvent(ctx, []byte("{broken"))
	require.Equal(t, 1, local.Len())
}

func TestBroadcasterWithoutConnectionStillInvalidates(t *testing.T) {
	local := NewMemoryStore()
	broadcaster := NewBroadcaster(local, nil, "aula:cache", zerolog.Nop())
	ctx := context.Background()

	require.Equal(t, "aula.cache.invalidate", broadcaster.subject)
	require.NoError(t, broadcaster.Start(ctx))
	require.NoError(t, broadcaster.Set(ctx, CourseListKey, []cachedRow{}, 0))
	require.NoError(t, broadcaster.Invalidate(ctx, CourseListKey))
	require.Equal(t, 0, local.Len())
}

func TestNopStore(t *testing.T) {
	var store Store = Nop{}
	require.NoError(t, store.Set(context.Background(), "k", 1, 0))

	var out int
	found, err := store.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStudentKey(t *testing.T) {
	require.Equal(t, "students:id:abc", StudentKey("abc"))
}
