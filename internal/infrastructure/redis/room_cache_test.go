package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	"github.com/sanosuguru/go-room-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-room-booking/internal/pkg/metrics"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client, err := NewClient(&Config{Host: "localhost", Port: "6379"})
	if err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func setupCachedStore(t *testing.T, ttl time.Duration) (*CachedRoomStore, *memory.RoomStore, *metrics.Metrics) {
	client := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Del(ctx, roomsSnapshotKey, roomsGenerationKey).Err())
	t.Cleanup(func() { client.Del(context.Background(), roomsSnapshotKey, roomsGenerationKey) })

	return newCachedStore(t, client, ttl)
}

func newCachedStore(t *testing.T, client *redis.Client, ttl time.Duration) (*CachedRoomStore, *memory.RoomStore, *metrics.Metrics) {
	t.Helper()
	r1, err := room.NewRoom("room-1", 2)
	require.NoError(t, err)
	r2, err := room.NewRoom("room-2", 4)
	require.NoError(t, err)
	inner := memory.NewRoomStore(r1, r2)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	return NewCachedRoomStore(inner, client, ttl, m), inner, m
}

// unreachableClient は接続できない Redis クライアントを返す
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

// plainStore は Resetter を持たないストア
type plainStore struct {
	room.Store
}

func TestCachedRoomStore_ListRooms(t *testing.T) {
	store, _, m := setupCachedStore(t, 30*time.Second)
	ctx := context.Background()

	t.Run("初回はミス、2回目はヒット", func(t *testing.T) {
		rooms, err := store.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 2)

		cached, err := store.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, cached, 2)
		assert.Equal(t, "room-1", cached[0].ID())
		assert.Equal(t, 4, cached[1].Capacity())

		assert.Equal(t, float64(1), testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("miss")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("hit")))
	})
}

func TestCachedRoomStore_SaveRoomInvalidates(t *testing.T) {
	store, inner, _ := setupCachedStore(t, 30*time.Second)
	ctx := context.Background()

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)

	updated, _, err := rooms[0].CreateBooking(room.BookingRequest{From: "2025-12-01", To: "2025-12-05", Guests: 2}, func() string { return "b-1" })
	require.NoError(t, err)
	cancelled, _, err := updated.CancelBooking("b-1", true)
	require.NoError(t, err)
	require.NoError(t, store.SaveRoom(ctx, cancelled))

	// キャッシュから復元した部屋にもキャンセル済みの予約とバージョンが残る
	got, err := store.GetRoomByID(ctx, "room-1")
	require.NoError(t, err)
	b, ok := got.FindBooking("b-1")
	require.True(t, ok)
	assert.Equal(t, room.BookingStatusCancelled, b.Status())
	assert.Equal(t, 1, got.Version())

	fromInner, err := inner.GetRoomByID(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, fromInner.Version(), got.Version())
}

func TestCachedRoomStore_Reset(t *testing.T) {
	store, _, _ := setupCachedStore(t, 30*time.Second)
	ctx := context.Background()

	rooms, err := store.ListRooms(ctx)
	require.NoError(t, err)
	updated, _, err := rooms[1].CreateBooking(room.BookingRequest{From: "2025-12-01", To: "2025-12-02", Guests: 4}, func() string { return "b-1" })
	require.NoError(t, err)
	require.NoError(t, store.SaveRoom(ctx, updated))

	require.NoError(t, store.Reset(ctx))

	got, err := store.GetRoomByID(ctx, "room-2")
	require.NoError(t, err)
	assert.Empty(t, got.Bookings())
}

func TestCachedRoomStore_TTL(t *testing.T) {
	store, _, m := setupCachedStore(t, 100*time.Millisecond)
	ctx := context.Background()

	t.Run("TTL経過後はキャッシュミスになる", func(t *testing.T) {
		_, err := store.ListRooms(ctx)
		require.NoError(t, err)

		time.Sleep(200 * time.Millisecond)

		_, err = store.ListRooms(ctx)
		require.NoError(t, err)
		assert.Equal(t, float64(2), testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("miss")))
	})
}

func TestCachedRoomStore_GetRoomByID_NotFound(t *testing.T) {
	store, _, _ := setupCachedStore(t, 30*time.Second)

	_, err := store.GetRoomByID(context.Background(), "missing")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestCachedRoomStore_RedisUnavailable(t *testing.T) {
	ctx := context.Background()
	req := room.BookingRequest{From: "2025-12-01", To: "2025-12-03", Guests: 2}

	t.Run("一覧は内側のストアから返す", func(t *testing.T) {
		store, _, m := newCachedStore(t, unreachableClient(t), 30*time.Second)

		rooms, err := store.ListRooms(ctx)
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, "room-1", rooms[0].ID())
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("error")))
	})

	t.Run("保存済みならキャッシュ無効化の失敗は返さない", func(t *testing.T) {
		store, inner, m := newCachedStore(t, unreachableClient(t), 30*time.Second)

		current, err := inner.GetRoomByID(ctx, "room-1")
		require.NoError(t, err)
		updated, _, err := current.CreateBooking(req, func() string { return "b-1" })
		require.NoError(t, err)

		require.NoError(t, store.SaveRoom(ctx, updated))

		saved, err := inner.GetRoomByID(ctx, "room-1")
		require.NoError(t, err)
		assert.True(t, saved.HasBooking("b-1"))
		assert.Equal(t, 1, saved.Version())
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("error")))
	})

	t.Run("内側の保存失敗はそのまま返す", func(t *testing.T) {
		store, inner, _ := newCachedStore(t, unreachableClient(t), 30*time.Second)

		stale, err := inner.GetRoomByID(ctx, "room-1")
		require.NoError(t, err)
		first, _, err := stale.CreateBooking(req, func() string { return "b-1" })
		require.NoError(t, err)
		require.NoError(t, inner.SaveRoom(ctx, first))

		second, _, err := stale.CreateBooking(req, func() string { return "b-2" })
		require.NoError(t, err)
		assert.ErrorIs(t, store.SaveRoom(ctx, second), room.ErrConcurrentUpdate)
	})

	t.Run("初期化もキャッシュ障害を返さない", func(t *testing.T) {
		store, inner, m := newCachedStore(t, unreachableClient(t), 30*time.Second)

		current, err := inner.GetRoomByID(ctx, "room-2")
		require.NoError(t, err)
		updated, _, err := current.CreateBooking(req, func() string { return "b-1" })
		require.NoError(t, err)
		require.NoError(t, inner.SaveRoom(ctx, updated))

		require.NoError(t, store.Reset(ctx))

		got, err := inner.GetRoomByID(ctx, "room-2")
		require.NoError(t, err)
		assert.Empty(t, got.Bookings())
		assert.Equal(t, float64(1), testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("error")))
	})

	t.Run("保存元の読み込みはキャッシュを使わない", func(t *testing.T) {
		store, _, m := newCachedStore(t, unreachableClient(t), 30*time.Second)

		rooms, err := store.ListSourceRooms(ctx)
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
		assert.Equal(t, 0, testutil.CollectAndCount(m.RoomCacheRequests))
	})
}

func TestCachedRoomStore_Reset_Unsupported(t *testing.T) {
	_, inner, _ := newCachedStore(t, unreachableClient(t), 30*time.Second)
	store := NewCachedRoomStore(plainStore{inner}, unreachableClient(t), 30*time.Second, nil)

	err := store.Reset(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "初期化に対応していません")
}

func TestCachedRoomStore_StaleSnapshotIsDiscarded(t *testing.T) {
	store, inner, _ := setupCachedStore(t, 30*time.Second)
	client := store.client
	ctx := context.Background()

	// 読み込み中に別のリクエストが保存した状況を再現する
	gen, err := store.generation(ctx)
	require.NoError(t, err)
	stale, err := inner.ListRooms(ctx)
	require.NoError(t, err)

	updated, _, err := stale[0].CreateBooking(room.BookingRequest{From: "2025-12-01", To: "2025-12-03", Guests: 1}, func() string { return "b-1" })
	require.NoError(t, err)
	require.NoError(t, store.SaveRoom(ctx, updated))

	require.NoError(t, store.setSnapshot(ctx, gen, stale))
	n, err := client.Exists(ctx, roomsSnapshotKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "古い世代のスナップショットは保存されない")

	got, err := store.GetRoomByID(ctx, "room-1")
	require.NoError(t, err)
	assert.True(t, got.HasBooking("b-1"))
	assert.Equal(t, 1, got.Version())
}
