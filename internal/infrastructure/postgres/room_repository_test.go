package postgres

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-room-booking/internal/config"
	"github.com/sanosuguru/go-room-booking/internal/domain/room"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	cfg := config.Load()
	cfg.Database.MigrationsPath = "../../../migrations"

	db, err := Open(&cfg.Database)
	if err != nil {
		t.Skip("PostgreSQL not available")
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupRepository(t *testing.T) *RoomRepository {
	db := setupTestDB(t)
	ctx := context.Background()

	r1, err := room.NewRoom("room-1", 2)
	require.NoError(t, err)
	r2, err := room.NewRoom("room-2", 4)
	require.NoError(t, err)

	repo := NewRoomRepository(db, NewTxManager(db))
	require.NoError(t, repo.Seed(ctx, []*room.Room{r1, r2}))
	require.NoError(t, repo.Reset(ctx))
	return repo
}

func TestRoomRepository_ListRooms(t *testing.T) {
	repo := setupRepository(t)

	rooms, err := repo.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "room-1", rooms[0].ID())
	assert.Equal(t, 2, rooms[0].Capacity())
	assert.Equal(t, "room-2", rooms[1].ID())
}

func TestRoomRepository_SaveRoom(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	t.Run("予約とキャンセルが保存される", func(t *testing.T) {
		r, err := repo.GetRoomByID(ctx, "room-1")
		require.NoError(t, err)

		withBooking, _, err := r.CreateBooking(room.BookingRequest{From: "2025-12-01", To: "2025-12-05", Guests: 2}, func() string { return "b-1" })
		require.NoError(t, err)
		withSecond, _, err := withBooking.CreateBooking(room.BookingRequest{From: "2025-12-05", To: "2025-12-07", Guests: 1}, func() string { return "b-2" })
		require.NoError(t, err)
		cancelled, _, err := withSecond.CancelBooking("b-1", true)
		require.NoError(t, err)
		require.NoError(t, repo.SaveRoom(ctx, cancelled))

		saved, err := repo.GetRoomByID(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, 1, saved.Version())
		require.Len(t, saved.Bookings(), 2)
		assert.Equal(t, "b-1", saved.Bookings()[0].ID())
		assert.Equal(t, room.BookingStatusCancelled, saved.Bookings()[0].Status())
		assert.Equal(t, "2025-12-05", saved.Bookings()[1].DateRange().From().Format(room.DateLayout))
	})

	t.Run("古いバージョンはErrConcurrentUpdate", func(t *testing.T) {
		stale, err := repo.GetRoomByID(ctx, "room-2")
		require.NoError(t, err)

		first, _, err := stale.CreateBooking(room.BookingRequest{From: "2026-01-01", To: "2026-01-02", Guests: 1}, func() string { return "x-1" })
		require.NoError(t, err)
		require.NoError(t, repo.SaveRoom(ctx, first))

		second, _, err := stale.CreateBooking(room.BookingRequest{From: "2026-01-01", To: "2026-01-02", Guests: 1}, func() string { return "x-2" })
		require.NoError(t, err)
		assert.ErrorIs(t, repo.SaveRoom(ctx, second), room.ErrConcurrentUpdate)
	})

	t.Run("存在しない部屋はErrRoomNotFound", func(t *testing.T) {
		unknown, err := room.NewRoom("room-x", 1)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.SaveRoom(ctx, unknown), room.ErrRoomNotFound)
	})
}

func TestRoomRepository_Reset(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	r, err := repo.GetRoomByID(ctx, "room-2")
	require.NoError(t, err)
	updated, _, err := r.CreateBooking(room.BookingRequest{From: "2025-12-01", To: "2025-12-02", Guests: 4}, func() string { return "b-1" })
	require.NoError(t, err)
	require.NoError(t, repo.SaveRoom(ctx, updated))

	require.NoError(t, repo.Reset(ctx))

	reset, err := repo.GetRoomByID(ctx, "room-2")
	require.NoError(t, err)
	assert.Empty(t, reset.Bookings())
	assert.Equal(t, 0, reset.Version())
}

func TestRoomRepository_GetRoomByID_NotFound(t *testing.T) {
	repo := setupRepository(t)

	_, err := repo.GetRoomByID(context.Background(), "missing")
	assert.ErrorIs(t, err, room.ErrRoomNotFound)
}
