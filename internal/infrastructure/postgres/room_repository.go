package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	"github.com/sanosuguru/go-room-booking/internal/domain/transaction"
)

const uniqueViolation = "23505"

type roomRow struct {
	ID       string `db:"id"`
	Capacity int    `db:"capacity"`
	Version  int    `db:"version"`
}

type bookingRow struct {
	RoomID   string    `db:"room_id"`
	ID       string    `db:"id"`
	DateFrom time.Time `db:"date_from"`
	DateTo   time.Time `db:"date_to"`
	Guests   int       `db:"guests"`
	Status   string    `db:"status"`
}

func (r *bookingRow) toEntity() (room.Booking, error) {
	dr, err := room.NewDateRange(r.DateFrom, r.DateTo)
	if err != nil {
		return room.Booking{}, err
	}
	return room.RestoreBooking(r.ID, dr, r.Guests, room.BookingStatus(r.Status))
}

// RoomRepository は PostgreSQL に部屋と予約を保存する room.Store 実装
type RoomRepository struct {
	db    *sqlx.DB
	txm   transaction.Manager
	seeds []*room.Room
}

var (
	_ room.Store    = (*RoomRepository)(nil)
	_ room.Finder   = (*RoomRepository)(nil)
	_ room.Resetter = (*RoomRepository)(nil)
)

func NewRoomRepository(db *sqlx.DB, txm transaction.Manager) *RoomRepository {
	return &RoomRepository{db: db, txm: txm}
}

// Seed は存在しない部屋だけを追加し、Reset 時の初期状態として記憶する
func (r *RoomRepository) Seed(ctx context.Context, rooms []*room.Room) error {
	r.seeds = rooms
	return withTx(ctx, r.txm, func(tx *sqlx.Tx) error {
		return insertRooms(ctx, tx, rooms, true)
	})
}

// ListRooms は position, id の順で部屋を返す
func (r *RoomRepository) ListRooms(ctx context.Context) ([]*room.Room, error) {
	var rows []roomRow
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT id, capacity, version FROM rooms ORDER BY position, id`); err != nil {
		return nil, fmt.Errorf("部屋一覧の取得に失敗: %w", err)
	}

	var bookings []bookingRow
	if err := r.db.SelectContext(ctx, &bookings,
		`SELECT room_id, id, date_from, date_to, guests, status FROM bookings ORDER BY room_id, seq`); err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗: %w", err)
	}
	byRoom := make(map[string][]bookingRow, len(rows))
	for _, b := range bookings {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	rooms := make([]*room.Room, 0, len(rows))
	for i := range rows {
		rm, err := toRoom(&rows[i], byRoom[rows[i].ID])
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	return rooms, nil
}

func (r *RoomRepository) GetRoomByID(ctx context.Context, id string) (*room.Room, error) {
	var row roomRow
	if err := r.db.GetContext(ctx, &row,
		`SELECT id, capacity, version FROM rooms WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, room.ErrRoomNotFound
		}
		return nil, fmt.Errorf("部屋の取得に失敗: %w", err)
	}

	var bookings []bookingRow
	if err := r.db.SelectContext(ctx, &bookings,
		`SELECT room_id, id, date_from, date_to, guests, status FROM bookings WHERE room_id = $1 ORDER BY seq`, id); err != nil {
		return nil, fmt.Errorf("予約一覧の取得に失敗: %w", err)
	}
	return toRoom(&row, bookings)
}

// SaveRoom は楽観的ロックで部屋を更新し、予約一覧を置き換える
func (r *RoomRepository) SaveRoom(ctx context.Context, rm *room.Room) error {
	return withTx(ctx, r.txm, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE rooms SET version = version + 1, updated_at = NOW() WHERE id = $1 AND version = $2`,
			rm.ID(), rm.Version())
		if err != nil {
			return fmt.Errorf("部屋の更新に失敗: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)`, rm.ID()); err != nil {
				return err
			}
			if !exists {
				return room.ErrRoomNotFound
			}
			return room.ErrConcurrentUpdate
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE room_id = $1`, rm.ID()); err != nil {
			return fmt.Errorf("予約の削除に失敗: %w", err)
		}
		return insertBookings(ctx, tx, rm)
	})
}

// Reset は全データを削除し、Seed で記憶した部屋を入れ直す
func (r *RoomRepository) Reset(ctx context.Context) error {
	return withTx(ctx, r.txm, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookings`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms`); err != nil {
			return err
		}
		return insertRooms(ctx, tx, r.seeds, false)
	})
}

func insertRooms(ctx context.Context, tx *sqlx.Tx, rooms []*room.Room, skipExisting bool) error {
	query := `INSERT INTO rooms (id, capacity, position, version) VALUES ($1, $2, $3, 0)`
	if skipExisting {
		query += ` ON CONFLICT (id) DO NOTHING`
	}
	for i, rm := range rooms {
		if _, err := tx.ExecContext(ctx, query, rm.ID(), rm.Capacity(), i); err != nil {
			return fmt.Errorf("部屋の登録に失敗: %w", err)
		}
	}
	return nil
}

func insertBookings(ctx context.Context, tx *sqlx.Tx, rm *room.Room) error {
	query := `INSERT INTO bookings (room_id, id, seq, date_from, date_to, guests, status) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, b := range rm.Bookings() {
		dr := b.DateRange()
		_, err := tx.ExecContext(ctx, query,
			rm.ID(), b.ID(), i,
			dr.From().Format(room.DateLayout), dr.To().Format(room.DateLayout),
			b.Guests(), string(b.Status()))
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return room.ErrConcurrentUpdate
			}
			return fmt.Errorf("予約の登録に失敗: %w", err)
		}
	}
	return nil
}

func toRoom(row *roomRow, rows []bookingRow) (*room.Room, error) {
	bookings := make([]room.Booking, 0, len(rows))
	for i := range rows {
		b, err := rows[i].toEntity()
		if err != nil {
			return nil, fmt.Errorf("予約の復元に失敗 (room=%s): %w", row.ID, err)
		}
		bookings = append(bookings, b)
	}
	return room.RestoreRoom(row.ID, row.Capacity, row.Version, bookings)
}
