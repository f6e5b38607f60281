package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-room-booking/internal/pkg/metrics"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

const (
	roomsSnapshotKey   = "rooms:snapshot"
	roomsGenerationKey = "rooms:generation"
)

// 読み込み開始時の世代が変わっていなければスナップショットを保存する
var setSnapshotScript = redis.NewScript(`
local gen = redis.call("GET", KEYS[2])
if gen == false then
	gen = ""
end
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

type bookingSnapshot struct {
	ID     string             `json:"id"`
	From   string             `json:"from"`
	To     string             `json:"to"`
	Guests int                `json:"guests"`
	Status room.BookingStatus `json:"status"`
}

type roomSnapshot struct {
	ID       string            `json:"id"`
	Capacity int               `json:"capacity"`
	Version  int               `json:"version"`
	Bookings []bookingSnapshot `json:"bookings"`
}

// CachedRoomStore は部屋一覧を Redis にキャッシュするストアのデコレーター
// 書き込みは常に内側のストアへ渡し、成功後に世代を進めてキャッシュを破棄する
// 保存後のキャッシュ障害は呼び出し元に返さない
type CachedRoomStore struct {
	next    room.Store
	client  *redis.Client
	ttl     time.Duration
	metrics *metrics.Metrics
}

var (
	_ room.Store        = (*CachedRoomStore)(nil)
	_ room.Finder       = (*CachedRoomStore)(nil)
	_ room.Resetter     = (*CachedRoomStore)(nil)
	_ room.SourceReader = (*CachedRoomStore)(nil)
)

// NewCachedRoomStore は CachedRoomStore を作成する。m は nil でもよい
func NewCachedRoomStore(next room.Store, client *redis.Client, ttl time.Duration, m *metrics.Metrics) *CachedRoomStore {
	return &CachedRoomStore{next: next, client: client, ttl: ttl, metrics: m}
}

// ListRooms はキャッシュから部屋一覧を返し、無ければ内側のストアから読み込んで保存する
func (s *CachedRoomStore) ListRooms(ctx context.Context) ([]*room.Room, error) {
	rooms, err := s.getSnapshot(ctx)
	switch {
	case err == nil:
		s.metrics.RecordCache("hit")
		return rooms, nil
	case errors.Is(err, ErrCacheMiss):
		s.metrics.RecordCache("miss")
	default:
		// キャッシュ障害時は内側のストアで処理を続ける
		s.metrics.RecordCache("error")
		logger.Warn("部屋キャッシュの取得に失敗", zap.Error(err))
	}

	// 内側のストアを読む前に世代を控え、その間に保存があれば書き戻さない
	gen, genErr := s.generation(ctx)
	rooms, err = s.next.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		logger.Warn("部屋キャッシュの世代取得に失敗", zap.Error(genErr))
		return rooms, nil
	}
	if err := s.setSnapshot(ctx, gen, rooms); err != nil {
		logger.Warn("部屋キャッシュの保存に失敗", zap.Error(err))
	}
	return rooms, nil
}

// ListSourceRooms はキャッシュを使わずに内側のストアから読み込む
func (s *CachedRoomStore) ListSourceRooms(ctx context.Context) ([]*room.Room, error) {
	return s.next.ListRooms(ctx)
}

// GetRoomByID はキャッシュ済みの一覧から部屋を探す
func (s *CachedRoomStore) GetRoomByID(ctx context.Context, id string) (*room.Room, error) {
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range rooms {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, room.ErrRoomNotFound
}

// SaveRoom は内側のストアに保存し、キャッシュを無効化する
func (s *CachedRoomStore) SaveRoom(ctx context.Context, r *room.Room) error {
	if err := s.next.SaveRoom(ctx, r); err != nil {
		return err
	}
	s.invalidateAfterWrite(ctx)
	return nil
}

// Reset は内側のストアを初期化し、キャッシュを無効化する
func (s *CachedRoomStore) Reset(ctx context.Context) error {
	resetter, ok := s.next.(room.Resetter)
	if !ok {
		return errors.New("内側のストアは初期化に対応していません")
	}
	if err := resetter.Reset(ctx); err != nil {
		return err
	}
	s.invalidateAfterWrite(ctx)
	return nil
}

// Invalidate は世代を進め、部屋一覧のキャッシュを削除する
func (s *CachedRoomStore) Invalidate(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, roomsGenerationKey)
		pipe.Del(ctx, roomsSnapshotKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

// 内側のストアへの書き込みは完了しているため、失敗は記録だけする
func (s *CachedRoomStore) invalidateAfterWrite(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.metrics.RecordCache("error")
		logger.Warn("部屋キャッシュの無効化に失敗", zap.Error(err))
	}
}

func (s *CachedRoomStore) generation(ctx context.Context) (string, error) {
	gen, err := s.client.Get(ctx, roomsGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("キャッシュ世代の取得に失敗: %w", err)
	}
	return gen, nil
}

func (s *CachedRoomStore) getSnapshot(ctx context.Context) ([]*room.Room, error) {
	data, err := s.client.Get(ctx, roomsSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}

	var snapshots []roomSnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
	}
	rooms := make([]*room.Room, 0, len(snapshots))
	for _, snap := range snapshots {
		r, err := snap.toEntity()
		if err != nil {
			return nil, fmt.Errorf("キャッシュの復元に失敗: %w", err)
		}
		rooms = append(rooms, r)
	}
	return rooms, nil
}

func (s *CachedRoomStore) setSnapshot(ctx context.Context, gen string, rooms []*room.Room) error {
	snapshots := make([]roomSnapshot, 0, len(rooms))
	for _, r := range rooms {
		snapshots = append(snapshots, newRoomSnapshot(r))
	}
	data, err := json.Marshal(snapshots)
	if err != nil {
		return err
	}
	keys := []string{roomsSnapshotKey, roomsGenerationKey}
	if err := setSnapshotScript.Run(ctx, s.client, keys, gen, data, s.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

func newRoomSnapshot(r *room.Room) roomSnapshot {
	snap := roomSnapshot{ID: r.ID(), Capacity: r.Capacity(), Version: r.Version()}
	for _, b := range r.Bookings() {
		snap.Bookings = append(snap.Bookings, bookingSnapshot{
			ID:     b.ID(),
			From:   b.DateRange().From().Format(room.DateLayout),
			To:     b.DateRange().To().Format(room.DateLayout),
			Guests: b.Guests(),
			Status: b.Status(),
		})
	}
	return snap
}

func (snap roomSnapshot) toEntity() (*room.Room, error) {
	bookings := make([]room.Booking, 0, len(snap.Bookings))
	for _, bs := range snap.Bookings {
		dr, err := room.ParseDateRange(bs.From, bs.To)
		if err != nil {
			return nil, err
		}
		b, err := room.RestoreBooking(bs.ID, dr, bs.Guests, bs.Status)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return room.RestoreRoom(snap.ID, snap.Capacity, snap.Version, bookings)
}
