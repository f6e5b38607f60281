package memory

import (
	"context"
	"sync"

	"github.com/sanosuguru/go-room-booking/internal/domain/room"
)

// RoomStore はプロセス内で部屋を保持するストア
// Room は不変なので、同じポインタを複数の呼び出し元に渡しても安全
type RoomStore struct {
	mu      sync.RWMutex
	initial []*room.Room
	rooms   []*room.Room
}

var (
	_ room.Store    = (*RoomStore)(nil)
	_ room.Finder   = (*RoomStore)(nil)
	_ room.Resetter = (*RoomStore)(nil)
)

// NewRoomStore は初期の部屋一覧でストアを作成する。一覧の順序がそのまま ListRooms の順序になる
func NewRoomStore(initial ...*room.Room) *RoomStore {
	seeds := make([]*room.Room, len(initial))
	copy(seeds, initial)
	s := &RoomStore{initial: seeds}
	s.rooms = s.cloneInitial()
	return s
}

func (s *RoomStore) ListRooms(ctx context.Context) ([]*room.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*room.Room, len(s.rooms))
	copy(rooms, s.rooms)
	return rooms, nil
}

func (s *RoomStore) GetRoomByID(ctx context.Context, id string) (*room.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.rooms[i], nil
	}
	return nil, room.ErrRoomNotFound
}

// SaveRoom は読み込み時のバージョンが一致する場合のみ置き換え、バージョンを進める
func (s *RoomStore) SaveRoom(ctx context.Context, r *room.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil {
		return room.ErrRoomNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(r.ID())
	if i < 0 {
		return room.ErrRoomNotFound
	}
	if s.rooms[i].Version() != r.Version() {
		return room.ErrConcurrentUpdate
	}

	saved, err := room.RestoreRoom(r.ID(), r.Capacity(), r.Version()+1, r.Bookings())
	if err != nil {
		return err
	}
	s.rooms[i] = saved
	return nil
}

// Reset は作成時の部屋一覧に戻す
func (s *RoomStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = s.cloneInitial()
	return nil
}

func (s *RoomStore) cloneInitial() []*room.Room {
	rooms := make([]*room.Room, len(s.initial))
	copy(rooms, s.initial)
	return rooms
}

func (s *RoomStore) indexOf(id string) int {
	for i, r := range s.rooms {
		if r.ID() == id {
			return i
		}
	}
	return -1
}
