package room

import (
	"context"
	"errors"
)

// ストア実装のエラー定義（ドメインエラーではない）
var (
	ErrRoomNotFound     = errors.New("部屋が見つかりません")
	ErrConcurrentUpdate = errors.New("部屋が他のリクエストによって更新されました")
)

// Store は部屋集約の取得と保存を行うポート
// ドメインルールは実行せず、Room 側もストアを知らない
type Store interface {
	// ListRooms は現在の部屋一覧を安定した順序で返す
	ListRooms(ctx context.Context) ([]*Room, error)

	// SaveRoom は同じIDの部屋を置き換える
	// 存在しない場合は ErrRoomNotFound、バージョン不一致は ErrConcurrentUpdate
	SaveRoom(ctx context.Context, room *Room) error
}

// Finder はIDで部屋を取得できるストア（任意）
type Finder interface {
	GetRoomByID(ctx context.Context, id string) (*Room, error)
}

// Resetter は初期状態に戻せるストア（デモ用、任意）
type Resetter interface {
	Reset(ctx context.Context) error
}

// SourceReader はキャッシュを経由せずに保存先から部屋一覧を読めるストア（任意）
// 読み取りから保存までを行うユースケースはこちらを優先する
type SourceReader interface {
	ListSourceRooms(ctx context.Context) ([]*Room, error)
}
