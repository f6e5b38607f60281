package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-room-booking/internal/domain/transaction"
)

// TxWrapper は sqlx.Tx を transaction.Tx として扱う
type TxWrapper struct {
	*sqlx.Tx
}

// TxManager は RoomRepository の書き込みをまとめるトランザクションマネージャー
type TxManager struct {
	db *sqlx.DB
}

var _ transaction.Manager = (*TxManager)(nil)

// NewTxManager は新しい TxManager を作成する
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	return &TxWrapper{Tx: tx}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
func UnwrapTx(tx transaction.Tx) *sqlx.Tx {
	if wrapper, ok := tx.(*TxWrapper); ok {
		return wrapper.Tx
	}
	return nil
}

// withTx は transaction.Run を sqlx.Tx で扱えるようにする
func withTx(ctx context.Context, m transaction.Manager, fn func(tx *sqlx.Tx) error) error {
	return transaction.Run(ctx, m, func(tx transaction.Tx) error {
		sqlTx := UnwrapTx(tx)
		if sqlTx == nil {
			return fmt.Errorf("未対応のトランザクション型です: %T", tx)
		}
		return fn(sqlTx)
	})
}
