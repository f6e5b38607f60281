package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
)

// RunMigrations は部屋と予約のスキーマを最新にする
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成エラー: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("マイグレーション読み込みエラー (%s): %w", migrationsPath, err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("スキーマは最新です")
	case err != nil:
		return fmt.Errorf("マイグレーション実行エラー: %w", err)
	}

	// dirty のまま起動すると以降の保存が不整合になる
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("スキーマバージョン取得エラー: %w", err)
	}
	if dirty {
		return fmt.Errorf("スキーマバージョン %d が dirty です", version)
	}
	logger.Info("マイグレーション適用済み", zap.Uint("version", version))
	return nil
}
