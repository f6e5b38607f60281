package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/api/handler"
	"github.com/sanosuguru/go-room-booking/internal/api/middleware"
	"github.com/sanosuguru/go-room-booking/internal/application"
	"github.com/sanosuguru/go-room-booking/internal/config"
	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	"github.com/sanosuguru/go-room-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-room-booking/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-room-booking/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-room-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-room-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-room-booking/internal/worker"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	m := metrics.Init()

	seeds, err := seedRooms(cfg.Store.Seeds)
	if err != nil {
		logger.Fatal("初期部屋の設定が不正です", zap.Error(err))
	}

	health := handler.NewHealthHandler()
	var opts []application.BookingServiceOption
	opts = append(opts, application.WithMetrics(m))

	// ストア
	var store room.Store
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.Open(&cfg.Database)
		if err != nil {
			logger.Fatal("データベース接続に失敗", zap.Error(err))
		}
		defer db.Close()

		repo := postgres.NewRoomRepository(db, postgres.NewTxManager(db))
		if err := repo.Seed(context.Background(), seeds); err != nil {
			logger.Fatal("初期部屋の登録に失敗", zap.Error(err))
		}
		store = repo
		health.WithCheck("postgres", func(ctx context.Context) error { return postgres.Ping(ctx, db) })
	case "memory":
		store = memory.NewRoomStore(seeds...)
	default:
		logger.Fatal("未対応のストアです", zap.String("driver", cfg.Store.Driver))
	}
	logger.Info("ストアを初期化", zap.String("driver", cfg.Store.Driver), zap.Int("rooms", len(seeds)))

	// Redis（任意）: ロックと部屋一覧キャッシュ
	if cfg.Redis.Enabled {
		client, err := redisinfra.NewClient(&redisinfra.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("Redis接続に失敗", zap.Error(err))
		}
		defer client.Close()

		store = redisinfra.NewCachedRoomStore(store, client, cfg.Redis.CacheTTL, m)
		opts = append(opts, application.WithLockManager(redisinfra.NewLockManager(client)))
		health.WithCheck("redis", func(ctx context.Context) error { return redisinfra.Ping(ctx, client) })
		logger.Info("Redisを有効化", zap.String("addr", cfg.Redis.Addr()))
	}

	// RabbitMQ（任意）: 予約イベント通知
	if cfg.AMQP.URL != "" {
		publisher, err := rabbitmq.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			logger.Fatal("RabbitMQ接続に失敗", zap.Error(err))
		}
		defer publisher.Close()

		opts = append(opts, application.WithEventPublisher(publisher))
		logger.Info("予約イベント通知を有効化", zap.String("queue", cfg.AMQP.Queue))
	}

	service := application.NewBookingService(store, opts...)

	// Echo インスタンス作成
	e := handler.NewServer(service, health)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	middleware.SetupMiddleware(e, m)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(middleware.LoadMetricsConfig()))

	// バックグラウンドワーカー
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	reporter := worker.NewOccupancyReporter(service, m, cfg.Worker.OccupancyInterval)
	go reporter.Start(workerCtx)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("サーバー起動", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")
	reporter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
		return
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}

func seedRooms(seeds []config.RoomSeed) ([]*room.Room, error) {
	rooms := make([]*room.Room, 0, len(seeds))
	for _, s := range seeds {
		r, err := room.NewRoom(s.ID, s.Capacity)
		if err != nil {
			return nil, fmt.Errorf("部屋 %s: %w", s.ID, err)
		}
		rooms = append(rooms, r)
	}
	return rooms, nil
}
