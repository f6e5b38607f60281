package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-room-booking/internal/pkg/metrics"
)

// RoomLister は部屋一覧を取得するインターフェース
type RoomLister interface {
	ListRooms(ctx context.Context) ([]*room.Room, error)
}

// OccupancyReporter は部屋ごとの有効な予約数を定期的にメトリクスへ反映するワーカー
type OccupancyReporter struct {
	rooms    RoomLister
	metrics  *metrics.Metrics
	interval time.Duration
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

const defaultInterval = time.Minute

// NewOccupancyReporter は新しいレポーターを作成。interval が 0 以下なら既定の1分
func NewOccupancyReporter(rooms RoomLister, m *metrics.Metrics, interval time.Duration) *OccupancyReporter {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &OccupancyReporter{
		rooms:    rooms,
		metrics:  m,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start はレポーターを開始する。起動直後に一度集計する
func (r *OccupancyReporter) Start(ctx context.Context) {
	logger.Info("予約状況レポーター開始", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	r.report(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("予約状況レポーター停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("予約状況レポーター停止（シグナル受信）")
			return
		case <-ticker.C:
			r.report(ctx)
		}
	}
}

// Stop はレポーターを停止し、ループの終了を待つ
func (r *OccupancyReporter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.doneCh
}

// report は部屋ごとの有効な予約数を集計する
func (r *OccupancyReporter) report(ctx context.Context) {
	rooms, err := r.rooms.ListRooms(ctx)
	if err != nil {
		logger.Error("予約状況の集計に失敗", zap.Error(err))
		return
	}

	total := 0
	for _, rm := range rooms {
		active := len(rm.ActiveBookings())
		total += active
		r.metrics.SetActiveBookings(rm.ID(), active)
	}
	logger.Debug("予約状況を集計", zap.Int("rooms", len(rooms)), zap.Int("active_bookings", total))
}
