package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "room_booking"

// Metrics は予約サービスのメトリクス
// 記録用メソッドは nil レシーバーでも呼べる（メトリクス無効時）
type Metrics struct {
	// method, path, status_code
	HTTPRequestsTotal *prometheus.CounterVec
	// method, path
	HTTPRequestDuration *prometheus.HistogramVec

	// operation: create/cancel
	// status: success, conflict, lock_failed, error またはドメインエラー種別
	BookingsTotal *prometheus.CounterVec

	// operation: acquire/extend/release, status: success/failed
	DistributedLockDuration *prometheus.HistogramVec

	// room_id
	ActiveBookings *prometheus.GaugeVec

	// result: hit/miss/error
	RoomCacheRequests *prometheus.CounterVec
}

// New はデフォルトレジストリに登録した Metrics を作成する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は reg に登録した Metrics を作成する（テストでは専用レジストリを渡す）
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "path", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path"}),
		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Booking create/cancel operations by outcome",
		}, []string{"operation", "status"}),
		DistributedLockDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rooms_lock_duration_seconds",
			Help:      "Time spent acquiring and releasing the rooms lock",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation", "status"}),
		ActiveBookings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_bookings",
			Help:      "CREATED bookings per room",
		}, []string{"room_id"}),
		RoomCacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_cache_requests_total",
			Help:      "Room list cache lookups by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.DistributedLockDuration,
		m.ActiveBookings,
		m.RoomCacheRequests,
	)
	return m
}

// RecordBooking は予約操作の結果を数える
func (m *Metrics) RecordBooking(operation, status string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveLock は start からのロック操作時間を記録する
func (m *Metrics) ObserveLock(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetActiveBookings(roomID string, n int) {
	if m == nil {
		return
	}
	m.ActiveBookings.WithLabelValues(roomID).Set(float64(n))
}

func (m *Metrics) RecordCache(result string) {
	if m == nil {
		return
	}
	m.RoomCacheRequests.WithLabelValues(result).Inc()
}

var defaultMetrics *Metrics

// Init はデフォルトレジストリに登録したメトリクスを作成して保持する。プロセスで一度だけ呼ぶ
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get は Init 済みのメトリクスを返す。未初期化なら nil
func Get() *Metrics {
	return defaultMetrics
}
