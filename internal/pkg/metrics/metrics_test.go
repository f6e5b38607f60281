package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry_MetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	// Vec は値が記録されるまで Gather に現れない
	m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/rooms", "200").Inc()
	m.HTTPRequestDuration.WithLabelValues("GET", "/api/v1/rooms").Observe(0.01)
	m.RecordBooking("create", "success")
	m.ObserveLock("acquire", time.Now(), nil)
	m.SetActiveBookings("room-1", 1)
	m.RecordCache("hit")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"room_booking_http_requests_total",
		"room_booking_http_request_duration_seconds",
		"room_booking_bookings_total",
		"room_booking_rooms_lock_duration_seconds",
		"room_booking_active_bookings",
		"room_booking_room_cache_requests_total",
	}, names)
}

func TestRecordBooking(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordBooking("create", "success")
	m.RecordBooking("create", "success")
	m.RecordBooking("create", "NoAvailableRoom")
	m.RecordBooking("cancel", "Unauthorized")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("create", "NoAvailableRoom")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("cancel", "Unauthorized")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.BookingsTotal))
}

func TestObserveLock(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveLock("acquire", time.Now(), nil)
	m.ObserveLock("acquire", time.Now(), errors.New("busy"))
	m.ObserveLock("release", time.Now(), nil)

	assert.Equal(t, 3, testutil.CollectAndCount(m.DistributedLockDuration))
}

func TestSetActiveBookings(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.SetActiveBookings("room-1", 2)
	m.SetActiveBookings("room-2", 0)
	m.SetActiveBookings("room-1", 1) // キャンセル後に再集計

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveBookings.WithLabelValues("room-1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveBookings.WithLabelValues("room-2")))
}

func TestRecordCache(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordCache("hit")
	m.RecordCache("hit")
	m.RecordCache("miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoomCacheRequests.WithLabelValues("miss")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordBooking("create", "success")
		m.ObserveLock("acquire", time.Now(), nil)
		m.SetActiveBookings("room-1", 1)
		m.RecordCache("miss")
	})
}

func TestGet(t *testing.T) {
	old := defaultMetrics
	defer func() { defaultMetrics = old }()

	// Init はデフォルトレジストリに登録するため、テストでは直接セットする
	m := NewWithRegistry(prometheus.NewRegistry())
	defaultMetrics = m

	assert.Same(t, m, Get())
}
