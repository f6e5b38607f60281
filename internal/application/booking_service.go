package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	redisinfra "github.com/sanosuguru/go-room-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-room-booking/internal/pkg/metrics"
)

const (
	roomsLockKey     = "rooms"
	lockTTL          = 10 * time.Second
	lockMaxRetries   = 3
	lockRetryDelay   = 100 * time.Millisecond
	seedBookingIDFmt = "seed-%s"
)

// ErrRoomsBusy は他のリクエストが部屋ストアを処理中であることを表す
var ErrRoomsBusy = errors.New("部屋が他のリクエストによって処理中です")

// ErrResetUnsupported はストアが初期化に対応していないことを表す
var ErrResetUnsupported = errors.New("このストアは初期化に対応していません")

// EventPublisher は予約イベントを外部へ通知する
type EventPublisher interface {
	Publish(ctx context.Context, event room.BookingEvent) error
}

type BookingService struct {
	store       room.Store
	newID       room.IDGenerator
	lockManager redisinfra.LockManagerInterface
	publisher   EventPublisher
	metrics     *metrics.Metrics
	now         func() time.Time
}

// BookingServiceOption は BookingService の任意設定
type BookingServiceOption func(*BookingService)

// WithIDGenerator は予約IDの生成方法を差し替える
func WithIDGenerator(gen room.IDGenerator) BookingServiceOption {
	return func(s *BookingService) { s.newID = gen }
}

// WithLockManager は読み取りから保存までを分散ロックで直列化する
func WithLockManager(lm redisinfra.LockManagerInterface) BookingServiceOption {
	return func(s *BookingService) { s.lockManager = lm }
}

// WithEventPublisher は予約イベントの通知先を設定する
func WithEventPublisher(p EventPublisher) BookingServiceOption {
	return func(s *BookingService) { s.publisher = p }
}

// WithMetrics は予約メトリクスの記録先を設定する
func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) { s.metrics = m }
}

func NewBookingService(store room.Store, opts ...BookingServiceOption) *BookingService {
	s := &BookingService{store: store, newID: uuid.NewString, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateBookingInput struct {
	From   string
	To     string
	Guests int
}

// CreateBooking は条件に合う最初の部屋（ListRooms の順）に予約を作成する
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (room.Booking, error) {
	b, err := s.createBooking(ctx, input)
	s.record("create", err)
	return b, err
}

func (s *BookingService) createBooking(ctx context.Context, input CreateBookingInput) (room.Booking, error) {
	if s.store == nil {
		return room.Booking{}, room.ErrInvalidStore
	}

	// 期間の検証は一度だけ行い、部屋選択に使う
	dateRange, err := room.ParseDateRange(input.From, input.To)
	if err != nil {
		return room.Booking{}, err
	}

	held, err := s.lock(ctx)
	if err != nil {
		return room.Booking{}, err
	}
	defer held.release()

	rooms, err := s.loadRooms(ctx)
	if err != nil {
		return room.Booking{}, err
	}

	selected := firstFit(rooms, input.Guests, dateRange)
	if selected == nil {
		return room.Booking{}, room.ErrNoAvailableRoom
	}

	// 集約側で定員と空き状況を再検証する
	updated, booking, err := selected.CreateBooking(room.BookingRequest{
		From: input.From, To: input.To, Guests: input.Guests,
	}, s.newID)
	if err != nil {
		return room.Booking{}, err
	}
	if err := s.store.SaveRoom(ctx, updated); err != nil {
		return room.Booking{}, fmt.Errorf("部屋の保存に失敗: %w", err)
	}

	logger.Info("予約を作成",
		zap.String("booking_id", booking.ID()),
		zap.String("room_id", updated.ID()),
		zap.Stringer("date_range", booking.DateRange()),
		zap.Int("guests", booking.Guests()),
	)
	s.publish(ctx, room.NewBookingEvent(room.EventBookingCreated, updated.ID(), booking, s.now()))
	return booking, nil
}

// firstFit は定員と空き状況を満たす最初の部屋を返す（最適化はしない）
func firstFit(rooms []*room.Room, guests int, dateRange room.DateRange) *room.Room {
	for _, r := range rooms {
		if r != nil && r.CanAccommodate(guests, dateRange) {
			return r
		}
	}
	return nil
}

type CancelBookingInput struct {
	BookingID string
	IsAdmin   bool
}

// CancelBooking は予約を持つ部屋を探してキャンセルを委譲する
func (s *BookingService) CancelBooking(ctx context.Context, input CancelBookingInput) (room.Booking, error) {
	b, err := s.cancelBooking(ctx, input)
	s.record("cancel", err)
	return b, err
}

func (s *BookingService) cancelBooking(ctx context.Context, input CancelBookingInput) (room.Booking, error) {
	if input.BookingID == "" {
		return room.Booking{}, &room.DomainError{Kind: room.KindInvalidID, Message: "キャンセルには有効な予約IDが必要です"}
	}
	if s.store == nil {
		return room.Booking{}, room.ErrInvalidStore
	}

	held, err := s.lock(ctx)
	if err != nil {
		return room.Booking{}, err
	}
	defer held.release()

	rooms, err := s.loadRooms(ctx)
	if err != nil {
		return room.Booking{}, err
	}

	var owner *room.Room
	for _, r := range rooms {
		if r != nil && r.HasBooking(input.BookingID) {
			owner = r
			break
		}
	}
	if owner == nil {
		return room.Booking{}, &room.DomainError{
			Kind:    room.KindBookingNotFound,
			Message: fmt.Sprintf("予約が見つかりません: %s", input.BookingID),
		}
	}

	updated, cancelled, err := owner.CancelBooking(input.BookingID, input.IsAdmin)
	if err != nil {
		return room.Booking{}, err
	}
	if err := s.store.SaveRoom(ctx, updated); err != nil {
		return room.Booking{}, fmt.Errorf("部屋の保存に失敗: %w", err)
	}

	logger.Info("予約をキャンセル",
		zap.String("booking_id", cancelled.ID()),
		zap.String("room_id", updated.ID()),
	)
	s.publish(ctx, room.NewBookingEvent(room.EventBookingCancelled, updated.ID(), cancelled, s.now()))
	return cancelled, nil
}

func (s *BookingService) ListRooms(ctx context.Context) ([]*room.Room, error) {
	if s.store == nil {
		return nil, room.ErrInvalidStore
	}
	return s.store.ListRooms(ctx)
}

// GetRoom はIDで部屋を取得する。ストアが Finder でなければ一覧から探す
func (s *BookingService) GetRoom(ctx context.Context, id string) (*room.Room, error) {
	if s.store == nil {
		return nil, room.ErrInvalidStore
	}
	if f, ok := s.store.(room.Finder); ok {
		return f.GetRoomByID(ctx, id)
	}
	rooms, err := s.store.ListRooms(ctx)
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

// Reset はストアを初期状態に戻す（デモ用）
func (s *BookingService) Reset(ctx context.Context) error {
	resetter, ok := s.store.(room.Resetter)
	if !ok {
		return ErrResetUnsupported
	}
	held, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer held.release()

	return s.reset(ctx, resetter)
}

// reset はロック取得済みの呼び出し元から使う
func (s *BookingService) reset(ctx context.Context, resetter room.Resetter) error {
	if err := resetter.Reset(ctx); err != nil {
		return fmt.Errorf("ストアの初期化に失敗: %w", err)
	}
	logger.Info("ストアを初期化")
	return nil
}

// SeedNoAvailability はストアを初期化し、全ての部屋を指定期間で満室にする（デモ用）
// 初期化から投入までを1回のロック取得で行う
func (s *BookingService) SeedNoAvailability(ctx context.Context, from, to string) (int, error) {
	resetter, ok := s.store.(room.Resetter)
	if !ok {
		return 0, ErrResetUnsupported
	}
	held, err := s.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer held.release()

	if err := s.reset(ctx, resetter); err != nil {
		return 0, err
	}
	rooms, err := s.loadRooms(ctx)
	if err != nil {
		return 0, err
	}
	for _, r := range rooms {
		// 部屋数が多くても途中でロックが失効しないよう延長する
		if err := held.extend(ctx); err != nil {
			return 0, err
		}
		seedID := fmt.Sprintf(seedBookingIDFmt, r.ID())
		updated, _, err := r.CreateBooking(room.BookingRequest{From: from, To: to, Guests: r.Capacity()},
			func() string { return seedID })
		if err != nil {
			return 0, err
		}
		if err := s.store.SaveRoom(ctx, updated); err != nil {
			return 0, fmt.Errorf("部屋の保存に失敗: %w", err)
		}
	}
	logger.Info("満室デモデータを投入", zap.Int("rooms", len(rooms)))
	return len(rooms), nil
}

// loadRooms は判断と保存を行うユースケース用に、キャッシュを経由せず部屋一覧を読む
func (s *BookingService) loadRooms(ctx context.Context) ([]*room.Room, error) {
	var (
		rooms []*room.Room
		err   error
	)
	if src, ok := s.store.(room.SourceReader); ok {
		rooms, err = src.ListSourceRooms(ctx)
	} else {
		rooms, err = s.store.ListRooms(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("部屋一覧の取得に失敗: %w", err)
	}
	return rooms, nil
}

// heldLock は取得済みの部屋ストアのロック。ロックマネージャー未設定なら何もしない
type heldLock struct {
	ctx     context.Context
	lock    redisinfra.Lock
	metrics *metrics.Metrics
}

// lock はロックマネージャーが設定されていればストア全体のロックを取得する
func (s *BookingService) lock(ctx context.Context) (*heldLock, error) {
	if s.lockManager == nil {
		return &heldLock{}, nil
	}

	start := time.Now()
	l, err := s.lockManager.AcquireLockWithRetry(ctx, roomsLockKey, lockTTL, lockMaxRetries, lockRetryDelay)
	s.metrics.ObserveLock("acquire", start, err)
	if err != nil {
		if errors.Is(err, redisinfra.ErrLockNotAcquired) {
			return nil, ErrRoomsBusy
		}
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	return &heldLock{ctx: ctx, lock: l, metrics: s.metrics}, nil
}

func (h *heldLock) extend(ctx context.Context) error {
	if h.lock == nil {
		return nil
	}
	start := time.Now()
	err := h.lock.Extend(ctx, lockTTL)
	h.metrics.ObserveLock("extend", start, err)
	if err != nil {
		return fmt.Errorf("ロック延長に失敗: %w", err)
	}
	return nil
}

func (h *heldLock) release() {
	if h.lock == nil {
		return
	}
	start := time.Now()
	// 呼び出し元の ctx がキャンセルされていても解放は試みる
	err := h.lock.Release(context.WithoutCancel(h.ctx))
	h.metrics.ObserveLock("release", start, err)
	if err != nil {
		logger.Warn("ロック解放に失敗", zap.Error(err))
	}
}

func (s *BookingService) publish(ctx context.Context, event room.BookingEvent) {
	if s.publisher == nil {
		return
	}
	// 保存は完了しているため、通知の失敗は呼び出し元に返さない
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("予約イベントの送信に失敗",
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID),
			zap.Error(err),
		)
	}
}

func (s *BookingService) record(operation string, err error) {
	s.metrics.RecordBooking(operation, outcome(err))
}

// outcome はメトリクス用の結果ラベルを返す
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrRoomsBusy):
		return "lock_failed"
	case errors.Is(err, room.ErrConcurrentUpdate):
		return "conflict"
	case room.IsDomainError(err):
		return string(room.KindOf(err))
	default:
		return "error"
	}
}
