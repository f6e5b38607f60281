package room

// IDGenerator は予約IDを生成する関数
type IDGenerator func() string

// BookingRequest は部屋に対する予約作成の入力
type BookingRequest struct {
	From   string
	To     string
	Guests int
}

// Room は部屋の集約ルート
// 予約一覧の整合性（定員・有効予約の非重複）を常に保証する
// 変更操作はすべて新しい Room を返し、元の値は変更されない
type Room struct {
	id       string
	capacity int
	version  int // 楽観的ロック用（ストアが管理する）
	bookings []Booking
}

// NewRoom は部屋を作成する
func NewRoom(id string, capacity int, bookings ...Booking) (*Room, error) {
	return newRoom(id, capacity, 0, bookings)
}

// RestoreRoom は永続化された部屋をバージョン付きで復元する（ストア実装用）
func RestoreRoom(id string, capacity, version int, bookings []Booking) (*Room, error) {
	return newRoom(id, capacity, version, bookings)
}

// newRoom は唯一の構築経路。提案された最終状態全体を検証する
func newRoom(id string, capacity, version int, bookings []Booking) (*Room, error) {
	if id == "" {
		return nil, newError(KindInvalidID, "部屋には有効なIDが必要です")
	}
	if capacity < 1 {
		return nil, newError(KindInvalidCapacity, "定員は1以上の整数である必要があります: %d", capacity)
	}

	owned := make([]Booking, len(bookings))
	copy(owned, bookings)

	if err := checkInvariants(capacity, owned); err != nil {
		return nil, err
	}
	return &Room{id: id, capacity: capacity, version: version, bookings: owned}, nil
}

func checkInvariants(capacity int, bookings []Booking) error {
	seen := make(map[string]struct{}, len(bookings))
	for i, b := range bookings {
		if err := b.validate(); err != nil {
			return newError(KindInvalidBookingCollection, "部屋の予約一覧に不正な予約が含まれています (index=%d): %v", i, err)
		}
		if _, dup := seen[b.id]; dup {
			return newError(KindInvalidBookingCollection, "予約IDが重複しています: %s", b.id)
		}
		seen[b.id] = struct{}{}
		if b.guests > capacity {
			return newError(KindCapacityExceeded, "予約 %s の宿泊人数 %d が定員 %d を超えています", b.id, b.guests, capacity)
		}
	}

	// 有効な予約の全ペアを比較する。部屋あたりの予約数は小さいため O(n²) で十分
	active := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.IsActive() {
			active = append(active, b)
		}
	}
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			if active[i].conflictsWith(active[j]) {
				return newError(KindOverlappingBookings, "予約 %s と %s の期間が重複しています", active[i].id, active[j].id)
			}
		}
	}
	return nil
}

// ID は部屋IDを返す
func (r *Room) ID() string {
	return r.id
}

// Capacity は定員を返す
func (r *Room) Capacity() int {
	return r.capacity
}

// Version はストアが付与したバージョンを返す
func (r *Room) Version() int {
	return r.version
}

// Bookings は予約一覧のコピーを挿入順で返す
func (r *Room) Bookings() []Booking {
	out := make([]Booking, len(r.bookings))
	copy(out, r.bookings)
	return out
}

// ActiveBookings は CREATED 状態の予約のみを返す
func (r *Room) ActiveBookings() []Booking {
	out := make([]Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		if b.IsActive() {
			out = append(out, b)
		}
	}
	return out
}

// FindBooking はIDで予約を探す
func (r *Room) FindBooking(bookingID string) (Booking, bool) {
	for _, b := range r.bookings {
		if b.id == bookingID {
			return b, true
		}
	}
	return Booking{}, false
}

// HasBooking は指定IDの予約をこの部屋が持つかを返す
func (r *Room) HasBooking(bookingID string) bool {
	_, ok := r.FindBooking(bookingID)
	return ok
}

// IsAvailable は指定期間に重なる有効な予約がないかを返す
// キャンセル済みの予約は空き状況を妨げない
func (r *Room) IsAvailable(requested DateRange) bool {
	for _, b := range r.bookings {
		if b.IsActive() && b.dateRange.OverlapsWith(requested) {
			return false
		}
	}
	return true
}

// CanAccommodate は人数と期間の両方で予約を受け入れられるかを返す
func (r *Room) CanAccommodate(guests int, requested DateRange) bool {
	return guests <= r.capacity && r.IsAvailable(requested)
}

// CreateBooking は予約を作成し、予約を追加した新しい部屋と作成した予約を返す
// 呼び出し側の事前チェックに関係なく、定員と空き状況を必ず再検証する
func (r *Room) CreateBooking(req BookingRequest, newID IDGenerator) (*Room, Booking, error) {
	dateRange, err := ParseDateRange(req.From, req.To)
	if err != nil {
		return nil, Booking{}, err
	}
	if req.Guests < 1 {
		return nil, Booking{}, newError(KindInvalidGuests, "宿泊人数は1以上の整数である必要があります: %d", req.Guests)
	}
	if req.Guests > r.capacity {
		return nil, Booking{}, newError(KindCapacityExceeded, "宿泊人数 %d が部屋 %s の定員 %d を超えています", req.Guests, r.id, r.capacity)
	}
	if !r.IsAvailable(dateRange) {
		return nil, Booking{}, newError(KindNotAvailable, "部屋 %s は %s の期間空いていません", r.id, dateRange)
	}
	if newID == nil {
		return nil, Booking{}, newError(KindInvalidID, "予約IDの生成方法が指定されていません")
	}

	booking, err := NewBooking(newID(), dateRange, req.Guests)
	if err != nil {
		return nil, Booking{}, err
	}
	updated, err := r.AddBooking(booking)
	if err != nil {
		return nil, Booking{}, err
	}
	return updated, booking, nil
}

// CancelBooking は予約をキャンセルし、更新後の部屋とキャンセルされた予約を返す
func (r *Room) CancelBooking(bookingID string, isAdmin bool) (*Room, Booking, error) {
	if bookingID == "" {
		return nil, Booking{}, newError(KindInvalidID, "キャンセルには有効な予約IDが必要です")
	}
	if !isAdmin {
		return nil, Booking{}, ErrUnauthorized
	}

	idx := -1
	for i, b := range r.bookings {
		if b.id == bookingID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, Booking{}, newError(KindNotFound, "部屋 %s に予約 %s はありません", r.id, bookingID)
	}

	cancelled, err := r.bookings[idx].Cancel(isAdmin)
	if err != nil {
		return nil, Booking{}, err
	}

	replaced := r.Bookings()
	replaced[idx] = cancelled
	updated, err := r.WithBookings(replaced)
	if err != nil {
		return nil, Booking{}, err
	}
	return updated, cancelled, nil
}

// AddBooking は予約を末尾に追加した新しい部屋を返す
func (r *Room) AddBooking(b Booking) (*Room, error) {
	next := make([]Booking, 0, len(r.bookings)+1)
	next = append(next, r.bookings...)
	next = append(next, b)
	return newRoom(r.id, r.capacity, r.version, next)
}

// WithBookings は予約一覧を置き換えた新しい部屋を返す
func (r *Room) WithBookings(bookings []Booking) (*Room, error) {
	return newRoom(r.id, r.capacity, r.version, bookings)
}
