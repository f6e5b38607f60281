package room

// BookingStatus は予約の状態を表す
type BookingStatus string

const (
	BookingStatusCreated   BookingStatus = "CREATED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) valid() bool {
	return s == BookingStatusCreated || s == BookingStatusCancelled
}

// Booking は予約エンティティを表す
// 値として扱い、状態変更は常に新しい Booking を返す
type Booking struct {
	id        string
	dateRange DateRange
	guests    int
	status    BookingStatus
}

// NewBooking は CREATED 状態の予約を作成する
func NewBooking(id string, dateRange DateRange, guests int) (Booking, error) {
	b := Booking{id: id, dateRange: dateRange, guests: guests, status: BookingStatusCreated}
	if err := b.validate(); err != nil {
		return Booking{}, err
	}
	return b, nil
}

// RestoreBooking は永続化された予約を復元する（ストア実装用）
// CANCELLED は通常のキャンセル遷移を経由して復元する
func RestoreBooking(id string, dateRange DateRange, guests int, status BookingStatus) (Booking, error) {
	if !status.valid() {
		return Booking{}, newError(KindInvalidStatus, "予約ステータスが不正です: %q", status)
	}
	b, err := NewBooking(id, dateRange, guests)
	if err != nil {
		return Booking{}, err
	}
	if status == BookingStatusCancelled {
		return b.Cancel(true)
	}
	return b, nil
}

// Cancel は予約をキャンセルした新しい Booking を返す
// 拒否された場合、元の予約は変更されない
func (b Booking) Cancel(isAdmin bool) (Booking, error) {
	if !isAdmin {
		return Booking{}, ErrUnauthorized
	}
	if b.status == BookingStatusCancelled {
		return Booking{}, ErrAlreadyCancelled
	}
	cancelled := b
	cancelled.status = BookingStatusCancelled
	return cancelled, nil
}

// ID は予約IDを返す
func (b Booking) ID() string {
	return b.id
}

// DateRange は宿泊期間を返す
func (b Booking) DateRange() DateRange {
	return b.dateRange
}

// Guests は宿泊人数を返す
func (b Booking) Guests() int {
	return b.guests
}

// Status は予約の状態を返す
func (b Booking) Status() BookingStatus {
	return b.status
}

// IsActive は予約が有効（CREATED）かを返す
func (b Booking) IsActive() bool {
	return b.status == BookingStatusCreated
}

func (b Booking) conflictsWith(o Booking) bool {
	return b.IsActive() && o.IsActive() && b.dateRange.OverlapsWith(o.dateRange)
}

func (b Booking) validate() error {
	if b.id == "" {
		return newError(KindInvalidID, "予約には有効なIDが必要です")
	}
	if !b.dateRange.isValid() {
		return ErrInvalidDateRange
	}
	if b.guests < 1 {
		return newError(KindInvalidGuests, "宿泊人数は1以上の整数である必要があります: %d", b.guests)
	}
	if !b.status.valid() {
		return ErrInvalidStatus
	}
	return nil
}
