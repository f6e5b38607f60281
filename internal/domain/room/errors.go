package room

import (
	"errors"
	"fmt"
)

// ErrorKind はドメインエラーの種別を表す（プログラムからの判定用）
type ErrorKind string

const (
	KindInvalidID                ErrorKind = "InvalidId"
	KindInvalidCapacity          ErrorKind = "InvalidCapacity"
	KindInvalidGuests            ErrorKind = "InvalidGuests"
	KindInvalidDateRange         ErrorKind = "InvalidDateRange"
	KindInvalidDate              ErrorKind = "InvalidDate"
	KindInvalidRange             ErrorKind = "InvalidRange"
	KindInvalidStatus            ErrorKind = "InvalidStatus"
	KindInvalidBookingCollection ErrorKind = "InvalidBookingCollection"
	KindOverlappingBookings      ErrorKind = "OverlappingBookings"
	KindCapacityExceeded         ErrorKind = "CapacityExceeded"
	KindNotAvailable             ErrorKind = "NotAvailable"
	KindNoAvailableRoom          ErrorKind = "NoAvailableRoom"
	KindUnauthorized             ErrorKind = "Unauthorized"
	KindAlreadyCancelled         ErrorKind = "AlreadyCancelled"
	KindBookingNotFound          ErrorKind = "BookingNotFound"
	KindNotFound                 ErrorKind = "NotFound"
	KindInvalidStore             ErrorKind = "InvalidStore"
)

// DomainError はドメインルール違反を表すエラー
// Kind が同じであればメッセージに関係なく errors.Is で一致する
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is は Kind が一致する DomainError を同一とみなす
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...any) error {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsDomainError は err がドメインエラーかを返す
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// KindOf は err のドメインエラー種別を返す。ドメインエラーでなければ空文字
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Room ドメインのエラー定義
var (
	ErrInvalidID                = &DomainError{Kind: KindInvalidID, Message: "IDが不正です"}
	ErrInvalidCapacity          = &DomainError{Kind: KindInvalidCapacity, Message: "定員は1以上の整数である必要があります"}
	ErrInvalidGuests            = &DomainError{Kind: KindInvalidGuests, Message: "宿泊人数は1以上の整数である必要があります"}
	ErrInvalidDateRange         = &DomainError{Kind: KindInvalidDateRange, Message: "有効な期間が必要です"}
	ErrInvalidDate              = &DomainError{Kind: KindInvalidDate, Message: "日付が不正です"}
	ErrInvalidRange             = &DomainError{Kind: KindInvalidRange, Message: "開始日は終了日より前である必要があります"}
	ErrInvalidStatus            = &DomainError{Kind: KindInvalidStatus, Message: "予約ステータスが不正です"}
	ErrInvalidBookingCollection = &DomainError{Kind: KindInvalidBookingCollection, Message: "部屋の予約一覧に不正な予約が含まれています"}
	ErrOverlappingBookings      = &DomainError{Kind: KindOverlappingBookings, Message: "有効な予約の期間が重複しています"}
	ErrCapacityExceeded         = &DomainError{Kind: KindCapacityExceeded, Message: "宿泊人数が部屋の定員を超えています"}
	ErrNotAvailable             = &DomainError{Kind: KindNotAvailable, Message: "指定期間は部屋が空いていません"}
	ErrNoAvailableRoom          = &DomainError{Kind: KindNoAvailableRoom, Message: "指定の日程と人数で利用できる部屋がありません"}
	ErrUnauthorized             = &DomainError{Kind: KindUnauthorized, Message: "予約をキャンセルできるのは管理者のみです"}
	ErrAlreadyCancelled         = &DomainError{Kind: KindAlreadyCancelled, Message: "予約は既にキャンセルされています"}
	ErrBookingNotFound          = &DomainError{Kind: KindBookingNotFound, Message: "予約が見つかりません"}
	ErrNotFound                 = &DomainError{Kind: KindNotFound, Message: "この部屋に該当する予約はありません"}
	ErrInvalidStore             = &DomainError{Kind: KindInvalidStore, Message: "有効な部屋ストアが必要です"}
)
