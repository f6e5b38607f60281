package room

import (
	"strings"
	"time"
)

// DateLayout は日付の標準フォーマット
const DateLayout = "2006-01-02"

var acceptedLayouts = []string{DateLayout, time.RFC3339, time.RFC3339Nano}

// DateRange は半開区間 [from, to) の宿泊期間を表す値オブジェクト
// to はチェックアウト日で、同日を次の予約のチェックイン日にできる
type DateRange struct {
	from time.Time
	to   time.Time
}

// NewDateRange は期間を作成する。日付はUTCの暦日に正規化される
func NewDateRange(from, to time.Time) (DateRange, error) {
	if from.IsZero() {
		return DateRange{}, newError(KindInvalidDate, "期間には 'from' が必要です")
	}
	if to.IsZero() {
		return DateRange{}, newError(KindInvalidDate, "期間には 'to' が必要です")
	}
	f, t := calendarDate(from), calendarDate(to)
	if !f.Before(t) {
		return DateRange{}, newError(KindInvalidRange, "'from' は 'to' より前の日付である必要があります")
	}
	return DateRange{from: f, to: t}, nil
}

// ParseDateRange は文字列から期間を作成する（YYYY-MM-DD または RFC3339）
func ParseDateRange(from, to string) (DateRange, error) {
	f, err := parseDate(from, "from")
	if err != nil {
		return DateRange{}, err
	}
	t, err := parseDate(to, "to")
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(f, t)
}

func parseDate(value, field string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, newError(KindInvalidDate, "期間には '%s' が必要です", field)
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newError(KindInvalidDate, "'%s' の日付が不正です: %s", field, value)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// From はチェックイン日を返す
func (r DateRange) From() time.Time {
	return r.from
}

// To はチェックアウト日を返す
func (r DateRange) To() time.Time {
	return r.to
}

// OverlapsWith は2つの期間が重なるかを返す（端点が接するだけなら重ならない）
func (r DateRange) OverlapsWith(other DateRange) bool {
	return r.from.Before(other.to) && other.from.Before(r.to)
}

// Nights は宿泊数を返す
func (r DateRange) Nights() int {
	return int(r.to.Sub(r.from).Hours() / 24)
}

func (r DateRange) isValid() bool {
	return !r.from.IsZero() && r.from.Before(r.to)
}

func (r DateRange) String() string {
	return r.from.Format(DateLayout) + "/" + r.to.Format(DateLayout)
}
