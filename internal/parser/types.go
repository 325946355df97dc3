package parser

import (
	"fmt"
	"strings"
	"time"
)

// Layout 가계부 시트 형태 (시트 이름과 헤더 라벨)
type Layout struct {
	SheetName     string
	Date          string
	Category      string
	Content       string
	PaymentMethod string
	Amount        string
	Memo          string // 선택 컬럼
}

// DefaultLayout 기본 가계부 내보내기 형식
func DefaultLayout() Layout {
	return Layout{
		SheetName:     "가계부 내역",
		Date:          "날짜",
		Category:      "분류",
		Content:       "내용",
		PaymentMethod: "결제수단",
		Amount:        "금액",
		Memo:          "메모",
	}
}

// RequiredColumns 필수 컬럼 라벨 (누락 보고 순서)
func (l Layout) RequiredColumns() []string {
	return []string{l.Date, l.Category, l.Content, l.PaymentMethod, l.Amount}
}

// columnMap 헤더 라벨 -> 열 인덱스, 메모는 없으면 -1
type columnMap struct {
	date, category, content, paymentMethod, amount, memo int
}

// Period 기간 필터 (양 끝 포함), nil 은 제한 없음
type Period struct {
	Start *time.Time
	End   *time.Time
}

// IsZero 필터가 없는지
func (p Period) IsZero() bool {
	return p.Start == nil && p.End == nil
}

// Contains 날짜가 기간 안에 있는지
func (p Period) Contains(d time.Time) bool {
	if p.Start != nil && d.Before(*p.Start) {
		return false
	}
	if p.End != nil && d.After(*p.End) {
		return false
	}
	return true
}

// ParsePeriod YYYY-MM-DD 문자열로 기간 생성, 빈 문자열은 제한 없음
func ParsePeriod(start, end string) (Period, error) {
	var p Period
	if s := strings.TrimSpace(start); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return Period{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		p.Start = &t
	}
	if s := strings.TrimSpace(end); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return Period{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		p.End = &t
	}
	if p.Start != nil && p.End != nil && p.End.Before(*p.Start) {
		return Period{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return p, nil
}
