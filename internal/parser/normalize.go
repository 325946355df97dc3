package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hevi35-coder/Settlement/internal/fingerprint"
)

// CellKind 셀 값의 종류
type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellText
	CellOther // 논리값, 오류값 (#N/A 등)
)

// Cell 엑셀 셀 값 (숫자/문자/빈 값)
// 숫자 셀의 Text 는 화면에 표시되는 값이며 텍스트 컬럼에 그대로 쓰인다.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
}

// NumberCell 숫자 셀
func NumberCell(v float64) Cell { return Cell{Kind: CellNumber, Number: v} }

// TextCell 문자 셀, 공백뿐이면 빈 셀
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{}
	}
	return Cell{Kind: CellText, Text: s}
}

// IsBlank 날짜 셀 기준의 빈 값 여부 (숫자 0 도 빈 값으로 본다)
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case CellNumber:
		return c.Number == 0
	case CellText:
		return strings.TrimSpace(c.Text) == ""
	case CellOther:
		return false
	default:
		return true
	}
}

// String 텍스트 컬럼용 문자열 값
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		if t := strings.TrimSpace(c.Text); t != "" {
			return t
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellText, CellOther:
		return strings.TrimSpace(c.Text)
	default:
		return ""
	}
}

const dateLayout = "2006-01-02"

// 25569 = 1970-01-01
const unixEpochSerial = 25569

var textDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"20060102",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02 15:04:05",
	"2006.01.02 15:04",
	"2006.01.02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006년 1월 2일",
	"2006년 01월 02일",
	"01/02/2006",
	"1/2/2006",
}

// NormalizeDate 셀 값을 날짜(UTC 자정)로 변환
func NormalizeDate(c Cell) (time.Time, error) {
	switch c.Kind {
	case CellNumber:
		t, err := serialToDate(c.Number)
		if err != nil && c.Text != "" {
			// 20250405 처럼 숫자로 저장된 날짜 문자열
			if d, ok := parseTextDate(c.Text); ok {
				return d, nil
			}
		}
		return t, err
	case CellText:
		if d, ok := parseTextDate(c.Text); ok {
			return d, nil
		}
		// 숫자 문자열로 들어온 시리얼 값
		if v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64); err == nil {
			return serialToDate(v)
		}
		return time.Time{}, &DateParseError{Value: c.Text, Reason: "날짜 파싱 실패"}
	case CellOther:
		return time.Time{}, &DateParseError{Value: c.String(), Reason: "유효하지 않은 날짜 형식"}
	default:
		return time.Time{}, &DateParseError{Reason: "유효하지 않은 날짜 형식"}
	}
}

func parseTextDate(raw string) (time.Time, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".")
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return truncateDate(t), true
		}
	}
	return time.Time{}, false
}

func serialToDate(v float64) (time.Time, error) {
	raw := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}, &DateParseError{Value: raw, Reason: "날짜 파싱 실패"}
	}
	secs := math.Floor((v - unixEpochSerial) * 86400)
	t := time.Unix(int64(secs), 0).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, &DateParseError{Value: raw, Reason: "날짜 파싱 실패"}
	}
	return truncateDate(t), nil
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

var (
	amountStrip  = regexp.MustCompile(`[^\d.\-]`)
	amountPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// NormalizeAmount 셀 값을 소수점 2자리 금액으로 변환
// 문자 셀은 숫자, '.', '-' 이외 문자를 제거한 뒤 앞부분의 숫자를 읽는다 ("-12,000원" -> -12000).
func NormalizeAmount(c Cell) (float64, error) {
	var v float64
	switch c.Kind {
	case CellNumber:
		v = c.Number
	case CellText:
		stripped := amountStrip.ReplaceAllString(c.Text, "")
		m := amountPrefix.FindString(stripped)
		if m == "" {
			return 0, &AmountParseError{Value: c.Text}
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, &AmountParseError{Value: c.Text}
		}
		v = f
	case CellOther:
		return 0, &AmountParseError{Value: c.String()}
	default:
		return 0, &AmountParseError{}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &AmountParseError{Value: c.String()}
	}
	return fingerprint.RoundAmount(v), nil
}
