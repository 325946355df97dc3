// Package fingerprint 가계부 레코드의 중복 판별용 고유 해시를 만든다.
//
// 해시 입력은 "날짜|내용|금액" 이며 분류/결제수단/메모는 포함하지 않는다.
// 금액은 소수점 2자리에서 0에서 먼 쪽으로 반올림한다 (0.125 -> 0.13, -0.125 -> -0.13).
// 반올림은 float 의 최단 10진 표현 기준이므로 2.675 는 2.68 이 된다.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hevi35-coder/Settlement/internal/model"
)

// ErrInvalidInput 날짜/내용/금액 중 하나라도 유효하지 않음
var ErrInvalidInput = errors.New("invalid input: date, content, and amount are required")

const amountPlaces = 2

// Generate 날짜, 내용, 금액으로 SHA-256 해시(hex 64자)를 생성
func Generate(date, content string, amount float64) (string, error) {
	trimmed := strings.TrimSpace(content)
	switch {
	case date == "":
		return "", fmt.Errorf("%w: empty date", ErrInvalidInput)
	case trimmed == "":
		return "", fmt.Errorf("%w: empty content", ErrInvalidInput)
	case math.IsNaN(amount) || math.IsInf(amount, 0):
		return "", fmt.Errorf("%w: amount %v is not finite", ErrInvalidInput, amount)
	}

	input := date + "|" + trimmed + "|" + normalizeAmount(amount).String()
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:]), nil
}

// RoundAmount 금액을 해시와 동일한 규칙으로 소수점 2자리 정규화
func RoundAmount(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return amount
	}
	f, _ := normalizeAmount(amount).Float64()
	return f
}

func normalizeAmount(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(amountPlaces)
}

// Stamp 레코드 묶음에 해시를 일괄 부여
func Stamp(records []model.ExpenseRecord) ([]model.StampedRecord, error) {
	out := make([]model.StampedRecord, 0, len(records))
	for _, r := range records {
		h, err := Generate(r.Date, r.Content, r.Amount)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r.SourceRow, err)
		}
		out = append(out, model.StampedRecord{ExpenseRecord: r, UniqueHash: h})
	}
	return out, nil
}
