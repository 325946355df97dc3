package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStructural 파일 단위 구조 오류 (errors.Is 용)
var ErrStructural = errors.New("structural error")

// StructuralError 엑셀 파일 자체를 처리할 수 없는 경우
// 해당 파일만 제외되고 나머지 파일은 계속 처리된다.
type StructuralError struct {
	Reason         string
	MissingColumns []string
	Err            error
}

func (e *StructuralError) Error() string {
	msg := e.Reason
	if len(e.MissingColumns) > 0 {
		msg = fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.MissingColumns, ", "))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *StructuralError) Unwrap() error { return e.Err }

func (e *StructuralError) Is(target error) bool { return target == ErrStructural }

// DateParseError 날짜 셀 변환 실패
type DateParseError struct {
	Value  string
	Reason string
}

func (e *DateParseError) Error() string {
	if e.Value == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Value)
}

// AmountParseError 금액 셀 변환 실패
type AmountParseError struct {
	Value string
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("유효하지 않은 금액: %s", e.Value)
}

// RowError 행 단위 오류, 해당 행만 건너뛴다
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("행 %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
