package parser

import (
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

type sheetFixture struct {
	name string
	rows [][]interface{}
}

// buildWorkbook 주어진 시트 순서대로 xlsx 바이트를 만든다
func buildWorkbook(t *testing.T, sheets ...sheetFixture) []byte {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatalf("NewSheet(%s): %v", s.name, err)
		}
		for r, row := range s.rows {
			if row == nil {
				continue
			}
			row := row
			if err := f.SetSheetRow(s.name, fmt.Sprintf("A%d", r+1), &row); err != nil {
				t.Fatalf("SetSheetRow(%s, %d): %v", s.name, r+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func ledgerHeader() []interface{} {
	return []interface{}{"날짜", "분류", "내용", "결제수단", "금액", "메모"}
}

// buildLargeLedger StreamWriter 로 rows 행짜리 가계부를 만든다
func buildLargeLedger(t *testing.T, rows int) []byte {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	sheet := "가계부 내역"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		t.Fatalf("NewStreamWriter: %v", err)
	}
	if err := sw.SetRow("A1", ledgerHeader()); err != nil {
		t.Fatalf("SetRow header: %v", err)
	}
	for i := 0; i < rows; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{45658 + i%365, "식비", fmt.Sprintf("항목 %d", i), "카드", -(i%9000 + 100), "메모"}
		if err := sw.SetRow(cell, row); err != nil {
			t.Fatalf("SetRow %d: %v", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}
