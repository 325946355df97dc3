package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"
	"github.com/yeka/zip"

	"github.com/hevi35-coder/Settlement/internal/model"
)

// ledgerWorkbook '가계부 내역' 시트 하나짜리 xlsx 바이트
func ledgerWorkbook(t *testing.T, rows ...[]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := "가계부 내역"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	all := append([][]interface{}{{"날짜", "분류", "내용", "결제수단", "금액", "메모"}}, rows...)
	for i, row := range all {
		row := row
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

type zipFile struct {
	name string
	data []byte
}

func buildArchive(t *testing.T, password string, files ...zipFile) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range files {
		var err error
		var w io.Writer
		if password != "" {
			w, err = zw.Encrypt(f.name, password, zip.AES256Encryption)
		} else {
			w, err = zw.Create(f.name)
		}
		if err != nil {
			t.Fatalf("zip create %s: %v", f.name, err)
		}
		if _, err := w.Write(f.data); err != nil {
			t.Fatalf("zip write %s: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// fakeSaver 호출을 기록하는 저장소
type fakeSaver struct {
	mu    sync.Mutex
	calls [][]model.StampedRecord
	err   error
}

func (f *fakeSaver) SaveExpenses(_ context.Context, _ string, records []model.StampedRecord) (model.PersistResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, records)
	if f.err != nil {
		return model.PersistResult{}, f.err
	}
	return model.PersistResult{TotalSubmitted: len(records), NewRecords: len(records)}, nil
}

var errDBDown = errors.New("database unavailable")
