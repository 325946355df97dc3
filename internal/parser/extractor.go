package parser

import (
	"bytes"
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/hevi35-coder/Settlement/internal/model"
)

// Extractor 가계부 엑셀 추출기
type Extractor struct {
	layout Layout
}

// NewExtractor 추출기 생성
func NewExtractor(layout Layout) *Extractor {
	return &Extractor{layout: layout}
}

// Extract 엑셀 바이트에서 가계부 레코드를 추출
// 행 단위 문제는 report.Errors 로 모으고, 파일 자체를 쓸 수 없을 때만 *StructuralError 를 반환한다.
func (x *Extractor) Extract(fileName string, data []byte, period Period) (*model.ParsedEntryReport, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &StructuralError{Reason: "엑셀 파일을 열 수 없습니다", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &StructuralError{Reason: "시트가 없습니다"}
	}

	// 지정 시트가 없으면 첫 번째 시트 사용
	sheetName := sheets[0]
	if slices.Contains(sheets, x.layout.SheetName) {
		sheetName = x.layout.SheetName
	}

	rows, err := readCells(f, sheetName)
	if err != nil {
		return nil, &StructuralError{Reason: "시트를 읽을 수 없습니다", Err: err}
	}
	if len(rows) == 0 {
		return nil, &StructuralError{Reason: "시트에 데이터가 없습니다"}
	}

	cols, missing := x.mapColumns(rows[0])
	if len(missing) > 0 {
		return nil, &StructuralError{Reason: "필수 컬럼이 누락되었습니다", MissingColumns: missing}
	}

	report := &model.ParsedEntryReport{
		FileName:  fileName,
		SheetName: sheetName,
		TotalRows: len(rows) - 1,
		Errors:    []string{},
		Data:      []model.ExpenseRecord{},
	}

	for i := 1; i < len(rows); i++ {
		out := processRow(rows[i], i+1, cols, period)
		switch {
		case out.err != nil:
			report.Errors = append(report.Errors, out.err.Error())
		case out.record != nil:
			report.Data = append(report.Data, *out.record)
		}
	}

	report.ValidRows = len(report.Data)
	report.Summary = summarize(report.Data)
	return report, nil
}

// mapColumns 헤더 행에서 컬럼 위치를 찾고, 누락된 필수 라벨을 반환
func (x *Extractor) mapColumns(header []Cell) (columnMap, []string) {
	labels := make([]string, len(header))
	for i, c := range header {
		labels[i] = c.String()
	}
	find := func(label string) int {
		if label == "" {
			return -1
		}
		return slices.Index(labels, label)
	}

	var missing []string
	for _, label := range x.layout.RequiredColumns() {
		if find(label) < 0 {
			missing = append(missing, label)
		}
	}

	return columnMap{
		date:          find(x.layout.Date),
		category:      find(x.layout.Category),
		content:       find(x.layout.Content),
		paymentMethod: find(x.layout.PaymentMethod),
		amount:        find(x.layout.Amount),
		memo:          find(x.layout.Memo),
	}, missing
}

// rowOutcome 한 행의 처리 결과: record(정상) / err(오류) / 둘 다 nil(건너뜀)
type rowOutcome struct {
	record *model.ExpenseRecord
	err    *RowError
}

func processRow(row []Cell, rowNum int, cols columnMap, period Period) rowOutcome {
	dateCell := cellAt(row, cols.date)
	if len(row) == 0 || dateCell.IsBlank() {
		return rowOutcome{}
	}

	date, err := NormalizeDate(dateCell)
	if err != nil {
		return rowOutcome{err: &RowError{Row: rowNum, Err: err}}
	}

	// 기간 밖의 행은 금액을 보지 않고 건너뛴다
	if !period.Contains(date) {
		return rowOutcome{}
	}

	amount, err := NormalizeAmount(cellAt(row, cols.amount))
	if err != nil {
		return rowOutcome{err: &RowError{Row: rowNum, Err: err}}
	}

	content := cellAt(row, cols.content).String()
	if content == "" {
		return rowOutcome{err: &RowError{Row: rowNum, Err: errors.New("내용이 비어 있습니다")}}
	}

	return rowOutcome{record: &model.ExpenseRecord{
		Date:          FormatDate(date),
		Category:      cellAt(row, cols.category).String(),
		Content:       content,
		PaymentMethod: cellAt(row, cols.paymentMethod).String(),
		Amount:        amount,
		Memo:          cellAt(row, cols.memo).String(),
		SourceRow:     rowNum,
	}}
}

func cellAt(row []Cell, idx int) Cell {
	if idx < 0 || idx >= len(row) {
		return Cell{}
	}
	return row[idx]
}

// readCells 시트 전체를 Cell 로 읽는다
// 원시 값과 표시 값을 한 번씩 순차로 읽어 셀 종류를 판별한다 (셀 단위 조회 없이 행 수에 선형).
func readCells(f *excelize.File, sheet string) ([][]Cell, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	shown, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}

	out := make([][]Cell, len(raw))
	for r, row := range raw {
		var display []string
		if r < len(shown) {
			display = shown[r]
		}
		cells := make([]Cell, len(row))
		for c, v := range row {
			d := v
			if c < len(display) {
				d = display[c]
			}
			cells[c] = decodeCell(v, d)
		}
		out[r] = cells
	}
	return out, nil
}

var (
	plainNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	errorValues = []string{"#NULL!", "#DIV/0!", "#VALUE!", "#REF!", "#NAME?", "#NUM!", "#N/A", "#GETTING_DATA", "#SPILL!", "#CALC!"}
)

// decodeCell 원시 값(raw)과 표시 값(shown)으로 셀 종류 판별
// 논리값은 원시 값 0/1, 표시 값 TRUE/FALSE 로 드러난다.
func decodeCell(raw, shown string) Cell {
	v := strings.TrimSpace(raw)
	switch {
	case v == "":
		return Cell{}
	case (v == "0" || v == "1") && (shown == "TRUE" || shown == "FALSE"):
		return Cell{Kind: CellOther, Text: shown}
	case slices.Contains(errorValues, v):
		return Cell{Kind: CellOther, Text: v}
	case plainNumber.MatchString(v):
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return Cell{Kind: CellNumber, Number: n, Text: shown}
		}
	}
	return TextCell(raw)
}

func summarize(records []model.ExpenseRecord) model.EntrySummary {
	s := model.EntrySummary{
		Categories:     []string{},
		PaymentMethods: []string{},
	}
	total := decimal.Zero
	for _, r := range records {
		if s.DateRange == nil {
			s.DateRange = &model.DateRange{Start: r.Date, End: r.Date}
		} else {
			s.DateRange.Start = min(s.DateRange.Start, r.Date)
			s.DateRange.End = max(s.DateRange.End, r.Date)
		}
		total = total.Add(decimal.NewFromFloat(r.Amount))
		s.Categories = appendUnique(s.Categories, r.Category)
		s.PaymentMethods = appendUnique(s.PaymentMethods, r.PaymentMethod)
	}
	s.TotalAmount = total.InexactFloat64()
	return s
}
