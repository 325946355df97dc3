package parser

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func mustPeriod(t *testing.T, start, end string) Period {
	t.Helper()
	p, err := ParsePeriod(start, end)
	if err != nil {
		t.Fatalf("ParsePeriod: %v", err)
	}
	return p
}

func TestExtract_LedgerSheet(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t,
		sheetFixture{name: "요약", rows: [][]interface{}{{"무시", "되는", "시트"}}},
		sheetFixture{name: "가계부 내역", rows: [][]interface{}{
			ledgerHeader(),
			{45658, "식비", "점심", "카드", -12000, "회사 근처"},
			{"2025-01-02", "교통비", "지하철", "교통카드", "-1,400원"},
			nil, // 빈 행
			{"", "식비", "날짜 없음", "카드", -100},
			{"2025-01-03", "", " 커피 ", "", -4500.555, ""},
		}},
	)

	rep, err := NewExtractor(DefaultLayout()).Extract("2025-01.xlsx", data, Period{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if rep.FileName != "2025-01.xlsx" || rep.SheetName != "가계부 내역" {
		t.Fatalf("unexpected file/sheet: %s / %s", rep.FileName, rep.SheetName)
	}
	if rep.TotalRows != 5 {
		t.Fatalf("TotalRows=%d want 5", rep.TotalRows)
	}
	if rep.ValidRows != 3 || len(rep.Data) != 3 {
		t.Fatalf("ValidRows=%d data=%d want 3", rep.ValidRows, len(rep.Data))
	}
	if len(rep.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", rep.Errors)
	}

	first := rep.Data[0]
	if first.Date != "2025-01-01" || first.Category != "식비" || first.Content != "점심" ||
		first.PaymentMethod != "카드" || first.Amount != -12000 || first.Memo != "회사 근처" || first.SourceRow != 2 {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if rep.Data[1].Amount != -1400 || rep.Data[1].Memo != "" {
		t.Fatalf("unexpected second record: %+v", rep.Data[1])
	}
	third := rep.Data[2]
	if third.Content != "커피" || third.Category != "" || third.PaymentMethod != "" || third.Amount != -4500.56 || third.SourceRow != 6 {
		t.Fatalf("unexpected third record: %+v", third)
	}

	if rep.Summary.DateRange == nil || rep.Summary.DateRange.Start != "2025-01-01" || rep.Summary.DateRange.End != "2025-01-03" {
		t.Fatalf("unexpected date range: %+v", rep.Summary.DateRange)
	}
	if rep.Summary.TotalAmount != -17900.56 {
		t.Fatalf("TotalAmount=%v", rep.Summary.TotalAmount)
	}
	if !slices.Equal(rep.Summary.Categories, []string{"식비", "교통비", ""}) {
		t.Fatalf("Categories=%v", rep.Summary.Categories)
	}
}

func TestExtract_FallbackToFirstSheet(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t,
		sheetFixture{name: "Sheet A", rows: [][]interface{}{
			{"날짜", "분류", "내용", "결제수단", "금액"},
			{"2025-02-01", "식비", "저녁", "현금", 20000},
		}},
		sheetFixture{name: "Sheet B", rows: [][]interface{}{{"other"}}},
	)

	rep, err := NewExtractor(DefaultLayout()).Extract("a.xlsx", data, Period{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rep.SheetName != "Sheet A" {
		t.Fatalf("SheetName=%s want first sheet", rep.SheetName)
	}
	if rep.ValidRows != 1 || rep.Data[0].Memo != "" {
		t.Fatalf("unexpected data: %+v", rep.Data)
	}
}

func TestExtract_MissingColumns(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, sheetFixture{name: "가계부 내역", rows: [][]interface{}{
		{"날짜", "내용", "결제수단", "금액"},
		{"2025-01-01", "점심", "카드", -12000},
	}})

	rep, err := NewExtractor(DefaultLayout()).Extract("x.xlsx", data, Period{})
	if rep != nil {
		t.Fatalf("expected no report, got %+v", rep)
	}
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("want StructuralError, got %v", err)
	}
	if !errors.Is(err, ErrStructural) {
		t.Fatalf("errors.Is(ErrStructural) should hold")
	}
	if !slices.Equal(se.MissingColumns, []string{"분류"}) {
		t.Fatalf("MissingColumns=%v", se.MissingColumns)
	}
	if se.Error() != "필수 컬럼이 누락되었습니다: 분류" {
		t.Fatalf("message=%q", se.Error())
	}
}

func TestExtract_BadAmountKeepsNeighbours(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, sheetFixture{name: "가계부 내역", rows: [][]interface{}{
		ledgerHeader(),
		{"2025-01-01", "식비", "아침", "카드", -5000},
		{"2025-01-01", "식비", "점심", "카드", "잘못된금액"},
		{"2025-01-02", "식비", "저녁", "카드", -9000},
		{"잘못된날짜", "식비", "야식", "카드", -3000},
		{"2025-01-03", "식비", "   ", "카드", -1000},
	}})

	rep, err := NewExtractor(DefaultLayout()).Extract("x.xlsx", data, Period{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rep.ValidRows != 2 || rep.Data[0].Content != "아침" || rep.Data[1].Content != "저녁" {
		t.Fatalf("unexpected data: %+v", rep.Data)
	}
	want := []string{
		"행 3: 유효하지 않은 금액: 잘못된금액",
		"행 5: 날짜 파싱 실패: 잘못된날짜",
		"행 6: 내용이 비어 있습니다",
	}
	if !slices.Equal(rep.Errors, want) {
		t.Fatalf("Errors=%q\nwant=%q", rep.Errors, want)
	}
}

func TestExtract_PeriodFilter(t *testing.T) {
	t.Parallel()

	dates := []string{"2024-12-25", "2024-12-31", "2025-01-01", "2025-01-20", "2025-02-28", "2025-03-01", "2025-12-31"}
	rows := [][]interface{}{ledgerHeader()}
	for _, d := range dates {
		rows = append(rows, []interface{}{d, "식비", "항목 " + d, "카드", -1000})
	}
	// 기간 밖 + 금액 오류: 오류로 집계되지 않아야 한다
	rows = append(rows, []interface{}{"2025-06-01", "식비", "기간 밖", "카드", "잘못된금액"})

	data := buildWorkbook(t, sheetFixture{name: "가계부 내역", rows: rows})

	rep, err := NewExtractor(DefaultLayout()).Extract("x.xlsx", data, mustPeriod(t, "2025-01-01", "2025-02-28"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	var got []string
	for _, r := range rep.Data {
		got = append(got, r.Date)
	}
	if !slices.Equal(got, []string{"2025-01-01", "2025-01-20", "2025-02-28"}) {
		t.Fatalf("filtered dates=%v", got)
	}
	if len(rep.Errors) != 0 {
		t.Fatalf("out-of-range rows must not produce errors: %v", rep.Errors)
	}
	if rep.TotalRows != len(dates)+1 {
		t.Fatalf("TotalRows=%d", rep.TotalRows)
	}
}

func TestExtract_OpenEndedPeriod(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, sheetFixture{name: "가계부 내역", rows: [][]interface{}{
		ledgerHeader(),
		{"2024-12-31", "식비", "a", "카드", -1},
		{"2025-01-01", "식비", "b", "카드", -1},
	}})

	rep, err := NewExtractor(DefaultLayout()).Extract("x.xlsx", data, mustPeriod(t, "2025-01-01", ""))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if rep.ValidRows != 1 || rep.Data[0].Content != "b" {
		t.Fatalf("unexpected data: %+v", rep.Data)
	}
}

func TestExtract_StructuralFailures(t *testing.T) {
	t.Parallel()

	x := NewExtractor(DefaultLayout())

	if _, err := x.Extract("broken.xlsx", []byte("definitely not a workbook"), Period{}); !errors.Is(err, ErrStructural) {
		t.Fatalf("garbage bytes: want structural error, got %v", err)
	}

	empty := buildWorkbook(t, sheetFixture{name: "가계부 내역"})
	_, err := x.Extract("empty.xlsx", empty, Period{})
	var se *StructuralError
	if !errors.As(err, &se) || se.Reason != "시트에 데이터가 없습니다" {
		t.Fatalf("empty sheet: got %v", err)
	}
}

func TestExtract_CustomLayout(t *testing.T) {
	t.Parallel()

	layout := Layout{
		SheetName:     "Ledger",
		Date:          "Date",
		Category:      "Category",
		Content:       "Description",
		PaymentMethod: "Method",
		Amount:        "Amount",
	}
	data := buildWorkbook(t, sheetFixture{name: "Ledger", rows: [][]interface{}{
		{"Amount", "Description", "Date", "Method", "Category", "메모"},
		{-3.5, "Tea", "2025-04-01", "Cash", "Food", "ignored"},
	}})

	rep, err := NewExtractor(layout).Extract("en.xlsx", data, Period{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	r := rep.Data[0]
	if r.Date != "2025-04-01" || r.Content != "Tea" || r.Amount != -3.5 || r.Category != "Food" || r.Memo != "" {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	p, err := ParsePeriod("", "")
	if err != nil || !p.IsZero() {
		t.Fatalf("empty period: %+v %v", p, err)
	}
	if _, err := ParsePeriod("2025/01/01", ""); err == nil {
		t.Fatalf("expected invalid start date error")
	}
	if _, err := ParsePeriod("2025-02-01", "2025-01-01"); err == nil {
		t.Fatalf("expected reversed range error")
	}
	p = mustPeriod(t, "2025-01-01", "2025-01-31")
	d, _ := NormalizeDate(TextCell("2025-01-31"))
	if !p.Contains(d) {
		t.Fatalf("end date should be inclusive")
	}
}

func TestExtract_BooleanDateRejected(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, sheetFixture{name: "가계부 내역", rows: [][]interface{}{
		ledgerHeader(),
		{true, "식비", "a", "카드", -1000},
		{"2025-01-02", "식비", "b", "카드", true},
		{"2025-01-03", "식비", "c", "카드", -3000},
	}})

	rep, err := NewExtractor(DefaultLayout()).Extract("x.xlsx", data, Period{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{
		"행 2: 유효하지 않은 날짜 형식: TRUE",
		"행 3: 유효하지 않은 금액: TRUE",
	}
	if !slices.Equal(rep.Errors, want) {
		t.Fatalf("Errors=%q\nwant=%q", rep.Errors, want)
	}
	if rep.ValidRows != 1 || rep.Data[0].Content != "c" {
		t.Fatalf("unexpected data: %+v", rep.Data)
	}
}

func TestExtract_NumericTextColumnsKeepDisplay(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, sheetFixture{name: "가계부 내역", rows: [][]interface{}{
		ledgerHeader(),
		{20250405, "007", 12000, "카드", -1000, 3.5},
	}})

	rep, err := NewExtractor(DefaultLayout()).Extract("x.xlsx", data, Period{})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(rep.Errors) != 0 || rep.ValidRows != 1 {
		t.Fatalf("errors=%v valid=%d", rep.Errors, rep.ValidRows)
	}
	r := rep.Data[0]
	if r.Date != "2025-04-05" || r.Category != "007" || r.Content != "12000" || r.Memo != "3.5" {
		t.Fatalf("unexpected record: %+v", r)
	}
}

func TestDecodeCell(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw, shown string
		kind       CellKind
	}{
		{"", "", CellEmpty},
		{"   ", "   ", CellEmpty},
		{"1", "TRUE", CellOther},
		{"0", "FALSE", CellOther},
		{"1", "1", CellNumber},
		{"#N/A", "#N/A", CellOther},
		{"45658", "01-01-25", CellNumber},
		{"-1.5E-3", "-0.0015", CellNumber},
		{"-1,400원", "-1,400원", CellText},
		{"NaN", "NaN", CellText},
		{"0x10", "0x10", CellText},
		{"2025-01-01", "2025-01-01", CellText},
	}
	for _, tc := range cases {
		if got := decodeCell(tc.raw, tc.shown); got.Kind != tc.kind {
			t.Fatalf("decodeCell(%q, %q) kind=%v want %v", tc.raw, tc.shown, got.Kind, tc.kind)
		}
	}

	if c := decodeCell("45658", "01-01-25"); c.Number != 45658 || c.String() != "01-01-25" {
		t.Fatalf("number cell should keep its display text: %+v", c)
	}
}

func TestExtract_ScalesLinearly(t *testing.T) {
	if testing.Short() {
		t.Skip("large workbook")
	}

	x := NewExtractor(DefaultLayout())
	measure := func(rows int) time.Duration {
		data := buildLargeLedger(t, rows)
		start := time.Now()
		rep, err := x.Extract("big.xlsx", data, Period{})
		if err != nil {
			t.Fatalf("Extract(%d rows): %v", rows, err)
		}
		if rep.ValidRows != rows {
			t.Fatalf("ValidRows=%d want %d", rep.ValidRows, rows)
		}
		return time.Since(start)
	}

	small := measure(5_000)
	large := measure(40_000)

	// 행 수 8배: 선형이면 약 8배, 제곱이면 약 64배
	if large > 24*small+time.Second {
		t.Fatalf("extraction grows faster than linear: 5k=%v 40k=%v", small, large)
	}
	if large > 20*time.Second {
		t.Fatalf("40k rows took %v", large)
	}
}
