package model

// ExpenseRecord 정규화된 가계부 한 건
type ExpenseRecord struct {
	Date          string  `json:"date"` // YYYY-MM-DD
	Category      string  `json:"category"`
	Content       string  `json:"content"`
	PaymentMethod string  `json:"paymentMethod"`
	Amount        float64 `json:"amount"` // 소수점 2자리로 정규화됨
	Memo          string  `json:"memo"`
	SourceRow     int     `json:"sourceRow"` // 진단용, 식별에는 쓰이지 않음
}

// StampedRecord 지문이 부여된 저장 대기 레코드
type StampedRecord struct {
	ExpenseRecord
	UniqueHash string `json:"uniqueHash"`
}

// DateRange 날짜 범위 (YYYY-MM-DD)
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EntrySummary 파일 단위 요약
type EntrySummary struct {
	DateRange      *DateRange `json:"dateRange"`
	TotalAmount    float64    `json:"totalAmount"`
	Categories     []string   `json:"categories"`
	PaymentMethods []string   `json:"paymentMethods"`
}

// ParsedEntryReport 압축 파일 내 엑셀 한 개의 파싱 결과
type ParsedEntryReport struct {
	FileName  string          `json:"fileName"`
	SheetName string          `json:"sheetName"`
	TotalRows int             `json:"totalRows"`
	ValidRows int             `json:"validRows"`
	Errors    []string        `json:"errors"`
	Data      []ExpenseRecord `json:"data"`
	Summary   EntrySummary    `json:"summary"`
}

// SkippedEntry 구조 오류로 제외된 엑셀 파일
type SkippedEntry struct {
	FileName string `json:"fileName"`
	Reason   string `json:"reason"`
}

// PersistResult 저장 결과
type PersistResult struct {
	TotalSubmitted    int `json:"totalSubmitted"`
	NewRecords        int `json:"newRecords"`
	DuplicatesIgnored int `json:"duplicatesIgnored"`
}

// IngestionSummary 전체 요약
type IngestionSummary struct {
	TotalValidRows int      `json:"totalValidRows"`
	TotalErrors    int      `json:"totalErrors"`
	ErrorMessages  []string `json:"errorMessages"` // 최대 MaxErrorMessages 개
}

// MaxErrorMessages 요약에 포함하는 오류 메시지 최대 개수
const MaxErrorMessages = 10

// IngestionResult 업로드 한 번의 전체 결과
type IngestionResult struct {
	ImportID       string              `json:"importId"`
	FilesFound     int                 `json:"filesFound"`
	ProcessedFiles []ParsedEntryReport `json:"processedFiles"`
	SkippedFiles   []SkippedEntry      `json:"skippedFiles,omitempty"`
	Summary        IngestionSummary    `json:"summary"`
	Persistence    *PersistResult      `json:"persistence"`
}
