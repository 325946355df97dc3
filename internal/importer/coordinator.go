package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hevi35-coder/Settlement/internal/archive"
	"github.com/hevi35-coder/Settlement/internal/fingerprint"
	"github.com/hevi35-coder/Settlement/internal/logger"
	"github.com/hevi35-coder/Settlement/internal/model"
	"github.com/hevi35-coder/Settlement/internal/parser"
	"github.com/hevi35-coder/Settlement/internal/store"
)

// ExpenseSaver 지문이 부여된 레코드를 사용자 단위로 멱등 저장하는 저장소
type ExpenseSaver interface {
	SaveExpenses(ctx context.Context, ownerID string, records []model.StampedRecord) (model.PersistResult, error)
}

// ImportJournal 업로드 이력 기록 (선택)
type ImportJournal interface {
	BeginImport(ctx context.Context, id, ownerID, filename string, fileSize int64, fileHash string) error
	FinishImport(ctx context.Context, l store.ImportLog) error
}

// PersistenceError 파싱은 끝났지만 저장에 실패함
// Partial 에는 저장 직전까지의 결과가 담긴다.
type PersistenceError struct {
	Partial *model.IngestionResult
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist expenses: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Coordinator 업로드 수집 조정기
type Coordinator struct {
	walker    *archive.Walker
	extractor *parser.Extractor
	saver     ExpenseSaver
	journal   ImportJournal
	log       zerolog.Logger
}

// Option Coordinator 옵션
type Option func(*Coordinator)

// WithJournal 업로드 이력 기록기 지정
func WithJournal(j ImportJournal) Option {
	return func(c *Coordinator) { c.journal = j }
}

// WithLogger 로거 지정
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// NewCoordinator 조정기 생성
func NewCoordinator(walker *archive.Walker, extractor *parser.Extractor, saver ExpenseSaver, opts ...Option) *Coordinator {
	c := &Coordinator{
		walker:    walker,
		extractor: extractor,
		saver:     saver,
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IngestOptions 수집 옵션
type IngestOptions struct {
	Archive  []byte
	OwnerID  string
	Password string        // 비어 있으면 암호 없는 압축 파일
	Period   parser.Period // 비어 있으면 기간 제한 없음
	Filename string        // 이력/응답용 원본 파일명
}

// ProgressEvent 진행 이벤트
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/info/entry_done/warning/done/error
	Message   string      `json:"message"` // 이벤트 메시지
	Data      interface{} `json:"data"`    // 부가 데이터
	Timestamp time.Time   `json:"timestamp"`
}

// Ingest 압축 파일 하나를 끝까지 처리하고 결과를 반환
// 압축 파일 오류는 archive 패키지의 오류를 그대로 반환하고, 저장 실패는 *PersistenceError 로 감싼다.
func (c *Coordinator) Ingest(ctx context.Context, opts IngestOptions) (*model.IngestionResult, error) {
	return c.ingest(ctx, opts, func(ProgressEvent) {})
}

// Import 수집을 비동기로 실행하고 진행 채널을 반환
// 마지막 이벤트는 done(Data=*model.IngestionResult) 또는 error 이다.
func (c *Coordinator) Import(ctx context.Context, opts IngestOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)

		result, err := c.ingest(ctx, opts, func(evt ProgressEvent) {
			c.sendProgress(progressChan, evt)
		})

		final := ProgressEvent{Type: "done", Message: "업로드 처리 완료", Data: result, Timestamp: time.Now()}
		if err != nil {
			final = ProgressEvent{Type: "error", Message: err.Error(), Timestamp: time.Now()}
			var pe *PersistenceError
			if errors.As(err, &pe) {
				final.Data = pe.Partial
			}
		}

		// 종료 이벤트는 버리지 않는다. 버퍼가 가득 찬 경우에만 취소를 기다린다
		select {
		case progressChan <- final:
		default:
			select {
			case progressChan <- final:
			case <-ctx.Done():
			}
		}
	}()

	return progressChan
}

func (c *Coordinator) ingest(ctx context.Context, opts IngestOptions, emit func(ProgressEvent)) (*model.IngestionResult, error) {
	startTime := time.Now()
	importID := uuid.NewString()
	log := logger.FromContext(ctx, c.log).With().
		Str("import_id", importID).
		Str("owner", opts.OwnerID).
		Logger()

	emit(ProgressEvent{
		Type:    "start",
		Message: "압축 파일 처리 시작",
		Data: map[string]string{
			"import_id": importID,
			"filename":  filepath.Base(opts.Filename),
		},
		Timestamp: time.Now(),
	})

	c.beginJournal(ctx, log, importID, opts)

	entries, err := c.walker.Walk(ctx, opts.Archive, opts.Password)
	if err != nil {
		log.Warn().Err(err).Msg("압축 파일 처리 실패")
		c.finishJournal(ctx, log, store.ImportLog{ID: importID, Status: "failed", ErrorMessage: err.Error()})
		return nil, err
	}

	emit(ProgressEvent{
		Type:      "info",
		Message:   fmt.Sprintf("엑셀 파일 %d 개 발견", len(entries)),
		Data:      map[string]int{"files_found": len(entries)},
		Timestamp: time.Now(),
	})

	result := &model.IngestionResult{
		ImportID:       importID,
		FilesFound:     len(entries),
		ProcessedFiles: []model.ParsedEntryReport{},
		Summary:        model.IngestionSummary{ErrorMessages: []string{}},
	}

	var records []model.ExpenseRecord
	var allErrors []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			c.finishJournal(ctx, log, store.ImportLog{ID: importID, FilesFound: len(entries), Status: "failed", ErrorMessage: err.Error()})
			return nil, err
		}

		report, err := c.extractor.Extract(entry.Name, entry.Data, opts.Period)
		if err != nil {
			log.Warn().Err(err).Str("entry", entry.Name).Msg("엑셀 파일 처리 실패, 건너뜀")
			result.SkippedFiles = append(result.SkippedFiles, model.SkippedEntry{FileName: entry.Name, Reason: err.Error()})
			emit(ProgressEvent{
				Type:      "warning",
				Message:   fmt.Sprintf("%s 건너뜀: %v", entry.Name, err),
				Timestamp: time.Now(),
			})
			continue
		}

		result.ProcessedFiles = append(result.ProcessedFiles, *report)
		records = append(records, report.Data...)
		allErrors = append(allErrors, report.Errors...)
		result.Summary.TotalValidRows += report.ValidRows

		emit(ProgressEvent{
			Type:    "entry_done",
			Message: fmt.Sprintf("%s: %d 행 처리, 오류 %d 건", entry.Name, report.ValidRows, len(report.Errors)),
			Data: map[string]interface{}{
				"file_name":  entry.Name,
				"sheet_name": report.SheetName,
				"valid_rows": report.ValidRows,
				"errors":     len(report.Errors),
			},
			Timestamp: time.Now(),
		})
	}

	result.Summary.TotalErrors = len(allErrors)
	if len(allErrors) > model.MaxErrorMessages {
		allErrors = allErrors[:model.MaxErrorMessages]
	}
	result.Summary.ErrorMessages = append(result.Summary.ErrorMessages, allErrors...)

	if len(records) > 0 {
		if err := ctx.Err(); err != nil {
			c.finishJournal(ctx, log, c.journalEntry(result, "failed", err))
			return nil, err
		}

		stamped, err := fingerprint.Stamp(records)
		if err != nil {
			c.finishJournal(ctx, log, c.journalEntry(result, "failed", err))
			return nil, fmt.Errorf("stamp records: %w", err)
		}

		persisted, err := c.saver.SaveExpenses(ctx, opts.OwnerID, stamped)
		if err != nil {
			log.Error().Err(err).Int("records", len(stamped)).Msg("지출 저장 실패")
			c.finishJournal(ctx, log, c.journalEntry(result, "failed", err))
			return nil, &PersistenceError{Partial: result, Err: err}
		}
		result.Persistence = &persisted
	}

	c.finishJournal(ctx, log, c.journalEntry(result, "completed", nil))

	ev := log.Info().
		Int("files_found", result.FilesFound).
		Int("valid_rows", result.Summary.TotalValidRows).
		Int("errors", result.Summary.TotalErrors).
		Dur("duration", time.Since(startTime))
	if result.Persistence != nil {
		ev = ev.Int("new_records", result.Persistence.NewRecords).
			Int("duplicates_ignored", result.Persistence.DuplicatesIgnored)
	}
	ev.Msg("업로드 처리 완료")

	return result, nil
}

func (c *Coordinator) journalEntry(result *model.IngestionResult, status string, cause error) store.ImportLog {
	l := store.ImportLog{
		ID:         result.ImportID,
		FilesFound: result.FilesFound,
		ValidRows:  result.Summary.TotalValidRows,
		ErrorRows:  result.Summary.TotalErrors,
		Status:     status,
	}
	if result.Persistence != nil {
		l.NewRecords = result.Persistence.NewRecords
		l.DuplicatesIgnored = result.Persistence.DuplicatesIgnored
	}
	if cause != nil {
		l.ErrorMessage = cause.Error()
	}
	return l
}

// beginJournal 이력 기록 실패는 업로드를 막지 않는다
func (c *Coordinator) beginJournal(ctx context.Context, log zerolog.Logger, importID string, opts IngestOptions) {
	if c.journal == nil {
		return
	}
	sum := sha256.Sum256(opts.Archive)
	err := c.journal.BeginImport(ctx, importID, opts.OwnerID, filepath.Base(opts.Filename), int64(len(opts.Archive)), hex.EncodeToString(sum[:]))
	if err != nil {
		log.Warn().Err(err).Msg("업로드 이력 생성 실패")
	}
}

func (c *Coordinator) finishJournal(ctx context.Context, log zerolog.Logger, l store.ImportLog) {
	if c.journal == nil {
		return
	}
	// 취소된 요청이라도 이력은 남긴다
	if err := c.journal.FinishImport(context.WithoutCancel(ctx), l); err != nil {
		log.Warn().Err(err).Msg("업로드 이력 갱신 실패")
	}
}

// sendProgress 진행 이벤트 전송
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 채널이 가득 차면 버린다
	}
}
