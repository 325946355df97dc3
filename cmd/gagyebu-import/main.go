package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/hevi35-coder/Settlement/internal/archive"
	"github.com/hevi35-coder/Settlement/internal/config"
	"github.com/hevi35-coder/Settlement/internal/importer"
	"github.com/hevi35-coder/Settlement/internal/logger"
	"github.com/hevi35-coder/Settlement/internal/model"
	"github.com/hevi35-coder/Settlement/internal/parser"
	"github.com/hevi35-coder/Settlement/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, logger.New())
	stop()
	os.Exit(code)
}

// run 종료 코드를 반환한다. 저장소는 반환 전에 항상 닫힌다.
func run(ctx context.Context, args []string, stdout io.Writer, log zerolog.Logger) int {
	fs := flag.NewFlagSet("gagyebu-import", flag.ContinueOnError)
	zipPath := fs.String("file", "", "가계부 ZIP 파일 경로")
	owner := fs.String("user", "", "사용자 ID")
	start := fs.String("start", "", "시작일 (YYYY-MM-DD)")
	end := fs.String("end", "", "종료일 (YYYY-MM-DD)")
	configPath := fs.String("config", "", "config.toml 경로 (기본: 실행 파일 옆)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *zipPath == "" || *owner == "" {
		fmt.Fprintln(os.Stderr, "usage: gagyebu-import -file ledger.zip -user <id> [-start YYYY-MM-DD] [-end YYYY-MM-DD]")
		return 2
	}

	var (
		cfg *config.AppConfig
		err error
	)
	if *configPath != "" {
		cfg, _, err = config.LoadFile(*configPath)
	} else {
		cfg, _, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		log.Error().Err(err).Msg("설정 로드 실패")
		return 1
	}

	period, err := parser.ParsePeriod(*start, *end)
	if err != nil {
		log.Error().Err(err).Msg("기간이 올바르지 않습니다")
		return 2
	}

	data, err := os.ReadFile(*zipPath)
	if err != nil {
		log.Error().Err(err).Str("file", *zipPath).Msg("파일을 읽을 수 없습니다")
		return 1
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Error().Err(err).Msg("데이터 디렉터리 생성 실패")
		return 1
	}
	st, err := store.New(config.DBPath(dataDir))
	if err != nil {
		log.Error().Err(err).Msg("데이터베이스 초기화 실패")
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("데이터베이스 종료 실패")
		}
	}()

	coord := importer.NewCoordinator(
		archive.NewWalker(cfg.Upload.Extension, log),
		parser.NewExtractor(cfg.LedgerLayout()),
		st,
		importer.WithJournal(st),
		importer.WithLogger(log),
	)

	result, err := coord.Ingest(ctx, importer.IngestOptions{
		Archive:  data,
		OwnerID:  *owner,
		Password: cfg.Upload.ArchivePassword,
		Period:   period,
		Filename: filepath.Base(*zipPath),
	})
	if err != nil {
		var pe *importer.PersistenceError
		switch {
		case errors.Is(err, archive.ErrArchiveOpen):
			log.Error().Err(err).Msg("ZIP 파일 압축 해제 실패, 비밀번호를 확인하세요")
		case errors.Is(err, archive.ErrNoRecognizedFiles):
			log.Error().Err(err).Msg("ZIP 파일 안에 엑셀 파일이 없습니다")
		case errors.As(err, &pe):
			log.Error().Err(pe.Err).Int("processed_files", len(pe.Partial.ProcessedFiles)).Msg("데이터베이스 저장 실패")
		default:
			log.Error().Err(err).Msg("업로드 처리 실패")
		}
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(struct {
		ImportID    string                 `json:"importId"`
		FilesFound  int                    `json:"filesFound"`
		Skipped     []model.SkippedEntry   `json:"skippedFiles,omitempty"`
		Summary     model.IngestionSummary `json:"summary"`
		Persistence *model.PersistResult   `json:"dbResult"`
	}{result.ImportID, result.FilesFound, result.SkippedFiles, result.Summary, result.Persistence})
	return 0
}
