// Package archive 업로드된 ZIP 에서 가계부 엑셀 파일을 꺼낸다.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yeka/zip"
)

var (
	// ErrArchiveOpen 압축 파일을 열 수 없음 (손상되었거나 비밀번호가 틀림)
	ErrArchiveOpen = errors.New("archive: cannot open")
	// ErrNoRecognizedFiles 압축 파일 안에 엑셀 파일이 없음
	ErrNoRecognizedFiles = errors.New("archive: no recognized spreadsheet files")
)

// DefaultExtension 인식하는 엑셀 확장자
const DefaultExtension = ".xlsx"

// Entry 압축 파일 안의 엑셀 한 개
type Entry struct {
	Name string
	Data []byte
}

// Walker 압축 해제기
type Walker struct {
	extension string
	log       zerolog.Logger
}

// NewWalker 확장자(대소문자 무시)가 일치하는 항목만 꺼내는 Walker 생성
func NewWalker(extension string, log zerolog.Logger) *Walker {
	if extension == "" {
		extension = DefaultExtension
	}
	return &Walker{
		extension: strings.ToLower(extension),
		log:       log,
	}
}

// Walk 압축 파일에서 엑셀 항목을 순서대로 꺼낸다
// password 가 비어 있으면 암호화되지 않은 압축 파일로 취급한다.
func (w *Walker) Walk(ctx context.Context, data []byte, password string) ([]Entry, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveOpen, err)
	}

	var entries []Entry
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), w.extension) {
			continue
		}

		content, err := w.readEntry(f, password)
		if err != nil {
			// 암호화 항목의 실패는 비밀번호 문제로 본다 (ZipCrypto 는 틀린 비밀번호를 체크섬 오류로만 드러낸다)
			if f.IsEncrypted() {
				return nil, fmt.Errorf("%w: %s: %v", ErrArchiveOpen, f.Name, err)
			}
			w.log.Warn().Err(err).Str("entry", f.Name).Msg("압축 항목 추출 실패, 건너뜀")
			continue
		}
		entries = append(entries, Entry{Name: f.Name, Data: content})
	}

	if len(entries) == 0 {
		return nil, ErrNoRecognizedFiles
	}
	return entries, nil
}

func (w *Walker) readEntry(f *zip.File, password string) ([]byte, error) {
	if f.IsEncrypted() {
		if password == "" {
			return nil, errMissingPassword
		}
		f.SetPassword(password)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

var errMissingPassword = errors.New("entry is encrypted but no password is configured")
