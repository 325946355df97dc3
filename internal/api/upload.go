package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hevi35-coder/Settlement/internal/archive"
	"github.com/hevi35-coder/Settlement/internal/importer"
	"github.com/hevi35-coder/Settlement/internal/logger"
	"github.com/hevi35-coder/Settlement/internal/model"
	"github.com/hevi35-coder/Settlement/internal/parser"
)

// UploadResponse 업로드 성공 응답
type UploadResponse struct {
	Message        string                    `json:"message"`
	ImportID       string                    `json:"importId"`
	UserID         string                    `json:"userId"`
	UploadedFile   string                    `json:"uploadedFile"`
	FilesFound     int                       `json:"filesFound"`
	ProcessedFiles []model.ParsedEntryReport `json:"processedFiles"`
	SkippedFiles   []model.SkippedEntry      `json:"skippedFiles,omitempty"`
	DBResult       *model.PersistResult      `json:"dbResult"`
	Summary        model.IngestionSummary    `json:"summary"`
}

// uploadRequest 검증을 통과한 업로드
type uploadRequest struct {
	ownerID  string
	filename string
	data     []byte
	period   parser.Period
}

// Upload ZIP 업로드 처리
// POST /api/upload
func (h *Handler) Upload(c *gin.Context) {
	req, ok := h.readUpload(c)
	if !ok {
		return
	}

	ctx := logger.WithContext(c.Request.Context(), h.log)
	result, err := h.coordinator.Ingest(ctx, h.ingestOptions(req))
	if err != nil {
		h.writeIngestError(c, req, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:        "ZIP 파일이 성공적으로 처리되고 데이터베이스에 저장되었습니다.",
		ImportID:       result.ImportID,
		UserID:         req.ownerID,
		UploadedFile:   req.filename,
		FilesFound:     result.FilesFound,
		ProcessedFiles: result.ProcessedFiles,
		SkippedFiles:   result.SkippedFiles,
		DBResult:       result.Persistence,
		Summary:        result.Summary,
	})
}

// UploadStream ZIP 업로드 처리 (SSE 스트리밍 응답)
// POST /api/upload/stream
func (h *Handler) UploadStream(c *gin.Context) {
	req, ok := h.readUpload(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "스트리밍 응답을 지원하지 않습니다."})
		return
	}

	// SSE 응답 헤더
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := logger.WithContext(c.Request.Context(), h.log)
	for event := range h.coordinator.Import(ctx, h.ingestOptions(req)) {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 형식: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

func (h *Handler) ingestOptions(req *uploadRequest) importer.IngestOptions {
	return importer.IngestOptions{
		Archive:  req.data,
		OwnerID:  req.ownerID,
		Password: h.password,
		Period:   req.period,
		Filename: req.filename,
	}
}

// readUpload 인증/파일/기간을 검증하고 실패하면 응답을 쓴다
func (h *Handler) readUpload(c *gin.Context) (*uploadRequest, bool) {
	ownerID := strings.TrimSpace(c.GetHeader(UserHeader))
	if ownerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "인증이 필요합니다."})
		return nil, false
	}

	// multipart 헤더 여유분 1MB
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			c.JSON(http.StatusBadRequest, gin.H{"error": h.tooLargeMessage()})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "파일이 선택되지 않았습니다."})
		return nil, false
	}

	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".zip") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ZIP 파일만 업로드 가능합니다."})
		return nil, false
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": h.tooLargeMessage()})
		return nil, false
	}

	period, err := parser.ParsePeriod(c.PostForm("startDate"), c.PostForm("endDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "업로드 파일을 읽을 수 없습니다."})
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "업로드 파일을 읽을 수 없습니다."})
		return nil, false
	}

	return &uploadRequest{
		ownerID:  ownerID,
		filename: fh.Filename,
		data:     data,
		period:   period,
	}, true
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("파일 크기는 %dMB를 초과할 수 없습니다.", h.maxBytes/(1<<20))
}

// writeIngestError 수집 오류를 HTTP 응답으로 변환
func (h *Handler) writeIngestError(c *gin.Context, req *uploadRequest, err error) {
	var pe *importer.PersistenceError
	switch {
	case errors.Is(err, archive.ErrArchiveOpen):
		c.JSON(http.StatusBadRequest, gin.H{"error": "ZIP 파일 압축 해제에 실패했습니다. 비밀번호를 확인해주세요."})
	case errors.Is(err, archive.ErrNoRecognizedFiles):
		c.JSON(http.StatusBadRequest, gin.H{"error": "ZIP 파일 내에 Excel(.xlsx) 파일이 없습니다."})
	case errors.As(err, &pe):
		c.JSON(http.StatusInternalServerError, gin.H{
			"message":        "파일 처리는 완료되었지만 데이터베이스 저장에 실패했습니다.",
			"error":          pe.Err.Error(),
			"userId":         req.ownerID,
			"uploadedFile":   req.filename,
			"filesFound":     pe.Partial.FilesFound,
			"processedFiles": pe.Partial.ProcessedFiles,
		})
	default:
		h.log.Error().Err(err).Str("owner", req.ownerID).Msg("파일 업로드 처리 오류")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "파일 처리 중 오류가 발생했습니다."})
	}
}
