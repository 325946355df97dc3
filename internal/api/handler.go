// Package api 가계부 업로드 HTTP 처리기
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hevi35-coder/Settlement/internal/importer"
	"github.com/hevi35-coder/Settlement/internal/store"
)

// UserHeader 인증 프록시가 채워 주는 사용자 ID 헤더
const UserHeader = "X-User-ID"

// Handler API 처리기
type Handler struct {
	coordinator *importer.Coordinator
	store       *store.Store
	password    string
	maxBytes    int64
	log         zerolog.Logger
}

// Options 처리기 옵션
type Options struct {
	ArchivePassword string
	MaxUploadBytes  int64
	Logger          zerolog.Logger
}

// NewHandler 처리기 생성
func NewHandler(coordinator *importer.Coordinator, st *store.Store, opts Options) *Handler {
	return &Handler{
		coordinator: coordinator,
		store:       st,
		password:    opts.ArchivePassword,
		maxBytes:    opts.MaxUploadBytes,
		log:         opts.Logger,
	}
}

// RegisterRoutes 라우트 등록
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)

	// 업로드
	router.POST("/upload", h.Upload)
	router.POST("/upload/stream", h.UploadStream)
}
