package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hevi35-coder/Settlement/internal/api"
	"github.com/hevi35-coder/Settlement/internal/archive"
	"github.com/hevi35-coder/Settlement/internal/config"
	"github.com/hevi35-coder/Settlement/internal/importer"
	"github.com/hevi35-coder/Settlement/internal/parser"
	"github.com/hevi35-coder/Settlement/internal/store"
)

// Server HTTP 서버
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *api.Handler
	log    zerolog.Logger
	http   *http.Server
}

// NewServer 서버 생성
func NewServer(cfg *config.AppConfig, log zerolog.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	sqliteStore, err := store.New(config.DBPath(dataDir))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	coordinator := importer.NewCoordinator(
		archive.NewWalker(cfg.Upload.Extension, log),
		parser.NewExtractor(cfg.LedgerLayout()),
		sqliteStore,
		importer.WithJournal(sqliteStore),
		importer.WithLogger(log),
	)

	s := &Server{
		router: gin.New(),
		store:  sqliteStore,
		api: api.NewHandler(coordinator, sqliteStore, api.Options{
			ArchivePassword: cfg.Upload.ArchivePassword,
			MaxUploadBytes:  cfg.MaxUploadBytes(),
			Logger:          log,
		}),
		log: log,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes 라우트 설정
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery(), requestLogger(s.log))

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+api.UserHeader)
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := s.router.Group("/api")
	{
		s.api.RegisterRoutes(group)
	}
}

// requestLogger 요청 로그
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("remote_addr", c.ClientIP()).
			Msg("HTTP request")
	}
}

// Handler 라우터 (테스트용)
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 서버 시작, Shutdown 전까지 블록
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 진행 중인 요청을 기다린 뒤 저장소를 닫는다
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			return err
		}
	}
	return s.store.Close()
}

// GetStore 저장소 (테스트용)
func (s *Server) GetStore() *store.Store {
	return s.store
}
