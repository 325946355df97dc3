package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hevi35-coder/Settlement/internal/config"
	"github.com/hevi35-coder/Settlement/internal/logger"
	"github.com/hevi35-coder/Settlement/internal/server"
)

var (
	port    = flag.Int("port", 0, "서비스 포트 (config.toml 에 port 가 없을 때만 적용)")
	devMode = flag.Bool("dev", false, "개발 모드")
	dataDir = flag.String("dataDir", "", "데이터 디렉터리 (설정 파일보다 우선)")
)

func main() {
	flag.Parse()
	log := logger.New()

	// 설정 로드
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Warn().Err(err).Msg("설정 로드 실패, 기본 설정 사용")
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 명령행 인자로 덮어쓰기
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("서버 초기화 실패")
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Bool("password_configured", cfg.Upload.ArchivePassword != "").
			Msg("서비스 시작")
		if err := srv.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("서비스 시작 실패")
		}
	}()

	// 종료 신호 대기
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("서비스 종료 중")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("종료 실패")
	}
}
