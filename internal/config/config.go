package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/hevi35-coder/Settlement/internal/parser"
)

// AppConfig 애플리케이션 설정
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Upload UploadConfig `toml:"upload"`
	Ledger LedgerConfig `toml:"ledger"`
}

// ServerConfig 서버 설정
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 데이터 설정
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// UploadConfig 업로드 설정
type UploadConfig struct {
	MaxSizeMB       int    `toml:"max_size_mb"`
	ArchivePassword string `toml:"archive_password"` // ZIP_PASSWORD 환경 변수가 우선
	Extension       string `toml:"extension"`
}

// LedgerConfig 가계부 시트/컬럼 라벨
type LedgerConfig struct {
	SheetName     string `toml:"sheet_name"`
	Date          string `toml:"date"`
	Category      string `toml:"category"`
	Content       string `toml:"content"`
	PaymentMethod string `toml:"payment_method"`
	Amount        string `toml:"amount"`
	Memo          string `toml:"memo"`
}

// LoadConfigInfo 설정 로드 메타 정보
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 기본 설정
func DefaultConfig() *AppConfig {
	layout := parser.DefaultLayout()
	return &AppConfig{
		Server: ServerConfig{
			Port:    3000,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Upload: UploadConfig{
			MaxSizeMB: 10,
			Extension: ".xlsx",
		},
		Ledger: LedgerConfig{
			SheetName:     layout.SheetName,
			Date:          layout.Date,
			Category:      layout.Category,
			Content:       layout.Content,
			PaymentMethod: layout.PaymentMethod,
			Amount:        layout.Amount,
			Memo:          layout.Memo,
		},
	}
}

// MaxUploadBytes 업로드 허용 최대 바이트
func (c *AppConfig) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxSizeMB) * 1024 * 1024
}

// LedgerLayout 설정을 추출기 레이아웃으로 변환 (비어 있는 라벨은 기본값)
func (c *AppConfig) LedgerLayout() parser.Layout {
	def := parser.DefaultLayout()
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return strings.TrimSpace(v)
	}
	return parser.Layout{
		SheetName:     pick(c.Ledger.SheetName, def.SheetName),
		Date:          pick(c.Ledger.Date, def.Date),
		Category:      pick(c.Ledger.Category, def.Category),
		Content:       pick(c.Ledger.Content, def.Content),
		PaymentMethod: pick(c.Ledger.PaymentMethod, def.PaymentMethod),
		Amount:        pick(c.Ledger.Amount, def.Amount),
		Memo:          pick(c.Ledger.Memo, def.Memo),
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 실행 파일 디렉터리
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 실행 파일 옆의 config.toml 을 읽는다
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 실행 파일 위치를 모르면 현재 디렉터리
		exeDir = "."
	}
	return LoadFile(filepath.Join(exeDir, "config.toml"))
}

// LoadFile 지정 경로의 설정 파일을 읽고 환경 변수를 덮어쓴다
// 파일이 없으면 기본 설정을 사용한다.
func LoadFile(path string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, info, err
	}

	applyEnv(config)

	if config.Upload.MaxSizeMB <= 0 {
		return nil, info, fmt.Errorf("upload.max_size_mb must be positive, got %d", config.Upload.MaxSizeMB)
	}
	return config, info, nil
}

// applyEnv 환경 변수 덮어쓰기
func applyEnv(config *AppConfig) {
	if v := os.Getenv("ZIP_PASSWORD"); v != "" {
		config.Upload.ArchivePassword = v
	}
	if v := os.Getenv("GAGYEBU_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
}

// EnsureDataDir 데이터 디렉터리를 만들고 절대 경로를 반환
// 상대 경로는 실행 파일 기준이다.
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		exeDir, err := GetExeDir()
		if err != nil {
			exeDir = "."
		}
		dataDir = filepath.Join(exeDir, dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// DBPath 데이터베이스 파일 경로
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, "gagyebu.db")
}
