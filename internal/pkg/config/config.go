package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	minChunkSize        = 8 * 1024
	maxChunkSize        = 1024 * 1024
	minProgressInterval = 500 * time.Millisecond
)

type Config struct {
	TelegramCfg TelegramCfg    `yaml:"telegram"`
	MTProtoCfg  MTProtoCfg     `yaml:"mtproto"`
	FileService FileServiceCfg `yaml:"file_service"`
	Transfer    TransferCfg    `yaml:"transfer"`
	DB          DBCfg          `yaml:"db"`
	LogLevel    string         `yaml:"log_level" env:"LOG_LEVEL"`
}

type TelegramCfg struct {
	Token     string `yaml:"token" env:"BOT_TOKEN"`
	ServerURL string `yaml:"server_url" env:"BOT_API_URL"`

	// Bot API multipart upload ceiling. 50 MiB on the public server,
	// up to 2000 MiB on a self-hosted one.
	UploadLimit int64 `yaml:"upload_limit" env:"BOT_API_UPLOAD_LIMIT"`
}

type MTProtoCfg struct {
	AppID       int    `yaml:"app_id" env:"API_ID"`
	AppHash     string `yaml:"app_hash" env:"API_HASH"`
	SessionPath string `yaml:"session_path" env:"MTPROTO_SESSION_PATH"`
}

func (c MTProtoCfg) Enabled() bool {
	return c.AppID != 0 && c.AppHash != ""
}

type FileServiceCfg struct {
	DirPath       string        `yaml:"dir_path" env:"DOWNLOAD_DIR"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
	SweepMaxAge   time.Duration `yaml:"sweep_max_age" env:"SWEEP_MAX_AGE"`
}

type TransferCfg struct {
	ChunkSize        int           `yaml:"chunk_size" env:"CHUNK_SIZE"`
	MaxFileSize      int64         `yaml:"max_file_size" env:"MAX_FILE_SIZE"`
	ProgressInterval time.Duration `yaml:"progress_interval" env:"PROGRESS_INTERVAL"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	Timeout          time.Duration `yaml:"timeout" env:"TRANSFER_TIMEOUT"`
	ProbeTimeout     time.Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT"`
	MaxConcurrent    int           `yaml:"max_concurrent" env:"MAX_CONCURRENT_TRANSFERS"`
}

type DBCfg struct {
	URL string `yaml:"url" env:"DATABASE_URL"`
}

func Default() Config {
	return Config{
		TelegramCfg: TelegramCfg{
			UploadLimit: 50 * 1024 * 1024,
		},
		MTProtoCfg: MTProtoCfg{
			SessionPath: "./data/mtproto.session",
		},
		FileService: FileServiceCfg{
			DirPath:       "./downloads",
			SweepInterval: 10 * time.Minute,
			SweepMaxAge:   45 * time.Minute,
		},
		Transfer: TransferCfg{
			ChunkSize:        64 * 1024,
			MaxFileSize:      2 * 1024 * 1024 * 1024,
			ProgressInterval: time.Second,
			ConnectTimeout:   60 * time.Second,
			Timeout:          30 * time.Minute,
			ProbeTimeout:     10 * time.Second,
			MaxConcurrent:    4,
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// an optional .env file and the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("Config file not found, using environment only", "path", path)
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.TelegramCfg.Token = strings.TrimSpace(c.TelegramCfg.Token)
	if c.Transfer.ChunkSize < minChunkSize {
		c.Transfer.ChunkSize = minChunkSize
	}
	if c.Transfer.ChunkSize > maxChunkSize {
		c.Transfer.ChunkSize = maxChunkSize
	}
	if c.Transfer.ProgressInterval < minProgressInterval {
		c.Transfer.ProgressInterval = minProgressInterval
	}
	if c.Transfer.MaxConcurrent < 1 {
		c.Transfer.MaxConcurrent = 1
	}
}

func (c *Config) Validate() error {
	if c.TelegramCfg.Token == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.FileService.DirPath == "" {
		return errors.New("DOWNLOAD_DIR must not be empty")
	}
	if c.Transfer.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Transfer.MaxFileSize)
	}
	if c.TelegramCfg.UploadLimit <= 0 {
		return fmt.Errorf("BOT_API_UPLOAD_LIMIT must be positive, got %d", c.TelegramCfg.UploadLimit)
	}
	if (c.MTProtoCfg.AppID == 0) != (c.MTProtoCfg.AppHash == "") {
		return errors.New("API_ID and API_HASH must be set together")
	}
	return nil
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
