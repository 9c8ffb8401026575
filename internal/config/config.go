package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvConfigPath names the environment variable that points at an
// explicit config file.
const EnvConfigPath = "TOMP3_CONFIG"

const defaultConfigPath = "./tomp3.toml"

// Config holds runtime settings for the server.
type Config struct {
	ServerAddr          string `toml:"server_addr"`
	WorkDir             string `toml:"work_dir"`
	FFmpegPath          string `toml:"ffmpeg_path"`
	AudioBitrate        string `toml:"audio_bitrate"`
	MaxUploadMB         int    `toml:"max_upload_mb"`
	MaxFetchMB          int    `toml:"max_fetch_mb"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	LogLevel            string `toml:"log_level"`
}

// Load builds the runtime config from defaults, an optional TOML file
// and environment overrides, in that order. The default config file may
// be absent; a file named via TOMP3_CONFIG must exist.
func Load() (Config, error) {
	cfg := defaults()

	path := strings.TrimSpace(os.Getenv(EnvConfigPath))
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, err
	}

	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		ServerAddr:          ":8080",
		WorkDir:             "",
		FFmpegPath:          "ffmpeg",
		AudioBitrate:        "192k",
		MaxUploadMB:         512,
		MaxFetchMB:          2048,
		ProbeTimeoutSeconds: 10,
		FetchTimeoutSeconds: 120,
		LogLevel:            "info",
	}
}

func applyEnv(cfg *Config) {
	cfg.ServerAddr = getEnv("TOMP3_ADDR", cfg.ServerAddr)
	cfg.WorkDir = getEnv("TOMP3_WORK_DIR", cfg.WorkDir)
	cfg.FFmpegPath = getEnv("TOMP3_FFMPEG", cfg.FFmpegPath)
	cfg.AudioBitrate = getEnv("TOMP3_BITRATE", cfg.AudioBitrate)
	cfg.MaxUploadMB = getEnvInt("TOMP3_MAX_UPLOAD_MB", cfg.MaxUploadMB)
	cfg.MaxFetchMB = getEnvInt("TOMP3_MAX_FETCH_MB", cfg.MaxFetchMB)
	cfg.ProbeTimeoutSeconds = getEnvInt("TOMP3_PROBE_TIMEOUT_SECONDS", cfg.ProbeTimeoutSeconds)
	cfg.FetchTimeoutSeconds = getEnvInt("TOMP3_FETCH_TIMEOUT_SECONDS", cfg.FetchTimeoutSeconds)
	cfg.LogLevel = getEnv("TOMP3_LOG_LEVEL", cfg.LogLevel)
}

// MaxUploadBytes returns the multipart upload cap in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// MaxFetchBytes returns the remote payload cap in bytes.
func (c Config) MaxFetchBytes() int64 {
	return int64(c.MaxFetchMB) << 20
}

// ProbeTimeout returns the URL probe deadline.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// FetchTimeout returns the payload download deadline.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// SlogLevel maps the configured level name onto slog.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var out int
	_, err := fmt.Sscanf(value, "%d", &out)
	if err != nil || out <= 0 {
		return fallback
	}
	return out
}
