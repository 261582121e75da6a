package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings represents the application configuration persisted to disk.
// Secrets (JWT signing key, TMDB API key) can be overridden with environment
// variables so the settings file can be committed without them.
type Settings struct {
	Server    ServerSettings    `json:"server"`
	Database  DatabaseSettings  `json:"database"`
	Auth      AuthSettings      `json:"auth"`
	TMDB      TMDBSettings      `json:"tmdb"`
	RateLimit RateLimitSettings `json:"rateLimit"`
	CORS      CORSSettings      `json:"cors"`
	Log       LogConfig         `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

type AuthSettings struct {
	JWTSecret     string `json:"jwtSecret"`
	TokenTTLHours int    `json:"tokenTtlHours"`
	BcryptCost    int    `json:"bcryptCost"`
}

type TMDBSettings struct {
	APIKey         string `json:"apiKey"`
	BaseURL        string `json:"baseUrl"`
	ImageBaseURL   string `json:"imageBaseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

type RateLimitSettings struct {
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	Burst             int     `json:"burst"`
}

type CORSSettings struct {
	AllowedOrigin string `json:"allowedOrigin"`
}

type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`    // megabytes
	MaxBackups int    `json:"maxBackups"` // files
	MaxAge     int    `json:"maxAge"`     // days
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server:   ServerSettings{Host: "0.0.0.0", Port: 8080},
		Database: DatabaseSettings{Path: "data/reelbase.db"},
		Auth: AuthSettings{
			JWTSecret:     "",
			TokenTTLHours: 24,
			BcryptCost:    12,
		},
		TMDB: TMDBSettings{
			APIKey:         "",
			BaseURL:        "https://api.themoviedb.org/3",
			ImageBaseURL:   "https://image.tmdb.org/t/p",
			TimeoutSeconds: 10,
		},
		RateLimit: RateLimitSettings{RequestsPerSecond: 5, Burst: 10},
		CORS:      CORSSettings{AllowedOrigin: "*"},
		Log: LogConfig{
			File:       "data/logs/reelbase.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file from disk or creates defaults if missing,
// then applies environment overrides.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}

	var s Settings
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		s = DefaultSettings()
		if err := m.Save(s); err != nil {
			return Settings{}, err
		}
	} else {
		f, err := os.Open(m.path)
		if err != nil {
			return Settings{}, err
		}
		defer f.Close()

		s = DefaultSettings()
		if err := json.NewDecoder(f).Decode(&s); err != nil {
			return Settings{}, err
		}
	}

	applyEnvOverrides(&s)
	return s, nil
}

// Save writes settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if err := m.EnsureDir(); err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, m.path)
}

func applyEnvOverrides(s *Settings) {
	if v := strings.TrimSpace(os.Getenv("REELBASE_JWT_SECRET")); v != "" {
		s.Auth.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); v != "" {
		s.TMDB.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("REELBASE_DB_PATH")); v != "" {
		s.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("REELBASE_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			s.Server.Port = port
		}
	}
}
