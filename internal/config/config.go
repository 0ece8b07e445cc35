// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig is optional unless dispatch.mode is "redis".
type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	Provider        string        `yaml:"provider"` // gemini|openai|noop
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	GeminiModel     string        `yaml:"gemini_model"`
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	OpenAIModel     string        `yaml:"openai_model"`
	Fallback        bool          `yaml:"fallback"` // try the other provider when the primary fails
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	Timeout         time.Duration `yaml:"timeout"`
}

type WorkerConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type DispatchConfig struct {
	Mode        string        `yaml:"mode"` // pool|redis
	QueueKey    string        `yaml:"queue_key"`
	BlockFor    time.Duration `yaml:"block_for"`
	Consumers   int           `yaml:"consumers"`
	PushTimeout time.Duration `yaml:"push_timeout"`
}

type RecoveryConfig struct {
	Enabled    *bool         `yaml:"enabled"` // default true
	Cron       string        `yaml:"cron"`
	StaleAfter time.Duration `yaml:"stale_after"`
	ClaimLease time.Duration `yaml:"claim_lease"`
	BatchSize  int           `yaml:"batch_size"`
	LockKey    string        `yaml:"lock_key"`
	LockTTL    time.Duration `yaml:"lock_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	DevHeader string        `yaml:"dev_header"` // accepted only in dev mode
}

// CoachConfig holds the fixed texts and limits of the coach. It is read once
// and passed to constructors.
type CoachConfig struct {
	Timezone           string    `yaml:"timezone"`
	ErrorMessageLimit  int       `yaml:"error_message_limit"`
	FallbackError      string    `yaml:"fallback_error"`
	NotProvided        string    `yaml:"not_provided"`
	HistoryTokenBudget int       `yaml:"history_token_budget"`
	Weekdays           [7]string `yaml:"weekdays"` // Monday first
	Greeting           string    `yaml:"greeting"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Worker   WorkerConfig   `yaml:"worker"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Recovery RecoveryConfig `yaml:"recovery"`
	Auth     AuthConfig     `yaml:"auth"`
	Coach    CoachConfig    `yaml:"coach"`

	Runtime RuntimeConfig `yaml:"-"`
}

const DefaultGreeting = "안녕하세요! 저는 식단/운동을 함께 관리하는 AI 코치입니다.\n" +
	"- 식단 추천, 운동 루틴, 기록 해석 등 무엇이든 편하게 물어보세요.\n" +
	"- 건강 정보나 목표가 바뀌면 설정에서 수정해 주시면 더 정확히 도와드릴게요.\n" +
	"- 응급 상황이나 진료가 필요한 경우에는 반드시 전문 의료진과 상담하세요.\n\n" +
	"지금 어떤 도움이 필요하신가요?"

var DefaultWeekdays = [7]string{"월요일", "화요일", "수요일", "목요일", "금요일", "토요일", "일요일"}

// LoadConfig reads the YAML file at path, expands ${ENV} references, applies
// defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 15 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if cfg.AI.Provider == "" {
		switch {
		case cfg.AI.GeminiKey != "":
			cfg.AI.Provider = "gemini"
		case cfg.AI.OpenAIKey != "":
			cfg.AI.Provider = "openai"
		case cfg.Runtime.Dev:
			cfg.AI.Provider = "noop"
		}
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "gemini-2.5-flash"
	}
	if cfg.AI.OpenAIModel == "" {
		cfg.AI.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 1024
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60 * time.Second
	}

	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 8
	}
	if cfg.Worker.QueueSize <= 0 {
		cfg.Worker.QueueSize = cfg.Worker.Workers * 4
	}

	cfg.Dispatch.Mode = strings.ToLower(strings.TrimSpace(cfg.Dispatch.Mode))
	if cfg.Dispatch.Mode == "" {
		cfg.Dispatch.Mode = "pool"
	}
	if cfg.Dispatch.QueueKey == "" {
		cfg.Dispatch.QueueKey = "chat_jobs:queue"
	}
	if cfg.Dispatch.BlockFor <= 0 {
		cfg.Dispatch.BlockFor = 5 * time.Second
	}
	if cfg.Dispatch.Consumers <= 0 {
		cfg.Dispatch.Consumers = 1
	}
	if cfg.Dispatch.PushTimeout <= 0 {
		cfg.Dispatch.PushTimeout = 2 * time.Second
	}

	if cfg.Recovery.Enabled == nil {
		on := true
		cfg.Recovery.Enabled = &on
	}
	if cfg.Recovery.Cron == "" {
		cfg.Recovery.Cron = "@every 1m"
	}
	if cfg.Recovery.StaleAfter <= 0 {
		cfg.Recovery.StaleAfter = 2 * time.Minute
	}
	if cfg.Recovery.ClaimLease <= 0 {
		// Must outlive a generation call.
		cfg.Recovery.ClaimLease = cfg.AI.Timeout + time.Minute
	}
	if cfg.Recovery.BatchSize <= 0 {
		cfg.Recovery.BatchSize = 100
	}
	if cfg.Recovery.LockKey == "" {
		cfg.Recovery.LockKey = "chat_jobs:recovery_lock"
	}
	if cfg.Recovery.LockTTL <= 0 {
		cfg.Recovery.LockTTL = 30 * time.Second
	}

	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.DevHeader == "" {
		cfg.Auth.DevHeader = "X-DEV-EMAIL"
	}

	if cfg.Coach.Timezone == "" {
		cfg.Coach.Timezone = "Asia/Seoul"
	}
	if cfg.Coach.ErrorMessageLimit <= 0 {
		cfg.Coach.ErrorMessageLimit = 300
	}
	if cfg.Coach.FallbackError == "" {
		cfg.Coach.FallbackError = "알 수 없는 오류가 발생했습니다."
	}
	if cfg.Coach.NotProvided == "" {
		cfg.Coach.NotProvided = "미제공"
	}
	if cfg.Coach.HistoryTokenBudget <= 0 {
		cfg.Coach.HistoryTokenBudget = 2000
	}
	if cfg.Coach.Weekdays == ([7]string{}) {
		cfg.Coach.Weekdays = DefaultWeekdays
	}
	if strings.TrimSpace(cfg.Coach.Greeting) == "" {
		cfg.Coach.Greeting = DefaultGreeting
	}
}

// Validate reports the first configuration problem found.
func (cfg *Config) Validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.GeminiKey == "" {
			return errors.New("ai.gemini_key is required for provider gemini")
		}
	case "openai":
		if cfg.AI.OpenAIKey == "" {
			return errors.New("ai.openai_key is required for provider openai")
		}
	case "noop":
		if !cfg.Runtime.Dev {
			return errors.New("ai.provider noop is only allowed in dev mode")
		}
	case "":
		return errors.New("no AI provider configured: set ai.gemini_key or ai.openai_key")
	default:
		return fmt.Errorf("unknown ai.provider %q", cfg.AI.Provider)
	}
	switch cfg.Dispatch.Mode {
	case "pool":
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required for dispatch.mode redis")
		}
	default:
		return fmt.Errorf("unknown dispatch.mode %q", cfg.Dispatch.Mode)
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Runtime.Dev {
		return errors.New("auth.jwt_secret is required")
	}
	if _, err := time.LoadLocation(cfg.Coach.Timezone); err != nil {
		return fmt.Errorf("coach.timezone: %w", err)
	}
	if cfg.Recovery.ClaimLease <= cfg.AI.Timeout {
		return errors.New("recovery.claim_lease must be longer than ai.timeout")
	}
	return nil
}

// Location returns the coach time zone. Validate guarantees it loads.
func (c CoachConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (r RecoveryConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
