package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type AppConfig struct {
	IrisBaseURL string `env:"IRIS_BASE_URL"`
	IrisWSURL   string `env:"IRIS_WS_URL"`

	BotPrefix string `env:"BOT_PREFIX" envDefault:"!"`

	XUserID    string `env:"X_USER_ID"`
	XUserEmail string `env:"X_USER_EMAIL"`
	XSessionID string `env:"X_SESSION_ID"`

	AllowedRooms []string `env:"ALLOWED_ROOMS" envSeparator:","`
	AdminIDs     []string `env:"ADMIN_IDS" envSeparator:","`
	StartPrivate bool     `env:"START_PRIVATE" envDefault:"false"`

	StoreBackend   string `env:"STORE_BACKEND" envDefault:"file"`
	DataDir        string `env:"DATA_DIR" envDefault:"data"`
	RedisURL       string `env:"REDIS_URL"`
	DatabaseURL    string `env:"DATABASE_URL"`
	StoreKeyPrefix string `env:"STORE_KEY_PREFIX" envDefault:"goldenbells"`

	EgressMode   string `env:"EGRESS_MODE" envDefault:"auto"`
	EgressDryRun bool   `env:"EGRESS_DRYRUN" envDefault:"false"`

	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"0s"`
	BattleTarget     int           `env:"BATTLE_TARGET" envDefault:"3"`
	BattleMaxRounds  int           `env:"BATTLE_MAX_ROUNDS" envDefault:"5"`
	BattleDifficulty string        `env:"BATTLE_DIFFICULTY" envDefault:"medium"`

	MessagesDir string `env:"MESSAGES_DIR"`
	MetricsAddr string `env:"METRICS_ADDR"`

	Log LogConfig
}

type LogConfig struct {
	Level   string `env:"LOG_LEVEL" envDefault:"info"`
	Format  string `env:"LOG_FORMAT" envDefault:"legacy"`
	Console bool   `env:"LOG_TO_CONSOLE" envDefault:"true"`
	ToFile  bool   `env:"LOG_TO_FILE" envDefault:"false"`
	File    string `env:"LOG_FILE" envDefault:"logs/bot.log"`
	Caller  bool   `env:"LOG_CALLER" envDefault:"false"`
}

// Load reads the environment. Only values every subcommand needs are checked here;
// Validate covers the rest.
func Load() (*AppConfig, error) {
	cfg, err := env.ParseAs[AppConfig]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.BotPrefix = strings.TrimSpace(cfg.BotPrefix)
	cfg.AllowedRooms = compact(cfg.AllowedRooms)
	cfg.AdminIDs = compact(cfg.AdminIDs)
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.EgressMode = strings.ToLower(strings.TrimSpace(cfg.EgressMode))

	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX must not be empty")
	}
	if cfg.BattleTarget <= 0 {
		cfg.BattleTarget = 3
	}
	if cfg.BattleMaxRounds <= 0 {
		cfg.BattleMaxRounds = 5
	}
	if cfg.SessionTTL < 0 {
		cfg.SessionTTL = 0
	}
	return &cfg, nil
}

// ValidateStore checks that the selected backend has what it needs.
func (c *AppConfig) ValidateStore() error {
	switch c.StoreBackend {
	case BackendFile:
		if strings.TrimSpace(c.DataDir) == "" {
			return errors.New("DATA_DIR is required for the file store")
		}
	case BackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return errors.New("REDIS_URL is required for the redis store")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// ValidateTransport checks the Iris endpoints used by the run command.
func (c *AppConfig) ValidateTransport() error {
	if strings.TrimSpace(c.IrisBaseURL) == "" {
		return errors.New("IRIS_BASE_URL is required")
	}
	if strings.TrimSpace(c.IrisWSURL) == "" {
		return errors.New("IRIS_WS_URL is required")
	}
	switch c.EgressMode {
	case "http", "ws", "auto":
	default:
		return fmt.Errorf("unknown EGRESS_MODE %q", c.EgressMode)
	}
	return nil
}

// Headers returns the Iris handshake headers that are configured.
func (c *AppConfig) Headers() map[string]string {
	h := map[string]string{}
	if c.XUserID != "" {
		h["X-User-Id"] = c.XUserID
	}
	if c.XUserEmail != "" {
		h["X-User-Email"] = c.XUserEmail
	}
	if c.XSessionID != "" {
		h["X-Session-Id"] = c.XSessionID
	}
	return h
}

func compact(in []string) []string {
	var out []string
	for _, p := range in {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
