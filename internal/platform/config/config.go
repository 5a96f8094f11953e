package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	SessionBackendFile   = "file"
	SessionBackendBolt   = "bolt"
	SessionBackendMemory = "memory"

	ContinueAuthBearer = "bearer"
	ContinueAuthNone   = "none"
)

type Config struct {
	API      APIConfig     `yaml:"api"`
	Session  SessionConfig `yaml:"session"`
	Log      LogConfig     `yaml:"log"`
	OAuth    OAuthConfig   `yaml:"oauth"`
	UI       UIConfig      `yaml:"ui"`
	StateDir string        `yaml:"state_dir" env:"ODYSSEUS_STATE_DIR" env-description:"directory for session, index and log files"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"ODYSSEUS_API_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `yaml:"timeout" env:"ODYSSEUS_API_TIMEOUT" env-default:"30s"`
	// ContinueAuth selects the credential sent with the choice submission:
	// "bearer" or "none". The backend contract for that endpoint is unsettled.
	ContinueAuth string `yaml:"continue_auth" env:"ODYSSEUS_CONTINUE_AUTH" env-default:"bearer"`
}

type SessionConfig struct {
	Backend string `yaml:"backend" env:"ODYSSEUS_SESSION_BACKEND" env-default:"file"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"ODYSSEUS_LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"ODYSSEUS_LOG_ENCODING" env-default:"json"`
	Path     string `yaml:"path" env:"ODYSSEUS_LOG_PATH"`
}

type OAuthConfig struct {
	CallbackAddr string        `yaml:"callback_addr" env:"ODYSSEUS_OAUTH_CALLBACK_ADDR" env-default:"127.0.0.1:5173"`
	WaitTimeout  time.Duration `yaml:"wait_timeout" env:"ODYSSEUS_OAUTH_WAIT_TIMEOUT" env-default:"5m"`
}

type UIConfig struct {
	CreatedRedirectDelay time.Duration `yaml:"created_redirect_delay" env:"ODYSSEUS_CREATED_REDIRECT_DELAY" env-default:"1500ms"`
	// WebURL is the web app that share links open.
	WebURL string `yaml:"web_url" env:"ODYSSEUS_WEB_URL" env-default:"http://localhost:5173"`
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".odysseus", "config.yaml")
	}
	return filepath.Join(dir, "odysseus", "config.yaml")
}

// Load reads .env, then the YAML file at path (optional when path is empty),
// then ODYSSEUS_* environment overrides.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		if explicit {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("read config from env: %w", err)
		}
	}
	return New(cfg)
}

// New validates cfg and fills derived defaults.
func New(cfg Config) (Config, error) {
	u, err := url.ParseRequestURI(cfg.API.BaseURL)
	if err != nil || u.Host == "" {
		return Config{}, fmt.Errorf("api base url %q is invalid", cfg.API.BaseURL)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	if cfg.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("api timeout must be positive")
	}
	switch cfg.API.ContinueAuth {
	case ContinueAuthBearer, ContinueAuthNone:
	default:
		return Config{}, fmt.Errorf("api continue_auth must be %q or %q", ContinueAuthBearer, ContinueAuthNone)
	}
	switch cfg.Session.Backend {
	case SessionBackendFile, SessionBackendBolt, SessionBackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
	if cfg.UI.CreatedRedirectDelay < 0 {
		cfg.UI.CreatedRedirectDelay = 0
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.StateDir = filepath.Join(home, ".odysseus")
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = filepath.Join(cfg.StateDir, "odysseus.log")
	}
	return cfg, nil
}

func (c Config) SessionPath() string    { return filepath.Join(c.StateDir, "session.json") }
func (c Config) NavigationPath() string { return filepath.Join(c.StateDir, "navigation.json") }
func (c Config) BoltPath() string       { return filepath.Join(c.StateDir, "state.db") }
func (c Config) IndexPath() string      { return filepath.Join(c.StateDir, "stories.db") }
