package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"solvedesk/internal/api"
	"solvedesk/internal/apperr"
	"solvedesk/internal/state"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the config reads.
const EnvPrefix = "SOLVEDESK_"

// Config controls runtime behavior for the workspace.
type Config struct {
	APIURL     string        `yaml:"api_url" env:"API_URL"`
	APIToken   string        `yaml:"api_token" env:"API_TOKEN"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Contest    string        `yaml:"contest" env:"CONTEST"`
	Course     string        `yaml:"course" env:"COURSE"`
	Problem    string        `yaml:"problem" env:"PROBLEM"`
	ViewOnly   bool          `yaml:"view_only" env:"VIEW_ONLY"`
	ReviewUser string        `yaml:"review_user" env:"REVIEW_USER"`
	OfflineDir string        `yaml:"offline_dir" env:"OFFLINE_DIR"`
	DataDir    string        `yaml:"data_dir" env:"DATA_DIR"`
	LogPath    string        `yaml:"log_path" env:"LOG_PATH"`
	LogLevel   string        `yaml:"log_level" env:"LOG_LEVEL"`
	State      StateConfig   `yaml:"state" envPrefix:"STATE_"`
	UI         UIConfig      `yaml:"ui" envPrefix:"UI_"`
}

type StateConfig struct {
	Backend  string `yaml:"backend" env:"BACKEND"`
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
}

type UIConfig struct {
	StyleVariant string `yaml:"style_variant" env:"STYLE"`
	MotionLevel  string `yaml:"motion_level" env:"MOTION"`
	ASCIIOnly    bool   `yaml:"ascii_only" env:"ASCII"`
	Debug        bool   `yaml:"debug" env:"DEBUG"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		LogLevel: "info",
		State: StateConfig{
			Backend: state.BackendSQLite,
		},
		UI: UIConfig{
			StyleVariant: "midnight",
			MotionLevel:  "full",
		},
	}
}

// LoadFile overlays a YAML config file on cfg. Keys missing from the file
// keep their current values.
func LoadFile(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return apperr.Config(fmt.Sprintf("read config %s: %v", path, err))
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return apperr.Config(fmt.Sprintf("parse config %s: %v", path, err))
	}
	return nil
}

// ApplyEnv overlays SOLVEDESK_* environment variables on cfg.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return apperr.Config(err.Error())
	}
	return nil
}

// Scope is the draft and submitted-set scope of the session.
func (c Config) Scope() string {
	if c.Course != "" {
		return api.CourseScope(c.Course)
	}
	return c.Contest
}

func (c *Config) Validate() error {
	c.APIURL = strings.TrimSpace(c.APIURL)
	c.Contest = strings.TrimSpace(c.Contest)
	c.Course = strings.TrimSpace(c.Course)

	if c.APIURL == "" && c.OfflineDir == "" {
		return apperr.Config("either an API URL or an offline problem set is required")
	}
	if c.OfflineDir == "" {
		if c.Contest == "" && c.Course == "" {
			return apperr.Config("a contest code or course id is required")
		}
	}
	if c.Contest != "" && c.Course != "" {
		return apperr.Config("contest and course are mutually exclusive")
	}
	if c.ViewOnly {
		if strings.TrimSpace(c.ReviewUser) == "" {
			return apperr.Config("view-only mode needs a review user")
		}
		if c.Course != "" {
			return apperr.Config("submission review is only available for contests")
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}

	switch strings.ToLower(c.State.Backend) {
	case "", state.BackendSQLite:
		c.State.Backend = state.BackendSQLite
	case state.BackendRedis:
		c.State.Backend = state.BackendRedis
		if c.State.RedisURL == "" {
			return apperr.Config("redis state backend needs a redis url")
		}
	default:
		return apperr.Config(fmt.Sprintf("invalid state backend %q", c.State.Backend))
	}

	switch c.UI.StyleVariant {
	case "", "midnight", "paper", "retro_terminal":
	default:
		return apperr.Config(fmt.Sprintf("invalid ui style variant %q", c.UI.StyleVariant))
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "midnight"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return apperr.Config(fmt.Sprintf("invalid ui motion level %q", c.UI.MotionLevel))
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "solvedesk")
	}
	return nil
}
