package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solvedesk/internal/app"
	"solvedesk/internal/apperr"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type flags struct {
	configPath string
	apiURL     string
	token      string
	timeout    time.Duration
	contest    string
	course     string
	problem    string
	viewOnly   bool
	user       string
	offline    string
	dataDir    string
	logPath    string
	logLevel   string
	state      string
	redisURL   string
	style      string
	motion     string
	ascii      bool
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "solvedesk",
		Short:         "Terminal workspace for contest and course problems",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				fmt.Fprintln(os.Stderr, "solvedesk:", err)
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file")
	fl.StringVar(&f.apiURL, "api", "", "contest service base URL")
	fl.StringVar(&f.token, "token", "", "bearer token for the contest service")
	fl.DurationVar(&f.timeout, "timeout", 0, "per-request timeout")
	fl.StringVar(&f.contest, "contest", "", "contest code")
	fl.StringVar(&f.course, "course", "", "course id")
	fl.StringVar(&f.problem, "problem", "", "problem to open first (id or fuzzy name)")
	fl.BoolVar(&f.viewOnly, "view-only", false, "review submissions without editing")
	fl.StringVar(&f.user, "user", "", "participant to review in view-only mode")
	fl.StringVar(&f.offline, "offline", "", "serve a local problem set directory instead of a remote service")
	fl.StringVar(&f.dataDir, "data-dir", "", "directory for local state")
	fl.StringVar(&f.logPath, "log", "", "JSON log file; logs are discarded when empty")
	fl.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	fl.StringVar(&f.state, "state", "", "local state backend: sqlite or redis")
	fl.StringVar(&f.redisURL, "redis-url", "", "redis url for the redis state backend")
	fl.StringVar(&f.style, "style", "", "ui style: midnight, paper or retro_terminal")
	fl.StringVar(&f.motion, "motion", "", "ui motion: full, reduced or off")
	fl.BoolVar(&f.ascii, "ascii", false, "ASCII-only glyphs")
	fl.BoolVar(&f.debug, "debug", false, "verbose ui logging")
	return cmd
}

// resolveConfig layers defaults, the config file, a .env file, SOLVEDESK_*
// variables and finally explicitly set flags.
func resolveConfig(cmd *cobra.Command, f flags) (app.Config, error) {
	cfg := app.DefaultConfig()
	if err := app.LoadFile(&cfg, f.configPath); err != nil {
		return cfg, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, apperr.Config(fmt.Sprintf("load .env: %v", err))
	}
	if err := app.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	set := cmd.Flags().Changed
	str := func(name string, dst *string, v string) {
		if set(name) {
			*dst = v
		}
	}
	str("api", &cfg.APIURL, f.apiURL)
	str("token", &cfg.APIToken, f.token)
	str("contest", &cfg.Contest, f.contest)
	str("course", &cfg.Course, f.course)
	str("problem", &cfg.Problem, f.problem)
	str("user", &cfg.ReviewUser, f.user)
	str("offline", &cfg.OfflineDir, f.offline)
	str("data-dir", &cfg.DataDir, f.dataDir)
	str("log", &cfg.LogPath, f.logPath)
	str("log-level", &cfg.LogLevel, f.logLevel)
	str("state", &cfg.State.Backend, f.state)
	str("redis-url", &cfg.State.RedisURL, f.redisURL)
	str("style", &cfg.UI.StyleVariant, f.style)
	str("motion", &cfg.UI.MotionLevel, f.motion)
	if set("timeout") {
		cfg.Timeout = f.timeout
	}
	if set("view-only") {
		cfg.ViewOnly = f.viewOnly
	}
	if set("ascii") {
		cfg.UI.ASCIIOnly = f.ascii
	}
	if set("debug") {
		cfg.UI.Debug = f.debug
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(parent context.Context, cfg app.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "solvedesk:", err)
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "solvedesk:", err)
		return err
	}
	return nil
}

func exitCode(err error) int {
	if errors.Is(err, apperr.ErrConfig) {
		return 2
	}
	return 1
}
