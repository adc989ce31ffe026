package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"menuparity/lib/authflow"
	"menuparity/lib/configutil"
	"menuparity/lib/telemetry"

	"dario.cat/mergo"
	"github.com/spf13/cobra"
)

const configName = "menuparity.json5"

type LoginConfig struct {
	Phrases       []string `json:"phrases"`
	FormSelector  string   `json:"form_selector"`
	DefaultAction string   `json:"default_action"`
	UsernameField string   `json:"username_field"`
	PasswordField string   `json:"password_field"`
}

func (c LoginConfig) authflow() authflow.LoginConfig {
	cfg := authflow.LoginConfig{
		FormSelector:  c.FormSelector,
		DefaultAction: c.DefaultAction,
		UsernameField: c.UsernameField,
		PasswordField: c.PasswordField,
	}
	if len(c.Phrases) > 0 {
		cfg.Detector = authflow.PhraseDetector{Phrases: c.Phrases}
	}
	return cfg
}

type Config struct {
	Selector   string           `json:"selector"`
	DelayMs    int              `json:"delay_ms"`
	TimeoutMs  int              `json:"timeout_ms"`
	Retries    int              `json:"retries"`
	Insecure   bool             `json:"insecure"`
	AuthFlow   bool             `json:"auth_flow"`
	MaxRPS     float64          `json:"max_rps"`
	BrowserTLS bool             `json:"browser_tls"`
	HistoryDB  string           `json:"history_db"`
	Login      LoginConfig      `json:"login"`
	Telemetry  telemetry.Config `json:"telemetry"`
}

func defaultConfig() Config {
	return Config{
		Selector:  "#dropmenu",
		DelayMs:   1500,
		TimeoutMs: 15000,
	}
}

func (c Config) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// loadConfig reads the nearest menuparity.json5, a missing file leaves the
// defaults in place. Zero values in the file also fall back to the defaults,
// use the command line flags to set them to zero.
func loadConfig() (Config, error) {
	cfg, path, err := configutil.ReadRecursively[Config](configName)
	if errors.Is(err, configutil.ErrNotFound) {
		return defaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	slog.Debug("using config", "path", path)

	err = mergo.Merge(&cfg, defaultConfig())
	if err != nil {
		return Config{}, fmt.Errorf("merge default config: %w", err)
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("selector") {
		cfg.Selector = flagSelector
	}
	if flags.Changed("delay") {
		cfg.DelayMs = flagDelayMs
	}
	if flags.Changed("timeout") {
		cfg.TimeoutMs = flagTimeoutMs
	}
	if flags.Changed("retries") {
		cfg.Retries = flagRetries
	}
	if flags.Changed("insecure") {
		cfg.Insecure = flagInsecure
	}
	if flags.Changed("auth-flow") {
		cfg.AuthFlow = flagAuthFlow
	}
	if flags.Changed("max-rps") {
		cfg.MaxRPS = flagMaxRPS
	}
	if flags.Changed("browser-tls") {
		cfg.BrowserTLS = flagBrowserTLS
	}
	if flags.Changed("history-db") {
		cfg.HistoryDB = flagHistoryDB
	}
}

// referers resolves the side specific referers, falling back to the shared
// one.
func referers() (string, string) {
	a, b := flagRefererA, flagRefererB
	if a == "" {
		a = flagReferer
	}
	if b == "" {
		b = flagReferer
	}
	return a, b
}

func validate(cfg Config) error {
	if cfg.Selector == "" {
		return errors.New("selector must not be empty")
	}
	if cfg.DelayMs < 0 || cfg.TimeoutMs < 0 || cfg.Retries < 0 {
		return fmt.Errorf("negative value in delay %d, timeout %d or retries %d", cfg.DelayMs, cfg.TimeoutMs, cfg.Retries)
	}
	return nil
}
