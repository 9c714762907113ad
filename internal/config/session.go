package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kgkim70/openpilot/internal/gateway"
	"github.com/kgkim70/openpilot/internal/units"
)

// EnvPrefix prefixes environment overrides, e.g. CONTROLD_VARIANT.
const EnvPrefix = "CONTROLD"

// Defaults applied by the Get* accessors.
const (
	DefaultVariant        = "BOLT"
	DefaultRateHz         = 100.0
	DefaultTargetSpeedKPH = 0.0
	DefaultLogLevel       = "INFO"
	DefaultFlushInterval  = "1s"
	DefaultDisplayUnits   = units.KPH
)

// sessionKeys are the recognized configuration keys.
var sessionKeys = []string{
	"variant", "fingerprint_file", "overrides_file", "has_relay",
	"port", "baud_rate", "data_bits", "stop_bits", "parity",
	"replay_file", "db_path", "flush_interval",
	"rate_hz", "target_speed_kph", "log_level", "log_console",
	"debug_listen", "display_units",
}

// SessionConfig configures one controld session. Unset fields fall back
// to the defaults in the Get* accessors.
type SessionConfig struct {
	Variant         *string `mapstructure:"variant" json:"variant,omitempty"`
	FingerprintFile *string `mapstructure:"fingerprint_file" json:"fingerprint_file,omitempty"`
	OverridesFile   *string `mapstructure:"overrides_file" json:"overrides_file,omitempty"`
	HasRelay        *bool   `mapstructure:"has_relay" json:"has_relay,omitempty"`

	// Gateway link. Port and ReplayFile are mutually exclusive.
	Port       *string `mapstructure:"port" json:"port,omitempty"`
	BaudRate   *int    `mapstructure:"baud_rate" json:"baud_rate,omitempty"`
	DataBits   *int    `mapstructure:"data_bits" json:"data_bits,omitempty"`
	StopBits   *int    `mapstructure:"stop_bits" json:"stop_bits,omitempty"`
	Parity     *string `mapstructure:"parity" json:"parity,omitempty"`
	ReplayFile *string `mapstructure:"replay_file" json:"replay_file,omitempty"`

	// Session recorder; disabled when DBPath is empty.
	DBPath        *string `mapstructure:"db_path" json:"db_path,omitempty"`
	FlushInterval *string `mapstructure:"flush_interval" json:"flush_interval,omitempty"` // duration string like "1s"

	RateHz         *float64 `mapstructure:"rate_hz" json:"rate_hz,omitempty"`
	TargetSpeedKPH *float64 `mapstructure:"target_speed_kph" json:"target_speed_kph,omitempty"`
	LogLevel       *string  `mapstructure:"log_level" json:"log_level,omitempty"`
	LogConsole     *bool    `mapstructure:"log_console" json:"log_console,omitempty"`
	DisplayUnits   *string  `mapstructure:"display_units" json:"display_units,omitempty"` // speeds in log lines

	// DebugListen serves the /debug/ admin routes when set, e.g. "localhost:8088".
	DebugListen *string `mapstructure:"debug_listen" json:"debug_listen,omitempty"`
}

// Load reads the session config from path (if non-empty) and applies
// CONTROLD_* environment overrides.
func Load(path string) (*SessionConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range sessionKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		cleanPath := filepath.Clean(path)
		if ext := filepath.Ext(cleanPath); ext != ".json" {
			return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
		}
		fileInfo, err := os.Stat(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		const maxFileSize = 1 * 1024 * 1024 // 1MB
		if fileInfo.Size() > maxFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
		}
		v.SetConfigFile(cleanPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &SessionConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the set fields.
func (c *SessionConfig) Validate() error {
	if c.RateHz != nil && (*c.RateHz <= 0 || *c.RateHz > 1000) {
		return fmt.Errorf("rate_hz must be in (0, 1000], got %v", *c.RateHz)
	}
	if c.TargetSpeedKPH != nil && (*c.TargetSpeedKPH < 0 || *c.TargetSpeedKPH > 200) {
		return fmt.Errorf("target_speed_kph must be in [0, 200], got %v", *c.TargetSpeedKPH)
	}
	if c.GetPort() != "" && c.GetReplayFile() != "" {
		return fmt.Errorf("port and replay_file are mutually exclusive")
	}
	if c.FlushInterval != nil {
		d, err := time.ParseDuration(*c.FlushInterval)
		if err != nil {
			return fmt.Errorf("invalid flush_interval %q: %w", *c.FlushInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("flush_interval must be positive, got %s", d)
		}
	}
	if c.LogLevel != nil {
		switch strings.ToUpper(*c.LogLevel) {
		case "TRACE", "DEBUG", "INFO", "WARN", "ERROR":
		default:
			return fmt.Errorf("unknown log_level %q", *c.LogLevel)
		}
	}
	if c.DisplayUnits != nil && !units.IsValid(*c.DisplayUnits) {
		return fmt.Errorf("display_units must be one of %s, got %q", units.GetValidUnitsString(), *c.DisplayUnits)
	}
	if addr := c.GetDebugListen(); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid debug_listen %q: %w", addr, err)
		}
	}
	if _, err := c.PortOptions().Normalize(); err != nil {
		return err
	}
	return nil
}

func (c *SessionConfig) GetVariant() string {
	if c.Variant == nil || *c.Variant == "" {
		return DefaultVariant
	}
	return *c.Variant
}

func (c *SessionConfig) GetFingerprintFile() string {
	if c.FingerprintFile == nil {
		return ""
	}
	return *c.FingerprintFile
}

func (c *SessionConfig) GetOverridesFile() string {
	if c.OverridesFile == nil {
		return ""
	}
	return *c.OverridesFile
}

func (c *SessionConfig) GetHasRelay() bool {
	return c.HasRelay != nil && *c.HasRelay
}

func (c *SessionConfig) GetPort() string {
	if c.Port == nil {
		return ""
	}
	return *c.Port
}

func (c *SessionConfig) GetReplayFile() string {
	if c.ReplayFile == nil {
		return ""
	}
	return *c.ReplayFile
}

// PortOptions returns the serial settings; zero values are filled in by
// gateway.PortOptions.Normalize.
func (c *SessionConfig) PortOptions() gateway.PortOptions {
	var opts gateway.PortOptions
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts
}

func (c *SessionConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

func (c *SessionConfig) GetFlushInterval() time.Duration {
	if c.FlushInterval != nil {
		if d, err := time.ParseDuration(*c.FlushInterval); err == nil && d > 0 {
			return d
		}
	}
	d, _ := time.ParseDuration(DefaultFlushInterval)
	return d
}

func (c *SessionConfig) GetRateHz() float64 {
	if c.RateHz == nil {
		return DefaultRateHz
	}
	return *c.RateHz
}

// GetPeriod is the control tick period derived from the rate.
func (c *SessionConfig) GetPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.GetRateHz())
}

func (c *SessionConfig) GetTargetSpeedKPH() float64 {
	if c.TargetSpeedKPH == nil {
		return DefaultTargetSpeedKPH
	}
	return *c.TargetSpeedKPH
}

func (c *SessionConfig) GetLogLevel() string {
	if c.LogLevel == nil {
		return DefaultLogLevel
	}
	return *c.LogLevel
}

func (c *SessionConfig) GetLogConsole() bool {
	return c.LogConsole != nil && *c.LogConsole
}

func (c *SessionConfig) GetDebugListen() string {
	if c.DebugListen == nil {
		return ""
	}
	return *c.DebugListen
}

func (c *SessionConfig) GetDisplayUnits() string {
	if c.DisplayUnits == nil || *c.DisplayUnits == "" {
		return DefaultDisplayUnits
	}
	return *c.DisplayUnits
}
