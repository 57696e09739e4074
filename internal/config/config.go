// Package config loads this daemon's configuration, layering defaults,
// an optional TOML file, environment variables and functional options
// in that order (each layer overriding the previous), following the
// defaults/file/env/flags pattern gpud's pkg/config uses.
package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/ShadowBlip/PowerStation/internal/hwprofile"
	"github.com/ShadowBlip/PowerStation/internal/topology"
	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

const (
	DefaultLogLevel           = "info"
	DefaultDebugServerAddr    = "127.0.0.1:8043"
	DefaultHardwareProfileDir = "/usr/share/powerstation/hardware"
	DefaultLogFileMaxSizeMB   = 100
)

// Config is this daemon's fully-resolved runtime configuration.
type Config struct {
	LogLevel    string `toml:"log_level"`
	LogPretty   bool   `toml:"log_pretty"`

	// LogFilePath, when non-empty, routes logging to a rotating file
	// (via lumberjack) instead of stdout. LogFileMaxSizeMB caps each
	// file before rotation.
	LogFilePath      string `toml:"log_file_path"`
	LogFileMaxSizeMB int    `toml:"log_file_max_size_mb"`

	DebugServerAddr string `toml:"debug_server_addr"`
	DebugServerOff  bool   `toml:"debug_server_off"`

	CPUDevicesRoot string `toml:"cpu_devices_root"`
	CPUSysRoot     string `toml:"cpu_sys_root"`
	DRMRoot        string `toml:"drm_root"`
	PCIIDsPath     string `toml:"pci_ids_path"`

	HardwareProfileDir string `toml:"hardware_profile_dir"`
}

// Default returns the built-in configuration before any file, env, or
// option layer is applied.
func Default() Config {
	return Config{
		LogLevel:           DefaultLogLevel,
		LogFileMaxSizeMB:   DefaultLogFileMaxSizeMB,
		DebugServerAddr:    DefaultDebugServerAddr,
		CPUDevicesRoot:     topology.DefaultCPUDevicesRoot,
		CPUSysRoot:         topology.DefaultCPUSysRoot,
		DRMRoot:            topology.DefaultDRMRoot,
		HardwareProfileDir: DefaultHardwareProfileDir,
	}
}

// Op collects the functional options applied on top of the
// defaults/file/env layers, mirroring gpud's Op/OpOption/ApplyOpts shape.
type Op struct {
	ConfigFilePath string
	Overrides      []OpOption
}

// OpOption mutates a Config directly; applied last, after file and env.
type OpOption func(*Config)

// ApplyOpts runs every option against cfg in order.
func (o *Op) ApplyOpts(cfg *Config, opts []OpOption) {
	for _, opt := range opts {
		opt(cfg)
	}
}

// WithLogLevel overrides the zap log level.
func WithLogLevel(level string) OpOption {
	return func(c *Config) { c.LogLevel = level }
}

// WithLogPretty enables the human-readable console encoder.
func WithLogPretty(pretty bool) OpOption {
	return func(c *Config) { c.LogPretty = pretty }
}

// WithLogFilePath routes logging to a rotating file instead of stdout.
func WithLogFilePath(path string) OpOption {
	return func(c *Config) { c.LogFilePath = path }
}

// WithDebugServerAddr overrides the loopback debug HTTP listen address.
func WithDebugServerAddr(addr string) OpOption {
	return func(c *Config) { c.DebugServerAddr = addr }
}

// WithHardwareProfileDir overrides the hardware-profile TOML directory.
func WithHardwareProfileDir(dir string) OpOption {
	return func(c *Config) { c.HardwareProfileDir = dir }
}

// Load resolves a Config: defaults, then configFilePath if non-empty,
// then the PWRSTN_* environment variables, then opts.
func Load(configFilePath string, opts ...OpOption) (Config, error) {
	cfg := Default()

	if configFilePath != "" {
		if _, err := toml.DecodeFile(configFilePath, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, errdefs.IOErrorf("decoding config file %s: %v", configFilePath, err)
			}
		}
	}

	applyEnv(&cfg)

	op := &Op{}
	op.ApplyOpts(&cfg, opts)

	return cfg, nil
}

// applyEnv overrides cfg fields from PWRSTN_* environment variables,
// when set.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PWRSTN_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := os.LookupEnv("PWRSTN_LOG_PRETTY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogPretty = b
		}
	}
	if v, ok := os.LookupEnv("PWRSTN_LOG_FILE_PATH"); ok {
		cfg.LogFilePath = v
	}
	if v, ok := os.LookupEnv("PWRSTN_LOG_FILE_MAX_SIZE_MB"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogFileMaxSizeMB = n
		}
	}
	if v, ok := os.LookupEnv("PWRSTN_DEBUG_SERVER_ADDR"); ok {
		cfg.DebugServerAddr = v
	}
	if v, ok := os.LookupEnv("PWRSTN_DEBUG_SERVER_OFF"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DebugServerOff = b
		}
	}
	if v, ok := os.LookupEnv("PWRSTN_HARDWARE_PROFILE_DIR"); ok {
		cfg.HardwareProfileDir = v
	}
}

// LoadHardwareProfiles is a convenience wrapper around
// hwprofile.LoadMerged rooted at cfg.HardwareProfileDir.
func (c Config) LoadHardwareProfiles() (map[string]hwprofile.Profile, error) {
	return hwprofile.LoadMerged(c.HardwareProfileDir)
}
