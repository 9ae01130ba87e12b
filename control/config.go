// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration: defaults, optional YAML file, HIOLOAD_* environment
// overrides, validation and YAML rendering.

package control

import (
	"strings"
	"time"

	"github.com/momentics/hioload-loop/api"
	"github.com/spf13/viper"
	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. HIOLOAD_WORKER_THREADS.
const EnvPrefix = "HIOLOAD"

// Config is the effective runtime configuration.
type Config struct {
	BossThreads     int           `mapstructure:"boss_threads"`
	WorkerThreads   int           `mapstructure:"worker_threads"`
	QuietPeriod     time.Duration `mapstructure:"quiet_period"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ShutdownGrace   time.Duration `mapstructure:"shutdown_grace"`
	TaskBatchSize   int           `mapstructure:"task_batch_size"`
	CPUAffinity     bool          `mapstructure:"cpu_affinity"`
	LogLevel        string        `mapstructure:"log_level"`
	ListenAddr      string        `mapstructure:"listen_addr"`
	EnableMetrics   bool          `mapstructure:"enable_metrics"`
	EnableDebug     bool          `mapstructure:"enable_debug"`
}

// DefaultConfig returns the built-in defaults. WorkerThreads 0 selects twice
// the number of usable processors.
func DefaultConfig() *Config {
	return &Config{
		BossThreads:     1,
		WorkerThreads:   0,
		QuietPeriod:     2 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		ShutdownGrace:   time.Second,
		TaskBatchSize:   64,
		CPUAffinity:     false,
		LogLevel:        "info",
		ListenAddr:      "127.0.0.1:8080",
		EnableMetrics:   true,
		EnableDebug:     false,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("boss_threads", d.BossThreads)
	v.SetDefault("worker_threads", d.WorkerThreads)
	v.SetDefault("quiet_period", d.QuietPeriod)
	v.SetDefault("shutdown_timeout", d.ShutdownTimeout)
	v.SetDefault("shutdown_grace", d.ShutdownGrace)
	v.SetDefault("task_batch_size", d.TaskBatchSize)
	v.SetDefault("cpu_affinity", d.CPUAffinity)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("enable_metrics", d.EnableMetrics)
	v.SetDefault("enable_debug", d.EnableDebug)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errorc.With(api.ErrInvalidConfiguration, errorc.String("cause", err.Error()))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the configuration. An empty path uses defaults and environment
// overrides only.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, errorc.With(api.ErrInvalidConfiguration,
				errorc.String("path", path),
				errorc.String("cause", err.Error()))
		}
	}
	return decode(v)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	invalid := func(key, value string) error {
		return errorc.With(api.ErrInvalidConfiguration, errorc.String(key, value))
	}
	switch {
	case c.BossThreads < 1:
		return invalid("boss_threads", itoa(c.BossThreads))
	case c.WorkerThreads < 0:
		return invalid("worker_threads", itoa(c.WorkerThreads))
	case c.QuietPeriod < 0:
		return invalid("quiet_period", c.QuietPeriod.String())
	case c.ShutdownTimeout < c.QuietPeriod:
		return invalid("shutdown_timeout", c.ShutdownTimeout.String())
	case c.ShutdownGrace < 0:
		return invalid("shutdown_grace", c.ShutdownGrace.String())
	case c.TaskBatchSize < 1:
		return invalid("task_batch_size", itoa(c.TaskBatchSize))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

type configView struct {
	BossThreads     int    `yaml:"boss_threads"`
	WorkerThreads   int    `yaml:"worker_threads"`
	QuietPeriod     string `yaml:"quiet_period"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	ShutdownGrace   string `yaml:"shutdown_grace"`
	TaskBatchSize   int    `yaml:"task_batch_size"`
	CPUAffinity     bool   `yaml:"cpu_affinity"`
	LogLevel        string `yaml:"log_level"`
	ListenAddr      string `yaml:"listen_addr"`
	EnableMetrics   bool   `yaml:"enable_metrics"`
	EnableDebug     bool   `yaml:"enable_debug"`
}

// YAML renders the configuration in the file format Load accepts.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(configView{
		BossThreads:     c.BossThreads,
		WorkerThreads:   c.WorkerThreads,
		QuietPeriod:     c.QuietPeriod.String(),
		ShutdownTimeout: c.ShutdownTimeout.String(),
		ShutdownGrace:   c.ShutdownGrace.String(),
		TaskBatchSize:   c.TaskBatchSize,
		CPUAffinity:     c.CPUAffinity,
		LogLevel:        c.LogLevel,
		ListenAddr:      c.ListenAddr,
		EnableMetrics:   c.EnableMetrics,
		EnableDebug:     c.EnableDebug,
	})
}
