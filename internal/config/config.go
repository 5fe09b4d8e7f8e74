// Package config loads server and CLI settings.
//
// WHERE SETTINGS COME FROM (lowest to highest priority):
//
//  1. defaults set in New
//  2. a YAML file: --config, or playground.yaml in the working directory
//  3. PLAYGROUND_* environment variables, e.g. PLAYGROUND_SERVER_PORT=9000
//  4. command-line flags bound by the CLI
//
// Viper merges all of them; Load turns the result into a typed Config and
// validates it, so the rest of the program never reads viper directly.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sakif/component-playground/internal/executor/docker"
)

// EnvPrefix is the prefix of every environment variable the program reads.
const EnvPrefix = "PLAYGROUND"

// Engine backends.
const (
	BackendGoja    = "goja"
	BackendSandbox = "sandbox"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Sandbox  SandboxConfig  `mapstructure:"sandbox"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	StaticDir   string `mapstructure:"static_dir"`   // empty means the embedded assets
	SamplesFile string `mapstructure:"samples_file"` // empty means the built-in catalog
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret"`
	GitHubClientID     string `mapstructure:"github_client_id"`
	GitHubClientSecret string `mapstructure:"github_client_secret"`
	GitHubCallbackURL  string `mapstructure:"github_callback_url"`
}

// Enabled reports whether login is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" && a.GitHubClientID != "" && a.GitHubClientSecret != ""
}

type EngineConfig struct {
	Backend    string        `mapstructure:"backend"`
	EntryPoint string        `mapstructure:"entry_point"`
	Timeout    time.Duration `mapstructure:"timeout"` // 0 disables the guard
}

type SandboxConfig struct {
	Image       string        `mapstructure:"image"`
	MemoryLimit int64         `mapstructure:"memory_limit"`
	CPULimit    float64       `mapstructure:"cpu_limit"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PoolSize    int           `mapstructure:"pool_size"`
}

// Docker converts the sandbox settings into the executor's config.
func (s SandboxConfig) Docker() docker.Config {
	cfg := docker.DefaultConfig()
	cfg.Image = s.Image
	cfg.MemoryLimit = s.MemoryLimit
	cfg.CPULimit = s.CPULimit
	cfg.Timeout = s.Timeout
	cfg.PoolSize = s.PoolSize
	return cfg
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with every default registered and environment
// overrides enabled. Defaults must exist for every key: AutomaticEnv only
// applies to keys viper already knows about when unmarshalling.
func New() *viper.Viper {
	v := viper.New()

	sandbox := docker.DefaultConfig()
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.static_dir", "") // empty serves the embedded assets
	v.SetDefault("server.samples_file", "")
	v.SetDefault("database.path", "data/playground.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.github_client_id", "")
	v.SetDefault("auth.github_client_secret", "")
	v.SetDefault("auth.github_callback_url", "")
	v.SetDefault("engine.backend", BackendGoja)
	v.SetDefault("engine.entry_point", "ComponentDemo")
	v.SetDefault("engine.timeout", 0)
	v.SetDefault("sandbox.image", sandbox.Image)
	v.SetDefault("sandbox.memory_limit", sandbox.MemoryLimit)
	v.SetDefault("sandbox.cpu_limit", sandbox.CPULimit)
	v.SetDefault("sandbox.timeout", sandbox.Timeout)
	v.SetDefault("sandbox.pool_size", sandbox.PoolSize)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and returns the validated Config.
// configFile may be empty, in which case playground.yaml is looked up in the
// working directory and silently skipped when absent.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("playground")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Auth.GitHubCallbackURL == "" {
		cfg.Auth.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
