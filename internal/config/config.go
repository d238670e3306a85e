// Package config provides configuration management for fymo applications
// using Viper for flexible configuration loading from files, environment
// variables, and command-line flags.
//
// The configuration system reads fymo.yml with environment variable
// overrides under the FYMO_ prefix. It manages server settings, the
// compiler command, project paths, render limits, and development options
// like hot reload and the error overlay. Route declarations also live in
// fymo.yml but are parsed separately by the router, which needs their
// declaration order preserved.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Name        string            `yaml:"name"`
	Server      ServerConfig      `yaml:"server"`
	Build       BuildConfig       `yaml:"build"`
	Render      RenderConfig      `yaml:"render"`
	Paths       PathsConfig       `yaml:"paths"`
	Development DevelopmentConfig `yaml:"development"`
	Sentry      SentryConfig      `yaml:"sentry"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Environment    string   `yaml:"environment"`
}

type BuildConfig struct {
	// Command is the JavaScript runtime used to drive the svelte compiler.
	Command string `yaml:"command"`
	// Timeout bounds a single compiler invocation.
	Timeout time.Duration `yaml:"timeout"`
}

type RenderConfig struct {
	// Budget bounds how long one server render may execute.
	Budget time.Duration `yaml:"budget"`
}

type PathsConfig struct {
	Templates     string `yaml:"templates"`
	Static        string `yaml:"static"`
	Data          string `yaml:"data"`
	RuntimeBundle string `yaml:"runtime_bundle"`
}

type DevelopmentConfig struct {
	HotReload    bool `yaml:"hot_reload"`
	ErrorOverlay bool `yaml:"error_overlay"`
}

// SentryConfig carries the error reporting DSN. An empty DSN disables
// Sentry forwarding.
type SentryConfig struct {
	DSN string `yaml:"dsn"`
}

// Dev reports whether the application runs in development mode.
func (c *Config) Dev() bool {
	return c.Server.Environment != "production"
}

// AppName returns the configured application name, or a fallback.
func (c *Config) AppName() string {
	if c.Name == "" {
		return "Fymo App"
	}
	return c.Name
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Handle scalar settings set via viper (flags and env bind there, not
	// into the struct)
	if viper.IsSet("name") {
		config.Name = viper.GetString("name")
	}
	if viper.IsSet("server.host") {
		config.Server.Host = viper.GetString("server.host")
	}
	if viper.IsSet("server.port") {
		config.Server.Port = viper.GetInt("server.port")
	}
	if viper.IsSet("server.environment") {
		config.Server.Environment = viper.GetString("server.environment")
	}
	if viper.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = viper.GetStringSlice("server.allowed_origins")
	}
	if viper.IsSet("build.command") {
		config.Build.Command = viper.GetString("build.command")
	}
	if viper.IsSet("build.timeout") {
		config.Build.Timeout = viper.GetDuration("build.timeout")
	}
	if viper.IsSet("render.budget") {
		config.Render.Budget = viper.GetDuration("render.budget")
	}
	if viper.IsSet("paths.templates") {
		config.Paths.Templates = viper.GetString("paths.templates")
	}
	if viper.IsSet("paths.static") {
		config.Paths.Static = viper.GetString("paths.static")
	}
	if viper.IsSet("paths.data") {
		config.Paths.Data = viper.GetString("paths.data")
	}
	if viper.IsSet("paths.runtime_bundle") {
		config.Paths.RuntimeBundle = viper.GetString("paths.runtime_bundle")
	}
	if viper.IsSet("development.hot_reload") {
		config.Development.HotReload = viper.GetBool("development.hot_reload")
	}
	if viper.IsSet("development.error_overlay") {
		config.Development.ErrorOverlay = viper.GetBool("development.error_overlay")
	}
	if viper.IsSet("sentry.dsn") {
		config.Sentry.DSN = viper.GetString("sentry.dsn")
	}

	// Apply default values for ServerConfig if not set
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 3000
	}
	if config.Server.Environment == "" {
		config.Server.Environment = "development"
	}

	// Apply default values for BuildConfig if not set
	if config.Build.Command == "" {
		config.Build.Command = "node"
	}
	if config.Build.Timeout == 0 {
		config.Build.Timeout = 30 * time.Second
	}

	// Apply default values for RenderConfig if not set
	if config.Render.Budget == 0 {
		config.Render.Budget = 5 * time.Second
	}

	// Apply default values for PathsConfig if not set
	if config.Paths.Templates == "" {
		config.Paths.Templates = filepath.Join("app", "templates")
	}
	if config.Paths.Static == "" {
		config.Paths.Static = filepath.Join("app", "static")
	}
	if config.Paths.Data == "" {
		config.Paths.Data = filepath.Join("app", "data")
	}
	if config.Paths.RuntimeBundle == "" {
		config.Paths.RuntimeBundle = filepath.Join("dist", "svelte-runtime.js")
	}

	// Apply default values for DevelopmentConfig if not set
	if !viper.IsSet("development.hot_reload") {
		config.Development.HotReload = true
	}
	if !viper.IsSet("development.error_overlay") {
		config.Development.ErrorOverlay = true
	}

	// Validate configuration values
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}
	if err := validatePathsConfig(&config.Paths); err != nil {
		return fmt.Errorf("paths config: %w", err)
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Validate port range (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		// Basic validation - no dangerous characters
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	switch config.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("environment %q is not development or production", config.Environment)
	}

	return nil
}

// validateBuildConfig validates build configuration values
func validateBuildConfig(config *BuildConfig) error {
	switch config.Command {
	case "node", "bun":
		return nil
	}
	return fmt.Errorf("command %q is not an allowed JavaScript runtime", config.Command)
}

// validatePathsConfig validates project path configuration values
func validatePathsConfig(config *PathsConfig) error {
	paths := map[string]string{
		"templates":      config.Templates,
		"static":         config.Static,
		"data":           config.Data,
		"runtime_bundle": config.RuntimeBundle,
	}
	for name, path := range paths {
		cleanPath := filepath.Clean(path)
		if strings.Contains(cleanPath, "..") {
			return fmt.Errorf("%s contains path traversal: %s", name, path)
		}
		if filepath.IsAbs(cleanPath) {
			return fmt.Errorf("%s should be a project-relative path: %s", name, path)
		}
	}
	return nil
}
