// Package cmd provides the fymo command-line interface.
//
// Configuration System:
//
//	Commands resolve configuration from multiple sources with clear precedence:
//	1. Command-line flags (--config, --port, etc.) - highest priority
//	2. FYMO_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (FYMO_SERVER_PORT, etc.)
//	4. Configuration files (fymo.yml) - lowest priority
//
// Environment Variables:
//
//	FYMO_CONFIG_FILE: Path to custom configuration file
//	FYMO_SERVER_PORT: Override server port
//	FYMO_SERVER_HOST: Override server host
//	FYMO_DEVELOPMENT_HOT_RELOAD: Enable/disable hot reload
//	And so on following the FYMO_<SECTION>_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Bishwas-py/fymo/internal/config"
	"github.com/Bishwas-py/fymo/internal/logging"
	"github.com/Bishwas-py/fymo/internal/version"
)

var cfgFile string

// logLevelFlag is a pflag.Value that rejects unknown levels at parse time
// instead of falling back silently.
type logLevelFlag struct {
	level logging.LogLevel
}

var _ pflag.Value = (*logLevelFlag)(nil)

func (f *logLevelFlag) String() string { return strings.ToLower(f.level.String()) }

func (f *logLevelFlag) Set(value string) error {
	level, err := logging.ParseLevel(value)
	if err != nil {
		return err
	}
	f.level = level
	return nil
}

func (f *logLevelFlag) Type() string { return "level" }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fymo",
	Short: "Server-side rendering framework for Svelte 5",
	Long: `Fymo renders Svelte 5 components on the server and hydrates them in the
browser. Components compile through the project's own svelte compiler, run in
an embedded JavaScript sandbox, and ship with per-route controller data.

Key Features:
  • Server-side rendering with client hydration
  • Rails-style routing and controller data files
  • Hot reload development server
  • Svelte runtime bundling via esbuild

Quick Start:
  fymo new my-app                 Create a new project
  fymo serve                      Start the development server
  fymo generate component card    Generate a component
  fymo build                      Precompile components for production

Documentation: https://github.com/Bishwas-py/fymo`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is fymo.yml, can also use FYMO_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().VarP(&logLevelFlag{level: logging.LevelInfo}, "log-level", "l", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. FYMO_CONFIG_FILE environment variable: Custom config file path
//  3. Default: fymo.yml in the current directory
//
// All configuration values also bind to environment variables with the FYMO_
// prefix (e.g. FYMO_SERVER_PORT=8080).
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("FYMO_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("fymo")
	}

	viper.SetEnvPrefix("FYMO")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file is not fatal here; commands that
	// need one validate through config.Load.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the command logger from the resolved configuration: JSON
// output in production, Sentry forwarding when a DSN is configured. The
// returned flush drains pending Sentry events and must run before exit.
func newLogger(cfg *config.Config) (logging.Logger, func()) {
	logCfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(viper.GetString("log-level")); err == nil {
		logCfg.Level = level
	}
	if !cfg.Dev() {
		logCfg.Format = "json"
	}

	if cfg.Sentry.DSN != "" {
		return logging.NewWithSentry(logCfg, logging.SentryOptions{
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     version.Release(),
		})
	}
	return logging.NewLogger(logCfg), func() {}
}
