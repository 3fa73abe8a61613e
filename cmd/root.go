// Package cmd provides the command-line interface for the bundler, with
// configuration management supporting multiple configuration sources.
//
// Configuration System:
//
//	The CLI supports flexible configuration through multiple sources with clear precedence:
//	1. Command-line flags (--config, --log-level, etc.) - highest priority
//	2. BUNDLER_CONFIG_FILE environment variable - custom config file path
//	3. Individual environment variables (BUNDLER_OUT_DIR, etc.)
//	4. Configuration files (.bundler.yml) - lowest priority
//
// Environment Variables:
//
//	BUNDLER_CONFIG_FILE: Path to custom configuration file
//	BUNDLER_OUT_DIR: Override output directory
//	BUNDLER_WORKERS: Override worker-farm size
//	And every other Config field following the BUNDLER_<OPTION> pattern
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bundle",
	Short: "A multi-language application bundler",
	Long: `bundle resolves an application's dependency graph across JavaScript,
CSS, and HTML sources, processes each asset in an isolated worker pool,
and packages the result into a bundle tree with shared-code hoisting
across dynamic-import boundaries.

Quick Start:
  bundle build src/index.js       Build once and exit
  bundle watch src/index.js       Build, then rebuild on every change
  bundle graph src/index.js       Print the resolved dependency graph
  bundle version                  Show version information

Documentation: https://github.com/conneroisu/bundler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .bundler.yml, can also use BUNDLER_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system with support for multiple config sources.
//
// Configuration Loading Priority (highest to lowest):
//  1. --config flag: Explicitly specified config file path
//  2. BUNDLER_CONFIG_FILE environment variable: Custom config file path
//  3. Default: .bundler.yml in current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("BUNDLER_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bundler")
	}

	// Enable automatic environment variable binding with BUNDLER_ prefix,
	// e.g. BUNDLER_OUT_DIR, BUNDLER_WORKERS, BUNDLER_CACHE_DIR.
	viper.SetEnvPrefix("BUNDLER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or malformed config file is not fatal: Load() falls back
	// to its production-aware defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
