// Package cmd provides the weft command-line interface.
//
// Configuration sources, highest priority first: command-line flags,
// WEFT_-prefixed environment variables (WEFT_SERVER_PORT, WEFT_FRONTEND_BASE_PATH,
// ...), and a .weft.yml file in the working directory (or the file named by
// --config / WEFT_CONFIG_FILE).
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/weftdev/weft/internal/config"
	"github.com/weftdev/weft/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "weft",
	Short: "A declarative HTML composition dev tool",
	Long: `Weft assembles HTML pages from recursively nested components, each
described by a small dependency descriptor naming sub-components, remote data
sources, and default values, with deduplicated CSS/JS assets and cycle-safe
recursion.

Quick Start:
  weft new page Welcome           Scaffold a page
  weft new component Ui button    Scaffold a component in a group
  weft serve                      Start the dev server with live reload
  weft build pages/Welcome/html/Welcome.html   Compose a page to stdout`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .weft.yml, can also use WEFT_CONFIG_FILE)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("base-path", "", "frontend root directory")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("frontend.base_path", rootCmd.PersistentFlags().Lookup("base-path"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("WEFT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".weft")
	}

	viper.SetEnvPrefix("WEFT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or malformed config files degrade to defaults.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and builds the logger commands share.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	return cfg, logger, nil
}
