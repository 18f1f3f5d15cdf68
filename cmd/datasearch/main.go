// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the datasearch CLI. A CLI session
// behaves like a browsing session over the dataset search service: every
// search is pushed to a persisted address bar that back, forward and open
// navigate.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultAPIURL     = "https://auctus.vida-nyu.org/api/v1"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 5
)

var rootCmd = &cobra.Command{
	Use:   "datasearch",
	Short: "Search and augment datasets from the command line",
	Long: `datasearch queries a dataset search service by keywords, time range,
location, source, dataset type and a related file, and downloads
join or union augmentations of the related file with a result.

Each search is recorded in the session history. Use back, forward and
open to navigate it the way a browser navigates its address bar.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./datasearch.yaml or ~/.config/datasearch/datasearch.yaml)")
	pf.String("api-url", "", "search service base URL")
	pf.String("session-dir", "", "directory holding the session history")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("secrets-dir", ".secrets", "directory of credential files")

	_ = viper.BindPFlag("api_url", pf.Lookup("api-url"))
	_ = viper.BindPFlag("session_dir", pf.Lookup("session-dir"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("datasearch")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "datasearch"))
		}
	}

	setDefaults(viper.GetViper())

	viper.SetEnvPrefix("DATASEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults(v *viper.Viper) {
	sessionDir := ".datasearch"
	if dir, err := os.UserCacheDir(); err == nil {
		sessionDir = filepath.Join(dir, "datasearch")
	}
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("session_dir", sessionDir)
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("log.env", "dev")
	v.SetDefault("log.level", "")
	v.SetDefault("http.timeout", defaultTimeout)
	v.SetDefault("http.user_agent", "datasearch/"+version)
	v.SetDefault("http.max_retries", defaultMaxRetries)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
