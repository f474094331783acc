// kf is a command line tool for inspecting, storing and exchanging
// OpenPGP certificates.
package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/keyfold/keyfold/config"
	"github.com/keyfold/keyfold/store"
)

var (
	flagConfig  string
	flagStore   string
	flagServer  string
	flagVerbose bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:           "kf",
	Short:         "Work with OpenPGP certificates",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			if home, err := os.UserHomeDir(); err == nil {
				candidate := filepath.Join(home, ".keyfold", "config.toml")
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
				}
			}
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if flagStore != "" {
			cfg.StorePath = flagStore
		}
		if flagServer != "" {
			cfg.KeyServer = flagServer
		}
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			level = logrus.WarnLevel
		}
		if flagVerbose {
			level = logrus.DebugLevel
		}
		logrus.SetLevel(level)
		return nil
	},
}

func openStore() (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0700); err != nil {
		return nil, err
	}
	return store.Open(cfg.StorePath)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&flagStore, "store", "s", "", "certificate store path")
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "keyserver URI")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(inspectCmd, enarmorCmd, dearmorCmd, keyserverCmd, storeCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
