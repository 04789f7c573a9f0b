// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/znapper/cmd/remotecmd"
	"github.com/luxfi/znapper/cmd/replcmd"
	"github.com/luxfi/znapper/cmd/snapshotcmd"
	"github.com/luxfi/znapper/pkg/application"
	"github.com/luxfi/znapper/pkg/repl"
	"github.com/luxfi/znapper/pkg/ux"
	"github.com/luxfi/znapper/pkg/zfs"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	app *application.Znapper

	Version = "0.3.0"
	cfgFile string
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "znapper",
		Long: `znapper - ZFS snapshot lifecycle and replication.

znapper creates periodic snapshots of mounted filesystems, prunes them
by age, and replicates pools: locally between two pools, through a
detached file archive, or forwarded over ssh. It drives the zfs command
surface directly and never runs as a daemon; run it from cron or a
timer, one invocation per pool at a time.

QUICK START:

  # Take an automatic snapshot of every mounted filesystem
  znapper snapshot

  # Prune automatic snapshots older than a day
  znapper snapshot_cleanup tank 24

  # Seed a local replica, then keep it current
  znapper init_repl tank backup/tank
  znapper repl tank backup/tank

All replication commands accept -n to rehearse: the resolved command
lines and retention decisions are logged without mutating any state.`,
		PersistentPreRunE: createApp,
		Version:           Version,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.znapper/config.json)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level for diagnostics (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("zfs-path", "zfs", "path to the zfs binary")
	rootCmd.PersistentFlags().String("ssh-path", "ssh", "path to the ssh binary")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("zfs-path", rootCmd.PersistentFlags().Lookup("zfs-path"))
	_ = viper.BindPFlag("ssh-path", rootCmd.PersistentFlags().Lookup("ssh-path"))

	rootCmd.AddCommand(snapshotcmd.NewListCmd(app))
	rootCmd.AddCommand(snapshotcmd.NewSnapshotCmd(app))
	rootCmd.AddCommand(snapshotcmd.NewCleanupCmd(app))
	rootCmd.AddCommand(replcmd.NewInitCmd(app))
	rootCmd.AddCommand(replcmd.NewReplCmd(app))
	rootCmd.AddCommand(remotecmd.NewInitArchiveCmd(app))
	rootCmd.AddCommand(remotecmd.NewLoadArchiveCmd(app))
	rootCmd.AddCommand(remotecmd.NewReplCmd(app))

	return rootCmd
}

func createApp(*cobra.Command, []string) error {
	initConfig()

	level, err := zapcore.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", viper.GetString("log-level"), err)
	}
	log, err := setupLogging(level)
	if err != nil {
		return err
	}

	// Command output goes to stdout, diagnostics to stderr.
	userLog := ux.NewUserLog(log, os.Stdout)
	app.Setup(log, userLog, viper.GetString("zfs-path"), viper.GetString("ssh-path"))
	return nil
}

func setupLogging(level zapcore.Level) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.DisableStacktrace = true
	log, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed setting up logging: %w", err)
	}
	return log, nil
}

// initConfig reads in config file and ENV variables if set.
// Priority: flags > env vars > config file > defaults
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".znapper"))
		viper.SetConfigType("json")
		viper.SetConfigName("config")
	}

	// ZNAPPER_LOG_LEVEL -> log-level, etc.
	viper.SetEnvPrefix("znapper")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// No config file is normal - most users don't have one.
	_ = viper.ReadInConfig()
}

// ExitCode maps the error taxonomy to distinct process exit codes, so
// a scheduler can tell failure modes apart instead of every failure
// looking like success.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, repl.ErrClock):
		return 2
	case errors.Is(err, zfs.ErrCatalog):
		return 3
	case errors.Is(err, repl.ErrNoPrecursor):
		return 4
	case errors.Is(err, repl.ErrProducerSpawn):
		return 5
	case errors.Is(err, repl.ErrConsumerSpawn):
		return 6
	case errors.Is(err, repl.ErrPipeline):
		return 7
	case errors.Is(err, repl.ErrIO):
		return 8
	case errors.Is(err, repl.ErrMetadata):
		return 9
	default:
		return 1
	}
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	app = application.New()
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\nERROR: %s\n", err)
		os.Exit(ExitCode(err))
	}
}
