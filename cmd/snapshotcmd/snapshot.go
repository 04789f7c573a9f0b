// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotcmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/luxfi/znapper/pkg/application"
	"github.com/luxfi/znapper/pkg/repl"
	"github.com/luxfi/znapper/pkg/zfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewListCmd prints the full recursive snapshot catalog of a pool.
func NewListCmd(app *application.Znapper) *cobra.Command {
	return &cobra.Command{
		Use:   "list_snapshots [pool]",
		Short: "List the snapshots of a pool and its child datasets",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, false)
			snaps, err := client.ListSnapshots(args[0], true)
			if err != nil {
				return err
			}
			app.UX.PrintSnapshotTable(snaps)
			return nil
		},
	}
}

// NewSnapshotCmd creates one automatic snapshot per mounted filesystem.
func NewSnapshotCmd(app *application.Znapper) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Create an automatic snapshot of every mounted filesystem",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, dryRun)
			mounted, err := client.ListMountedPools()
			if err != nil {
				return err
			}

			label, err := repl.NewNamer().NewLabel(repl.KindAuto)
			if err != nil {
				return err
			}

			// Creation is best-effort per filesystem: one failure must
			// not block the snapshot of the others.
			for _, fs := range mounted {
				name := fs + "@" + label
				if err := client.CreateSnapshot(name, false); err != nil {
					app.Log.Warn("failed to create snapshot",
						zap.String("snapshot", name), zap.Error(err))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "log actions without executing them")
	return cmd
}

// NewCleanupCmd prunes automatic snapshots older than the retention
// window.
func NewCleanupCmd(app *application.Znapper) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "snapshot_cleanup [pool] [keep_hours]",
		Short: "Remove automatic snapshots older than keep_hours",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			keepHours, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("keep_hours must be a positive integer: %w", err)
			}
			client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, dryRun)
			retention := repl.NewRetention(client, app.Log)
			return retention.PruneAged(repl.NewNamer(), args[0], time.Duration(keepHours)*time.Hour)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "log actions without executing them")
	return cmd
}
