// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package replcmd

import (
	"github.com/luxfi/znapper/pkg/application"
	"github.com/luxfi/znapper/pkg/repl"
	"github.com/luxfi/znapper/pkg/zfs"
	"github.com/spf13/cobra"
)

// NewInitCmd seeds a replica with a full transfer. The new base
// snapshot becomes the precursor of subsequent repl runs.
func NewInitCmd(app *application.Znapper) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "init_repl [from_pool] [to_pool]",
		Short: "Initialize replication of a pool with a full transfer",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInit(app, args[0], args[1], dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "log actions without executing them")
	return cmd
}

// NewReplCmd continues replication with an incremental transfer from
// the resolved precursor.
func NewReplCmd(app *application.Znapper) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "repl [from_pool] [to_pool]",
		Short: "Replicate a pool incrementally onto a local replica",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRepl(app, args[0], args[1], dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "log actions without executing them")
	return cmd
}

func runInit(app *application.Znapper, fromPool, toPool string, dryRun bool) error {
	client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, dryRun)

	// Captured before the new base exists, so the prune set can never
	// include it.
	snaps, err := client.ListSnapshots(fromPool, true)
	if err != nil {
		return err
	}
	replSnaps := zfs.FilterByKind(snaps, string(repl.KindRepl))

	label, err := repl.NewNamer().NewLabel(repl.KindRepl)
	if err != nil {
		return err
	}
	base := fromPool + "@" + label

	pipeline := repl.NewPipeline(client, app.ZFSBin, app.SSHBin, app.Log, dryRun)
	if err := pipeline.Run(repl.Session{
		Tip:       base,
		CreateTip: true,
		Send:      zfs.SendOptions{Raw: true, Recursive: true, LargeBlocks: true},
		DestPool:  toPool,
		Recv:      zfs.RecvOptions{MountpointNone: true, ReadOnly: true},
	}); err != nil {
		return err
	}
	app.UX.GreenCheckmarkToUser("initial replication of %s to %s complete", fromPool, toPool)

	repl.NewRetention(client, app.Log).PruneSuperseded(replSnaps, base)
	return nil
}

func runRepl(app *application.Znapper, fromPool, toPool string, dryRun bool) error {
	client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, dryRun)

	fromSnaps, err := client.ListSnapshots(fromPool, true)
	if err != nil {
		return err
	}
	fromRepl := zfs.FilterByKind(fromSnaps, string(repl.KindRepl))

	toSnaps, err := client.ListSnapshots(toPool, true)
	if err != nil {
		return err
	}
	toRepl := zfs.FilterByKind(toSnaps, string(repl.KindRepl))

	precursor, err := repl.ResolvePrecursor(app.Log, fromRepl, toRepl)
	if err != nil {
		return err
	}

	label, err := repl.NewNamer().NewLabel(repl.KindRepl)
	if err != nil {
		return err
	}
	base := fromPool + "@" + label

	pipeline := repl.NewPipeline(client, app.ZFSBin, app.SSHBin, app.Log, dryRun)
	if err := pipeline.Run(repl.Session{
		Tip:       base,
		CreateTip: true,
		Send: zfs.SendOptions{
			Raw:         true,
			Recursive:   true,
			LargeBlocks: true,
			Precursor:   precursor,
		},
		DestPool: toPool,
		Recv:     zfs.RecvOptions{MountpointNone: true, ReadOnly: true},
	}); err != nil {
		return err
	}
	app.UX.GreenCheckmarkToUser("incremental replication of %s to %s complete", fromPool, toPool)

	// Both timelines are anchored on the new base now; everything older
	// is obsolete.
	retention := repl.NewRetention(client, app.Log)
	retention.PruneSuperseded(fromRepl, base)
	retention.PruneSuperseded(toRepl, base)
	return nil
}
