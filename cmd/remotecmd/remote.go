// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package remotecmd

import (
	"fmt"

	"github.com/luxfi/znapper/pkg/application"
	"github.com/luxfi/znapper/pkg/remote"
	"github.com/luxfi/znapper/pkg/repl"
	"github.com/luxfi/znapper/pkg/zfs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewInitArchiveCmd writes a full stream of a pool into a detached
// archive file, together with the metadata sidecar that records the
// base snapshot for later incremental sessions.
func NewInitArchiveCmd(app *application.Znapper) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "remote_init_archive [pool] [file] [metadata]",
		Short: "Write a full replication archive of a pool plus its metadata sidecar",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInitArchive(app, args[0], args[1], args[2], dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "log actions without executing them")
	return cmd
}

// NewLoadArchiveCmd applies a replication archive onto a pool.
func NewLoadArchiveCmd(app *application.Znapper) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "remote_load_archive [pool] [file]",
		Short: "Apply a replication archive onto a pool",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runLoadArchive(app, args[0], args[1], dryRun)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "log actions without executing them")
	return cmd
}

// NewReplCmd continues archive-seeded replication with an incremental
// transfer forwarded over ssh.
func NewReplCmd(app *application.Znapper) *cobra.Command {
	var (
		dryRun bool
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "remote_repl [remote_endpoint] [metadata]",
		Short: "Replicate incrementally over ssh, anchored on the metadata sidecar",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runRemoteRepl(app, args[0], args[1], dryRun, verify)
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dryrun", "n", false, "log actions without executing them")
	cmd.Flags().BoolVar(&verify, "verify", false,
		"after the transfer, confirm over ssh that the new base snapshot exists on the destination")
	return cmd
}

func runInitArchive(app *application.Znapper, pool, file, metaPath string, dryRun bool) error {
	client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, dryRun)

	snaps, err := client.ListSnapshots(pool, true)
	if err != nil {
		return err
	}
	remoteSnaps := zfs.FilterByKind(snaps, string(repl.KindRemote))

	label, err := repl.NewNamer().NewLabel(repl.KindRemote)
	if err != nil {
		return err
	}
	base := pool + "@" + label

	pipeline := repl.NewPipeline(client, app.ZFSBin, app.SSHBin, app.Log, dryRun)
	if err := pipeline.Run(repl.Session{
		Tip:         base,
		CreateTip:   true,
		Send:        zfs.SendOptions{Raw: true, Recursive: true, LargeBlocks: true},
		DestArchive: file,
	}); err != nil {
		return err
	}

	// The sidecar is only written once the archive is complete, so it
	// never points at a snapshot whose archive failed half way.
	if !dryRun {
		if err := repl.WriteArchiveMetadata(metaPath, base); err != nil {
			return err
		}
	}
	app.UX.GreenCheckmarkToUser("replication archive of %s written to %s", pool, file)

	repl.NewRetention(client, app.Log).PruneSuperseded(remoteSnaps, base)
	return nil
}

func runLoadArchive(app *application.Znapper, pool, file string, dryRun bool) error {
	client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, dryRun)
	pipeline := repl.NewPipeline(client, app.ZFSBin, app.SSHBin, app.Log, dryRun)
	if err := pipeline.Run(repl.Session{
		SourceArchive: file,
		DestPool:      pool,
		Recv:          zfs.RecvOptions{MountpointNone: true, ReadOnly: true},
	}); err != nil {
		return err
	}
	app.UX.GreenCheckmarkToUser("replication archive %s applied to %s", file, pool)

	app.UX.PrintToUser("You should now set up a dedicated backup user. In that user's .ssh/authorized_keys set:")
	app.UX.PrintToUser(`  command="/usr/sbin/zfs recv -x mountpoint -x readonly %s",no-port-forwarding,no-X11-forwarding,no-agent-forwarding,no-pty [ssh-key]`, pool)
	app.UX.PrintToUser("You must also delegate receive permission to that user:")
	app.UX.PrintToUser("  zfs allow [user] mount,create,receive %s", pool)
	return nil
}

func runRemoteRepl(app *application.Znapper, endpoint, metaPath string, dryRun, verify bool) error {
	precursor, err := repl.ReadArchiveMetadata(metaPath)
	if err != nil {
		return err
	}
	pool := zfs.PoolOf(precursor)
	app.Log.Debug("anchoring from sidecar",
		zap.String("precursor", precursor), zap.String("pool", pool))

	client := zfs.NewClient(zfs.NewExecRunner(app.ZFSBin, app.Log), app.Log, dryRun)

	snaps, err := client.ListSnapshots(pool, true)
	if err != nil {
		return err
	}
	remoteSnaps := zfs.FilterByKind(snaps, string(repl.KindRemote))

	label, err := repl.NewNamer().NewLabel(repl.KindRemote)
	if err != nil {
		return err
	}
	tip := pool + "@" + label

	pipeline := repl.NewPipeline(client, app.ZFSBin, app.SSHBin, app.Log, dryRun)
	if err := pipeline.Run(repl.Session{
		Tip:       tip,
		CreateTip: true,
		Send: zfs.SendOptions{
			Raw:         true,
			Recursive:   true,
			LargeBlocks: true,
			Precursor:   precursor,
		},
		DestSSH: endpoint,
	}); err != nil {
		return err
	}

	// The transport alone cannot prove the stream was received; the
	// accepted exit set includes a benign disconnect code. When asked,
	// check the post-condition directly and retire the snapshot if it
	// did not land.
	if verify && !dryRun {
		if verr := remote.NewVerifier(app.Log).SnapshotLanded(endpoint, tip); verr != nil {
			app.Log.Info("removing unverified snapshot", zap.String("snapshot", tip))
			if derr := client.DestroySnapshot(tip); derr != nil {
				app.Log.Warn("failed to destroy unverified snapshot",
					zap.String("snapshot", tip), zap.Error(derr))
			}
			return fmt.Errorf("%w: %v", repl.ErrPipeline, verr)
		}
	}

	// Anchor the next incremental session on the snapshot that just
	// landed; without this the destination would reject the next
	// stream as not matching its most recent snapshot.
	if !dryRun {
		if err := repl.WriteArchiveMetadata(metaPath, tip); err != nil {
			return err
		}
	}
	app.UX.GreenCheckmarkToUser("incremental replication of %s to %s complete", pool, endpoint)

	repl.NewRetention(client, app.Log).PruneSuperseded(remoteSnaps, tip)
	return nil
}
