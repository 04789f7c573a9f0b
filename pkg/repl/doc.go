// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package repl is the replication engine: it resolves the precursor
// snapshot two replica timelines share, creates and retires base
// snapshots around a transfer, and pipes a zfs send directly into a
// zfs recv, ssh forward, or archive file.
//
// Key invariants:
//   - At most one unconfirmed base snapshot exists per session; it is
//     destroyed on failure and retained on success.
//   - No pre-existing snapshot is ever removed until the pipeline has
//     confirmed the session, so retrying a failed session is always safe.
//   - The consumer process is waited on before the producer, so the
//     producer can never deadlock on a full pipe buffer.
//
// Usage:
//
//	pipeline := repl.NewPipeline(client, "zfs", "ssh", log, false)
//	err := pipeline.Run(repl.Session{
//	    Tip:       "tank@repl_2024_01_02_00_00_00",
//	    CreateTip: true,
//	    Send:      zfs.SendOptions{Raw: true, Recursive: true, LargeBlocks: true},
//	    DestPool:  "backup/tank",
//	    Recv:      zfs.RecvOptions{MountpointNone: true, ReadOnly: true},
//	})
package repl
