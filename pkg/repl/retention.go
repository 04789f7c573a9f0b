// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package repl

import (
	"time"

	"github.com/luxfi/znapper/pkg/zfs"
	"go.uber.org/zap"
)

// Retention decides which snapshots are eligible for removal and
// removes them. Removal is best-effort per snapshot: one failure is
// logged and does not stop the others.
type Retention struct {
	zfs *zfs.Client
	log *zap.Logger
}

func NewRetention(client *zfs.Client, log *zap.Logger) *Retention {
	return &Retention{zfs: client, log: log}
}

// PruneAged removes every automatic snapshot of pool older than keep.
// The comparison is on label strings, valid because the fixed-width
// zero-padded timestamp format makes string order chronological.
func (r *Retention) PruneAged(namer *Namer, pool string, keep time.Duration) error {
	cutoff, err := namer.CutoffLabel(KindAuto, keep)
	if err != nil {
		return err
	}
	r.log.Debug("retention cutoff", zap.String("label", cutoff))

	snaps, err := r.zfs.ListSnapshots(pool, true)
	if err != nil {
		return err
	}

	var remove []string
	for _, snap := range zfs.FilterByKind(snaps, string(KindAuto)) {
		if zfs.LabelOf(snap) < cutoff {
			remove = append(remove, snap)
		}
	}
	r.log.Debug("aged snapshots", zap.Strings("remove", remove))

	for _, snap := range remove {
		if err := r.zfs.DestroySnapshot(snap); err != nil {
			r.log.Warn("failed to destroy aged snapshot",
				zap.String("snapshot", snap), zap.Error(err))
		}
	}
	return nil
}

// PruneSuperseded removes the replication snapshots that existed when a
// session started, now obsolete because newBase supersedes them as the
// next precursor. newBase itself is never removed. Call only after the
// session's pipeline has confirmed success.
func (r *Retention) PruneSuperseded(atStart []string, newBase string) {
	for _, snap := range atStart {
		if snap == newBase {
			continue
		}
		if err := r.zfs.DestroySnapshot(snap); err != nil {
			r.log.Warn("failed to destroy superseded snapshot",
				zap.String("snapshot", snap), zap.Error(err))
		}
	}
}
