// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package repl

import (
	"fmt"
	"os"
	"time"
)

// Kind is a snapshot label prefix identifying which workflow created
// the snapshot.
type Kind string

const (
	// KindAuto labels periodic snapshots created by the snapshot command.
	KindAuto Kind = "auto_"

	// KindRepl labels base snapshots of local pool-to-pool replication.
	KindRepl Kind = "repl_"

	// KindRemote labels base snapshots of archive and ssh-forwarded
	// replication.
	KindRemote Kind = "remote_"
)

// labelTimeLayout renders local time fixed-width and zero-padded so
// that lexicographic order of labels equals chronological order.
const labelTimeLayout = "2006_01_02_15_04_05"

// Namer produces sortable snapshot labels from the current local time.
type Namer struct {
	now func() time.Time
}

func NewNamer() *Namer {
	return &Namer{now: time.Now}
}

// NewLabel returns a label of the given kind for the current time.
func (n *Namer) NewLabel(kind Kind) (string, error) {
	loc, err := localZone()
	if err != nil {
		return "", err
	}
	return string(kind) + n.now().In(loc).Format(labelTimeLayout), nil
}

// CutoffLabel returns the label a snapshot of the given kind would have
// carried keep ago. Labels comparing less than it are older than the
// retention window.
func (n *Namer) CutoffLabel(kind Kind, keep time.Duration) (string, error) {
	loc, err := localZone()
	if err != nil {
		return "", err
	}
	return string(kind) + n.now().In(loc).Add(-keep).Format(labelTimeLayout), nil
}

func localZone() (*time.Location, error) {
	if tz := os.Getenv("TZ"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClock, err)
		}
		return loc, nil
	}
	return time.Local, nil
}
