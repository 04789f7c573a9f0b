// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package repl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func namerAt(ts time.Time) *Namer {
	return &Namer{now: func() time.Time { return ts }}
}

func TestNewLabel(t *testing.T) {
	t.Setenv("TZ", "UTC")
	n := namerAt(time.Date(2024, 3, 7, 9, 5, 2, 0, time.UTC))

	label, err := n.NewLabel(KindAuto)
	require.NoError(t, err)
	require.Equal(t, "auto_2024_03_07_09_05_02", label)

	label, err = n.NewLabel(KindRepl)
	require.NoError(t, err)
	require.Equal(t, "repl_2024_03_07_09_05_02", label)
}

func TestLabelOrderMatchesTimeOrder(t *testing.T) {
	t.Setenv("TZ", "UTC")

	// Field carries matter: a later time must produce a later label
	// even when only a high-order field differs.
	times := []time.Time{
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 10, 2, 10, 0, 0, 0, time.UTC),
	}

	var prev string
	for i, ts := range times {
		label, err := namerAt(ts).NewLabel(KindAuto)
		require.NoError(t, err)
		if i > 0 {
			require.Less(t, prev, label)
		}
		prev = label
	}
}

func TestCutoffLabel(t *testing.T) {
	t.Setenv("TZ", "UTC")
	n := namerAt(time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC))

	cutoff, err := n.CutoffLabel(KindAuto, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, "auto_2024_03_06_10_00_00", cutoff)
}

func TestNewLabelBadZone(t *testing.T) {
	t.Setenv("TZ", "Not/AZone")

	_, err := NewNamer().NewLabel(KindAuto)
	require.ErrorIs(t, err, ErrClock)
}
