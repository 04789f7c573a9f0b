// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/luxfi/znapper/pkg/repl"
	"github.com/luxfi/znapper/pkg/zfs"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "unclassified", err: errors.New("boom"), want: 1},
		{name: "clock", err: fmt.Errorf("label: %w", repl.ErrClock), want: 2},
		{name: "catalog", err: fmt.Errorf("list: %w", zfs.ErrCatalog), want: 3},
		{name: "no precursor", err: fmt.Errorf("resolve: %w", repl.ErrNoPrecursor), want: 4},
		{name: "producer spawn", err: fmt.Errorf("send: %w", repl.ErrProducerSpawn), want: 5},
		{name: "consumer spawn", err: fmt.Errorf("recv: %w", repl.ErrConsumerSpawn), want: 6},
		{name: "pipeline", err: fmt.Errorf("transfer: %w", repl.ErrPipeline), want: 7},
		{name: "io", err: fmt.Errorf("archive: %w", repl.ErrIO), want: 8},
		{name: "metadata", err: fmt.Errorf("sidecar: %w", repl.ErrMetadata), want: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRootCommandWiring(t *testing.T) {
	rootCmd := NewRootCmd()

	want := []string{
		"list_snapshots",
		"snapshot",
		"snapshot_cleanup",
		"init_repl",
		"repl",
		"remote_init_archive",
		"remote_load_archive",
		"remote_repl",
	}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, "command %s", name)
		require.Equal(t, name, cmd.Name())
	}
}
