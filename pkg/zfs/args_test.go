// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zfs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSendArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     SendOptions
		snapshot string
		want     []string
	}{
		{
			name:     "full raw recursive",
			opts:     SendOptions{Raw: true, Recursive: true, LargeBlocks: true},
			snapshot: "tank@repl_2024_01_01_00_00_00",
			want:     []string{"send", "-v", "-R", "-w", "-L", "tank@repl_2024_01_01_00_00_00"},
		},
		{
			name: "incremental",
			opts: SendOptions{
				Raw:         true,
				Recursive:   true,
				LargeBlocks: true,
				Precursor:   "tank@repl_2024_01_01_00_00_00",
			},
			snapshot: "tank@repl_2024_01_02_00_00_00",
			want: []string{
				"send", "-v", "-R", "-w", "-L",
				"-I", "tank@repl_2024_01_01_00_00_00",
				"tank@repl_2024_01_02_00_00_00",
			},
		},
		{
			name:     "plain full",
			opts:     SendOptions{},
			snapshot: "tank@auto_2024_01_01_00_00_00",
			want:     []string{"send", "-v", "tank@auto_2024_01_01_00_00_00"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SendArgs(tt.opts, tt.snapshot))
		})
	}
}

func TestRecvArgs(t *testing.T) {
	tests := []struct {
		name string
		opts RecvOptions
		pool string
		want []string
	}{
		{
			name: "replica target",
			opts: RecvOptions{MountpointNone: true, ReadOnly: true},
			pool: "backup/tank",
			want: []string{"recv", "-o", "mountpoint=none", "-o", "readonly=on", "backup/tank"},
		},
		{
			name: "forced",
			opts: RecvOptions{Force: true, MountpointNone: true, ReadOnly: true},
			pool: "backup/tank",
			want: []string{"recv", "-F", "-o", "mountpoint=none", "-o", "readonly=on", "backup/tank"},
		},
		{
			name: "bare",
			opts: RecvOptions{},
			pool: "backup/tank",
			want: []string{"recv", "backup/tank"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, RecvArgs(tt.opts, tt.pool))
		})
	}
}
