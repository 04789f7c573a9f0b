// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zfs

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeRunner struct {
	out   map[string][]byte
	err   error
	calls [][]string
}

func (f *fakeRunner) Output(args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	if f.err != nil {
		return nil, f.err
	}
	return f.out[strings.Join(args, " ")], nil
}

func (f *fakeRunner) Run(args ...string) error {
	f.calls = append(f.calls, args)
	return f.err
}

func TestListSnapshots(t *testing.T) {
	runner := &fakeRunner{out: map[string][]byte{
		"list -H -t snapshot -o name -r tank": []byte(
			"tank@auto_2024_01_01_00_00_00\n" +
				"tank/home@auto_2024_01_01_00_00_00\n" +
				"\n" +
				"tank@repl_2024_01_02_00_00_00\n"),
	}}
	client := NewClient(runner, zaptest.NewLogger(t), false)

	snaps, err := client.ListSnapshots("tank", true)
	require.NoError(t, err)
	require.Equal(t, []string{
		"tank@auto_2024_01_01_00_00_00",
		"tank/home@auto_2024_01_01_00_00_00",
		"tank@repl_2024_01_02_00_00_00",
	}, snaps)
}

func TestListSnapshotsNonRecursive(t *testing.T) {
	runner := &fakeRunner{out: map[string][]byte{
		"list -H -t snapshot -o name tank": []byte("tank@auto_2024_01_01_00_00_00\n"),
	}}
	client := NewClient(runner, zaptest.NewLogger(t), false)

	snaps, err := client.ListSnapshots("tank", false)
	require.NoError(t, err)
	require.Equal(t, []string{"tank@auto_2024_01_01_00_00_00"}, snaps)
}

func TestListSnapshotsDropsHeaderAndBlank(t *testing.T) {
	runner := &fakeRunner{out: map[string][]byte{
		"list -H -t snapshot -o name -r tank": []byte(
			"NAME\n\ntank@auto_2024_01_01_00_00_00\n\n"),
	}}
	client := NewClient(runner, zaptest.NewLogger(t), false)

	snaps, err := client.ListSnapshots("tank", true)
	require.NoError(t, err)
	require.Equal(t, []string{"tank@auto_2024_01_01_00_00_00"}, snaps)
}

func TestListSnapshotsCommandFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("no such pool")}
	client := NewClient(runner, zaptest.NewLogger(t), false)

	_, err := client.ListSnapshots("missing", true)
	require.ErrorIs(t, err, ErrCatalog)
}

func TestListSnapshotsInvalidText(t *testing.T) {
	runner := &fakeRunner{out: map[string][]byte{
		"list -H -t snapshot -o name -r tank": {0xff, 0xfe, 0xfd},
	}}
	client := NewClient(runner, zaptest.NewLogger(t), false)

	_, err := client.ListSnapshots("tank", true)
	require.ErrorIs(t, err, ErrCatalog)
}

func TestListMountedPools(t *testing.T) {
	runner := &fakeRunner{out: map[string][]byte{
		"list -H -t filesystem -o name,mountpoint": []byte(
			"tank\t/tank\n" +
				"tank/backup\tnone\n" +
				"tank/home\t/home\n" +
				"\n"),
	}}
	client := NewClient(runner, zaptest.NewLogger(t), false)

	pools, err := client.ListMountedPools()
	require.NoError(t, err)
	require.Equal(t, []string{"tank", "tank/home"}, pools)
}

func TestCreateSnapshotDryRun(t *testing.T) {
	runner := &fakeRunner{}
	client := NewClient(runner, zaptest.NewLogger(t), true)

	require.NoError(t, client.CreateSnapshot("tank@auto_2024_01_01_00_00_00", false))
	require.NoError(t, client.DestroySnapshot("tank@auto_2024_01_01_00_00_00"))
	require.Empty(t, runner.calls)
}

func TestCreateAndDestroySnapshot(t *testing.T) {
	runner := &fakeRunner{}
	client := NewClient(runner, zaptest.NewLogger(t), false)

	require.NoError(t, client.CreateSnapshot("tank@repl_2024_01_01_00_00_00", true))
	require.NoError(t, client.DestroySnapshot("tank@repl_2024_01_01_00_00_00"))
	require.Equal(t, [][]string{
		{"snapshot", "-r", "tank@repl_2024_01_01_00_00_00"},
		{"destroy", "-r", "tank@repl_2024_01_01_00_00_00"},
	}, runner.calls)
}

func TestFilterByKind(t *testing.T) {
	catalog := []string{
		"tank@repl_2024_01_02_00_00_00",
		"tank@auto_2024_01_01_00_00_00",
		"tank@repl_2024_01_01_00_00_00",
		"tank/home@repl_2024_01_01_12_00_00",
		"tank@remote_2024_01_03_00_00_00",
	}

	filtered := FilterByKind(catalog, "repl_")
	require.Equal(t, []string{
		"tank/home@repl_2024_01_01_12_00_00",
		"tank@repl_2024_01_01_00_00_00",
		"tank@repl_2024_01_02_00_00_00",
	}, filtered)

	for _, snap := range filtered {
		require.True(t, strings.HasPrefix(LabelOf(snap), "repl_"))
	}
}

func TestLabelAndPool(t *testing.T) {
	require.Equal(t, "auto_2024_01_01_00_00_00", LabelOf("tank/home@auto_2024_01_01_00_00_00"))
	require.Equal(t, "tank/home", PoolOf("tank/home@auto_2024_01_01_00_00_00"))
	require.Equal(t, "", LabelOf("tank/home"))
	require.Equal(t, "tank/home", PoolOf("tank/home"))
}
