// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zfs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ErrCatalog indicates the snapshot catalog could not be enumerated:
// the zfs binary failed to run or produced output that is not valid text.
var ErrCatalog = errors.New("snapshot catalog unavailable")

// Client wraps the zfs command surface used for catalog enumeration and
// snapshot lifecycle. In dry-run mode the mutating operations only log
// the command that would have run; enumeration always runs for real.
type Client struct {
	runner Runner
	log    *zap.Logger
	dryRun bool
}

func NewClient(runner Runner, log *zap.Logger, dryRun bool) *Client {
	return &Client{runner: runner, log: log, dryRun: dryRun}
}

// ListSnapshots enumerates the snapshots of pool, optionally including
// child datasets, in the order the tool reports them.
func (c *Client) ListSnapshots(pool string, recursive bool) ([]string, error) {
	args := []string{"list", "-H", "-t", "snapshot", "-o", "name"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, pool)

	out, err := c.runner.Output(args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing snapshots of %s: %v", ErrCatalog, pool, err)
	}
	lines, err := splitLines(out)
	if err != nil {
		return nil, err
	}
	c.log.Debug("snapshot list", zap.String("pool", pool), zap.Strings("lines", lines))

	snaps := make([]string, 0, len(lines))
	for _, line := range lines {
		name := firstColumn(line)
		// With -H there is no header, but guard against one anyway:
		// snapshot names always contain an @.
		if name == "" || !strings.Contains(name, "@") {
			continue
		}
		snaps = append(snaps, name)
	}
	return snaps, nil
}

// ListMountedPools enumerates mountable filesystems, excluding any whose
// mountpoint is the literal sentinel "none".
func (c *Client) ListMountedPools() ([]string, error) {
	out, err := c.runner.Output("list", "-H", "-t", "filesystem", "-o", "name,mountpoint")
	if err != nil {
		return nil, fmt.Errorf("%w: listing filesystems: %v", ErrCatalog, err)
	}
	lines, err := splitLines(out)
	if err != nil {
		return nil, err
	}
	c.log.Debug("filesystem list", zap.Strings("lines", lines))

	var pools []string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[1] == "none" {
			continue
		}
		pools = append(pools, fields[0])
	}
	return pools, nil
}

// CreateSnapshot creates name, optionally recursing into child datasets.
func (c *Client) CreateSnapshot(name string, recursive bool) error {
	if c.dryRun {
		c.log.Info("dryrun: create snapshot", zap.String("snapshot", name))
		return nil
	}
	c.log.Info("create snapshot", zap.String("snapshot", name))
	args := []string{"snapshot"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, name)
	return c.runner.Run(args...)
}

// DestroySnapshot destroys name and, with it, the matching snapshots of
// all child datasets.
func (c *Client) DestroySnapshot(name string) error {
	if c.dryRun {
		c.log.Info("dryrun: destroy snapshot", zap.String("snapshot", name))
		return nil
	}
	c.log.Info("destroy snapshot", zap.String("snapshot", name))
	return c.runner.Run("destroy", "-r", name)
}

// FilterByKind keeps the snapshots whose label starts with prefix,
// sorted ascending. The fixed-width label timestamps make string order
// equal chronological order.
func FilterByKind(snaps []string, prefix string) []string {
	var out []string
	for _, snap := range snaps {
		if strings.HasPrefix(LabelOf(snap), prefix) {
			out = append(out, snap)
		}
	}
	sort.Strings(out)
	return out
}

// LabelOf returns the label portion of a snapshot identifier, the
// substring after the final @.
func LabelOf(snapshot string) string {
	if i := strings.LastIndex(snapshot, "@"); i >= 0 {
		return snapshot[i+1:]
	}
	return ""
}

// PoolOf returns the dataset portion of a snapshot identifier.
func PoolOf(snapshot string) string {
	if i := strings.LastIndex(snapshot, "@"); i >= 0 {
		return snapshot[:i]
	}
	return snapshot
}

func splitLines(out []byte) ([]string, error) {
	if !utf8.Valid(out) {
		return nil, fmt.Errorf("%w: output is not valid utf-8", ErrCatalog)
	}
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func firstColumn(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
