// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package remote confirms replication post-conditions on an ssh
// destination. The forwarded transfer accepts exit code 1 from the
// transport, which can mask a failed receive; checking that the
// expected snapshot actually exists removes the ambiguity.
package remote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/melbahja/goph"
	"go.uber.org/zap"
)

// ErrVerify indicates the expected snapshot was not found on the
// destination after a transfer the transport reported as successful.
var ErrVerify = errors.New("snapshot not present on destination")

// Endpoint is an ssh replication target.
type Endpoint struct {
	User string
	Host string
}

// ParseEndpoint splits a user@host target.
func ParseEndpoint(target string) (Endpoint, error) {
	user, host, ok := strings.Cut(target, "@")
	if !ok || user == "" || host == "" {
		return Endpoint{}, fmt.Errorf("remote endpoint must be user@host, got %q", target)
	}
	return Endpoint{User: user, Host: host}, nil
}

// Verifier checks snapshots on a remote endpoint over its own ssh
// session, authenticated via the local ssh agent.
type Verifier struct {
	log *zap.Logger
}

func NewVerifier(log *zap.Logger) *Verifier {
	return &Verifier{log: log}
}

// SnapshotLanded checks that snapshot exists on the endpoint. The
// destination stores the received tree under its own pool prefix, so
// the identifier is matched as a whole at a dataset boundary: with a
// recursive transfer every child dataset shares the label, and a child
// landing must not verify a transfer whose root did not.
func (v *Verifier) SnapshotLanded(target, snapshot string) error {
	ep, err := ParseEndpoint(target)
	if err != nil {
		return err
	}
	if !strings.Contains(snapshot, "@") {
		return fmt.Errorf("not a snapshot identifier: %q", snapshot)
	}

	auth, err := goph.UseAgent()
	if err != nil {
		return fmt.Errorf("ssh agent unavailable: %w", err)
	}
	client, err := goph.New(ep.User, ep.Host, auth)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", ep.Host, err)
	}
	defer client.Close()

	out, err := client.Run("zfs list -H -t snapshot -o name")
	if err != nil {
		return fmt.Errorf("listing remote snapshots: %w", err)
	}

	if line := catalogMatch(string(out), snapshot); line != "" {
		v.log.Debug("verified snapshot on destination", zap.String("snapshot", line))
		return nil
	}
	return fmt.Errorf("%w: no snapshot matching %s on %s", ErrVerify, snapshot, ep.Host)
}

// catalogMatch returns the catalog line carrying snapshot, either
// verbatim or under a pool prefix ending at a / boundary.
func catalogMatch(catalog, snapshot string) string {
	for _, line := range strings.Split(catalog, "\n") {
		line = strings.TrimSpace(line)
		if line == snapshot || strings.HasSuffix(line, "/"+snapshot) {
			return line
		}
	}
	return ""
}
