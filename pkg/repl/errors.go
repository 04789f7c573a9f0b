// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package repl

import "errors"

// Sentinel errors for the replication engine. Callers classify with
// errors.Is; every detection site wraps one of these with context.
var (
	// ErrClock indicates the local time zone could not be resolved.
	ErrClock = errors.New("local clock unavailable")

	// ErrNoPrecursor indicates the replica timelines share no snapshot
	// and must be reinitialized with a full transfer.
	ErrNoPrecursor = errors.New("no common precursor snapshot")

	// ErrProducerSpawn indicates the sending process failed to start.
	ErrProducerSpawn = errors.New("producer failed to start")

	// ErrConsumerSpawn indicates the receiving process failed to start.
	ErrConsumerSpawn = errors.New("consumer failed to start")

	// ErrPipeline indicates a spawned producer or consumer reported an
	// exit status outside its accepted set.
	ErrPipeline = errors.New("replication pipeline failed")

	// ErrIO indicates an archive payload file could not be opened,
	// written, or copied.
	ErrIO = errors.New("archive i/o failed")

	// ErrMetadata indicates the archive metadata sidecar is missing or
	// undecodable.
	ErrMetadata = errors.New("archive metadata unreadable")
)
