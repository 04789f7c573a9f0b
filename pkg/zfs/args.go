// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zfs

// SendOptions configures a zfs send invocation. One structure replaces
// the per-flag-combination command variants: every transfer mode is a
// point in this space.
type SendOptions struct {
	// Raw sends the stream as stored on disk, keeping encrypted
	// datasets encrypted (-w).
	Raw bool

	// Recursive replicates the snapshot's child datasets (-R).
	Recursive bool

	// LargeBlocks permits blocks larger than 128KB in the stream (-L).
	LargeBlocks bool

	// Precursor, when set, selects an incremental stream from this
	// snapshot up to the sent one (-I). Empty means a full stream.
	Precursor string
}

// SendArgs builds the argument vector for `zfs send` of snapshot.
func SendArgs(opts SendOptions, snapshot string) []string {
	args := []string{"send", "-v"}
	if opts.Recursive {
		args = append(args, "-R")
	}
	if opts.Raw {
		args = append(args, "-w")
	}
	if opts.LargeBlocks {
		args = append(args, "-L")
	}
	if opts.Precursor != "" {
		args = append(args, "-I", opts.Precursor)
	}
	return append(args, snapshot)
}

// RecvOptions configures a zfs recv invocation.
type RecvOptions struct {
	// Force rolls the target back to its most recent snapshot before
	// receiving (-F).
	Force bool

	// MountpointNone keeps the received datasets unmounted.
	MountpointNone bool

	// ReadOnly marks the received datasets read-only.
	ReadOnly bool
}

// RecvArgs builds the argument vector for `zfs recv` into pool.
func RecvArgs(opts RecvOptions, pool string) []string {
	args := []string{"recv"}
	if opts.Force {
		args = append(args, "-F")
	}
	if opts.MountpointNone {
		args = append(args, "-o", "mountpoint=none")
	}
	if opts.ReadOnly {
		args = append(args, "-o", "readonly=on")
	}
	return append(args, pool)
}
