// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zfs

import (
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes the zfs binary. It exists so the catalog and snapshot
// lifecycle operations can be exercised in tests without a real pool.
type Runner interface {
	// Output runs the binary with args and returns its stdout.
	Output(args ...string) ([]byte, error)

	// Run runs the binary with args, inheriting stderr, and waits for it.
	Run(args ...string) error
}

// ExecRunner invokes the configured zfs binary via os/exec.
type ExecRunner struct {
	bin string
	log *zap.Logger
}

func NewExecRunner(bin string, log *zap.Logger) *ExecRunner {
	return &ExecRunner{bin: bin, log: log}
}

func (r *ExecRunner) Output(args ...string) ([]byte, error) {
	r.log.Debug("exec", zap.String("command", r.bin+" "+strings.Join(args, " ")))
	cmd := exec.Command(r.bin, args...)
	cmd.Stderr = os.Stderr
	return cmd.Output()
}

func (r *ExecRunner) Run(args ...string) error {
	r.log.Debug("exec", zap.String("command", r.bin+" "+strings.Join(args, " ")))
	cmd := exec.Command(r.bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
