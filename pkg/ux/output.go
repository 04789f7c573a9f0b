// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ux

import (
	"fmt"
	"io"

	"github.com/luxfi/znapper/pkg/zfs"
	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

// UserLog separates command output, written to the user writer, from
// diagnostics, which go to the zap logger.
type UserLog struct {
	log    *zap.Logger
	writer io.Writer
}

func NewUserLog(log *zap.Logger, userwriter io.Writer) *UserLog {
	return &UserLog{
		log:    log,
		writer: userwriter,
	}
}

// PrintToUser prints msg directly to the user writer (command output).
func (ul *UserLog) PrintToUser(msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf(msg, args...)
	_, _ = fmt.Fprintln(ul.writer, formattedMsg)
}

// GreenCheckmarkToUser prints a success message to the user.
func (ul *UserLog) GreenCheckmarkToUser(msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf("✓ %s", fmt.Sprintf(msg, args...))
	_, _ = fmt.Fprintln(ul.writer, formattedMsg)
	ul.log.Info(formattedMsg)
}

// RedXToUser prints an error message to the user.
func (ul *UserLog) RedXToUser(msg string, args ...interface{}) {
	formattedMsg := fmt.Sprintf("✗ %s", fmt.Sprintf(msg, args...))
	_, _ = fmt.Fprintln(ul.writer, formattedMsg)
	ul.log.Error(formattedMsg)
}

// PrintSnapshotTable renders a snapshot catalog as a dataset/label table.
func (ul *UserLog) PrintSnapshotTable(snaps []string) {
	table := tablewriter.NewTable(ul.writer)
	table.Header("DATASET", "SNAPSHOT")
	for _, snap := range snaps {
		_ = table.Append([]string{zfs.PoolOf(snap), zfs.LabelOf(snap)})
	}
	_ = table.Render()
}
