// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.
package application

import (
	"github.com/luxfi/znapper/pkg/ux"
	"go.uber.org/zap"
)

// Znapper carries the capabilities shared by every command: the
// process logger, the user-facing output log, and the resolved paths
// of the external tools. It is filled in by the root command once
// flags and environment are parsed.
type Znapper struct {
	Log    *zap.Logger
	UX     *ux.UserLog
	ZFSBin string
	SSHBin string
}

func New() *Znapper {
	return &Znapper{}
}

func (app *Znapper) Setup(log *zap.Logger, userLog *ux.UserLog, zfsBin, sshBin string) {
	app.Log = log
	app.UX = userLog
	app.ZFSBin = zfsBin
	app.SSHBin = sshBin
}
