// Copyright (C) 2022-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/luxfi/znapper/pkg/zfs"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Session describes one replication transfer: the snapshot being
// landed, how the stream is produced, and where it is consumed.
// Exactly one of DestPool, DestSSH, and DestArchive must be set, or
// SourceArchive for the reverse (archive load) direction.
type Session struct {
	// Tip is the snapshot the transfer lands on the destination.
	Tip string

	// CreateTip makes the pipeline create Tip recursively before
	// streaming, and destroy it again if the transfer fails. Snapshots
	// that existed before the session are never touched on failure.
	CreateTip bool

	// Send configures the producing zfs send. Ignored when
	// SourceArchive is set.
	Send zfs.SendOptions

	// SourceArchive, when set, produces the stream from this archive
	// file instead of a send process.
	SourceArchive string

	// DestPool consumes the stream with a local zfs recv.
	DestPool string

	// Recv configures the consuming zfs recv.
	Recv zfs.RecvOptions

	// DestSSH forwards the stream to a remote shell target's stdin.
	DestSSH string

	// DestArchive writes the stream to this archive file.
	DestArchive string
}

// Pipeline creates the base snapshot of a session, wires the producer's
// output into the consumer's input, interprets exit status, and retires
// the snapshot again when the transfer fails.
//
// The consumer is always waited on before the producer: once the
// consumer has drained the pipe, the producer cannot be blocked on a
// full pipe buffer.
type Pipeline struct {
	zfs    *zfs.Client
	zfsBin string
	sshBin string
	log    *zap.Logger
	dryRun bool
}

func NewPipeline(client *zfs.Client, zfsBin, sshBin string, log *zap.Logger, dryRun bool) *Pipeline {
	return &Pipeline{
		zfs:    client,
		zfsBin: zfsBin,
		sshBin: sshBin,
		log:    log,
		dryRun: dryRun,
	}
}

// Run executes the session. On failure, the snapshot created for this
// session (if any) is destroyed before returning, so the replica
// timelines never retain a half-landed snapshot.
func (p *Pipeline) Run(s Session) error {
	if s.CreateTip {
		if err := p.zfs.CreateSnapshot(s.Tip, true); err != nil {
			return fmt.Errorf("%w: creating base snapshot %s: %v", ErrPipeline, s.Tip, err)
		}
	}

	if p.dryRun {
		p.log.Info("dryrun", zap.String("command", p.renderCommand(s)))
		return nil
	}
	p.log.Debug("running", zap.String("command", p.renderCommand(s)))

	err := p.stream(s)
	if err != nil && s.CreateTip {
		p.log.Info("removing potentially unsent snapshot", zap.String("snapshot", s.Tip))
		if derr := p.zfs.DestroySnapshot(s.Tip); derr != nil {
			p.log.Warn("failed to destroy unconfirmed snapshot",
				zap.String("snapshot", s.Tip), zap.Error(derr))
		}
	}
	return err
}

func (p *Pipeline) stream(s Session) error {
	switch {
	case s.SourceArchive != "":
		return p.streamFromArchive(s)
	case s.DestArchive != "":
		return p.streamToArchive(s)
	default:
		return p.streamToProcess(s)
	}
}

// streamToProcess pipes zfs send directly into a local zfs recv or a
// remote shell forward.
func (p *Pipeline) streamToProcess(s Session) error {
	send := exec.Command(p.zfsBin, zfs.SendArgs(s.Send, s.Tip)...)
	send.Stderr = os.Stderr
	sendOut, err := send.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProducerSpawn, err)
	}
	if err := send.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrProducerSpawn, err)
	}

	var recv *exec.Cmd
	accepted := []int{0}
	if s.DestSSH != "" {
		// The transport cannot distinguish downstream receive failure
		// from a benign non-zero disconnect, so exit code 1 is accepted
		// here. Pair with --verify to confirm the snapshot landed.
		recv = exec.Command(p.sshBin, s.DestSSH)
		accepted = []int{0, 1}
	} else {
		recv = exec.Command(p.zfsBin, zfs.RecvArgs(s.Recv, s.DestPool)...)
	}
	recv.Stdin = sendOut
	recv.Stdout = os.Stdout
	recv.Stderr = os.Stderr

	if err := recv.Start(); err != nil {
		p.reapProducer(send)
		return fmt.Errorf("%w: %v", ErrConsumerSpawn, err)
	}
	// The consumer holds its own copy of the read end now. Close ours,
	// so a consumer that exits mid-stream breaks the producer's pipe
	// instead of leaving it blocked on a write nobody will read.
	_ = sendOut.Close()

	// Consumer first: it drains the pipe.
	code, err := waitCode(recv)
	if err != nil {
		p.reapProducer(send)
		return fmt.Errorf("%w: waiting for consumer: %v", ErrPipeline, err)
	}
	if !acceptedCode(code, accepted) {
		p.reapProducer(send)
		return fmt.Errorf("%w: consumer exited with code %d", ErrPipeline, code)
	}
	p.log.Debug("consumer finished", zap.Int("code", code))

	if err := send.Wait(); err != nil {
		return fmt.Errorf("%w: producer: %v", ErrPipeline, err)
	}
	return nil
}

// streamToArchive copies zfs send output into an archive file.
func (p *Pipeline) streamToArchive(s Session) error {
	send := exec.Command(p.zfsBin, zfs.SendArgs(s.Send, s.Tip)...)
	send.Stderr = os.Stderr
	sendOut, err := send.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProducerSpawn, err)
	}
	if err := send.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrProducerSpawn, err)
	}

	f, err := os.Create(s.DestArchive)
	if err != nil {
		p.reapProducer(send)
		return fmt.Errorf("%w: creating archive %s: %v", ErrIO, s.DestArchive, err)
	}

	bar := progressbar.DefaultBytes(-1, "archiving")
	n, cerr := io.Copy(io.MultiWriter(f, bar), sendOut)
	_ = bar.Finish()
	if err := f.Close(); err != nil && cerr == nil {
		cerr = err
	}
	if cerr != nil {
		p.reapProducer(send)
		return fmt.Errorf("%w: writing archive %s: %v", ErrIO, s.DestArchive, cerr)
	}
	p.log.Debug("archive written", zap.Int64("bytes", n), zap.String("file", s.DestArchive))

	if err := send.Wait(); err != nil {
		return fmt.Errorf("%w: producer: %v", ErrPipeline, err)
	}
	return nil
}

// streamFromArchive copies an archive file into a local zfs recv.
func (p *Pipeline) streamFromArchive(s Session) error {
	f, err := os.Open(s.SourceArchive)
	if err != nil {
		return fmt.Errorf("%w: opening archive %s: %v", ErrIO, s.SourceArchive, err)
	}
	defer f.Close()

	var size int64 = -1
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	recv := exec.Command(p.zfsBin, zfs.RecvArgs(s.Recv, s.DestPool)...)
	recv.Stdout = os.Stdout
	recv.Stderr = os.Stderr
	recvIn, err := recv.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConsumerSpawn, err)
	}
	if err := recv.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrConsumerSpawn, err)
	}

	bar := progressbar.DefaultBytes(size, "restoring")
	n, cerr := io.Copy(io.MultiWriter(recvIn, bar), f)
	_ = bar.Finish()
	_ = recvIn.Close()
	p.log.Debug("archive read", zap.Int64("bytes", n), zap.String("file", s.SourceArchive))

	code, err := waitCode(recv)
	if err != nil {
		return fmt.Errorf("%w: waiting for consumer: %v", ErrPipeline, err)
	}
	if code != 0 {
		return fmt.Errorf("%w: consumer exited with code %d", ErrPipeline, code)
	}
	if cerr != nil {
		return fmt.Errorf("%w: copying archive %s: %v", ErrIO, s.SourceArchive, cerr)
	}
	return nil
}

// reapProducer kills a producer whose consumer is gone, then collects
// it. Without the kill the producer could block forever on a full pipe.
func (p *Pipeline) reapProducer(send *exec.Cmd) {
	if send.Process != nil {
		_ = send.Process.Kill()
	}
	_ = send.Wait()
}

// renderCommand returns the shell rendering of the session's transfer,
// used for dry-run and debug logging.
func (p *Pipeline) renderCommand(s Session) string {
	recvLine := p.zfsBin + " " + strings.Join(zfs.RecvArgs(s.Recv, s.DestPool), " ")
	if s.SourceArchive != "" {
		return fmt.Sprintf("cat %s | %s", s.SourceArchive, recvLine)
	}

	sendLine := p.zfsBin + " " + strings.Join(zfs.SendArgs(s.Send, s.Tip), " ")
	switch {
	case s.DestArchive != "":
		return fmt.Sprintf("%s > %s", sendLine, s.DestArchive)
	case s.DestSSH != "":
		return fmt.Sprintf("%s | %s %s", sendLine, p.sshBin, s.DestSSH)
	default:
		return fmt.Sprintf("%s | %s", sendLine, recvLine)
	}
}

func waitCode(cmd *exec.Cmd) (int, error) {
	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func acceptedCode(code int, accepted []int) bool {
	for _, a := range accepted {
		if code == a {
			return true
		}
	}
	return false
}
