// Package recorder drives the external recording side channel: an
// operator-configured command started and stopped by control messages.
package recorder

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"time"
)

// stopGrace is how long the recorder process gets to exit after its
// context is cancelled before we stop waiting for it.
const stopGrace = 5 * time.Second

// Recorder launches and stops one external recording process. Start
// and Stop are idempotent: starting while recording and stopping while
// idle are no-ops.
type Recorder struct {
	command []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	waitCh chan error
}

// New creates a recorder for the given command line. An empty command
// yields a recorder whose Start/Stop are no-ops, so callers need no
// nil checks.
func New(command []string) *Recorder {
	return &Recorder{command: command}
}

// Start launches the recording process.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.command) == 0 || r.cmd != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start recorder: %w", err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	r.cmd = cmd
	r.cancel = cancel
	r.waitCh = waitCh
	log.Printf("recorder: started %q (pid %d)", r.command[0], cmd.Process.Pid)
	return nil
}

// Stop terminates the recording process if one is running.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return nil
	}

	r.cancel()
	select {
	case err := <-r.waitCh:
		if err != nil {
			log.Printf("recorder: process exited: %v", err)
		}
	case <-time.After(stopGrace):
		log.Printf("recorder: process did not exit within %s", stopGrace)
	}

	r.cmd = nil
	r.cancel = nil
	r.waitCh = nil
	return nil
}

// Recording reports whether a process is currently running.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}
