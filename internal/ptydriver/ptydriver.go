// Package ptydriver owns the master side of a pseudo-terminal and the
// child process living behind it. It is deliberately ignorant of ANSI
// parsing (see package vterm) and of session bookkeeping (see package
// session) — its only job is spawning, non-blocking reads, timed
// writes, resize, and liveness.
package ptydriver

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// ErrWriteTimeout is returned by Write when the write did not complete
// within the deadline. The child is most likely not reading its stdin
// (hung), and the kernel PTY buffer is full.
var ErrWriteTimeout = fmt.Errorf("ptydriver: write timed out")

// ReadChunkSize is the buffer size used per TryRead call.
const ReadChunkSize = 4096

// Handle owns one PTY master and the child process spawned on its slave.
// A Handle must not be read from two goroutines at once; TryRead is meant
// to be called from a single poller.
type Handle struct {
	mu   sync.Mutex
	ptm  *os.File
	cmd  *exec.Cmd
	rows int
	cols int

	exitedMu sync.Mutex
	exited   bool
	exitCode int
}

// Spawn opens a PTY of the given size and starts cmd/args inside it with
// the given working directory and environment overrides (merged over the
// ambient environment, overriding any existing key of the same name).
func Spawn(command string, args []string, cwd string, env map[string]string, rows, cols int) (*Handle, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = cwd
	cmd.Env = mergeEnv(os.Environ(), env)

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("ptydriver: spawn %s: %w", command, err)
	}

	h := &Handle{ptm: ptm, cmd: cmd, rows: rows, cols: cols}

	// Reap the child as soon as it exits so IsAlive never reports a
	// lingering zombie as live, and ExitCode has something to return.
	go h.Wait()

	return h, nil
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key := kv
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			key = kv[:idx]
		}
		if _, overridden := overrides[key]; !overridden {
			out = append(out, kv)
		}
	}
	for k, v := range overrides {
		out = append(out, k+"="+v)
	}
	return out
}

// TryRead returns pending bytes if any are immediately available, or nil
// if none are available right now or the PTY has reached EOF. It never
// blocks: creack/pty does not set O_NONBLOCK on the master fd, so a
// plain Read would block until the child writes, freezing the whole
// cooperative event loop on any idle session. Instead every call sets
// an already-past read deadline, which makes the runtime poller return
// os.ErrDeadlineExceeded immediately when no bytes are pending instead
// of parking the goroutine.
func (h *Handle) TryRead() ([]byte, error) {
	if err := h.ptm.SetReadDeadline(time.Now()); err != nil {
		return nil, nil // platform doesn't support deadlines on this fd; best effort.
	}
	buf := make([]byte, ReadChunkSize)
	n, err := h.ptm.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil // no data pending right now
		}
		return nil, nil // EOF or transient: treated identically by callers.
	}
	return nil, nil
}

// Write writes all of p to the master, waiting up to timeout. If the
// child is not draining its stdin the kernel buffer fills and a raw
// Write would block forever, so the write runs in a goroutine and the
// call gives up (without killing the goroutine) after timeout.
func (h *Handle) Write(p []byte, timeout time.Duration) (int, error) {
	type result struct {
		n   int
		err error
	}
	ch := make(chan result, 1)
	go func() {
		n, err := h.ptm.Write(p)
		ch <- result{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.n, r.err
	case <-timer.C:
		return 0, ErrWriteTimeout
	}
}

// Resize updates the PTY window size. The child normally receives
// SIGWINCH as a result.
func (h *Handle) Resize(rows, cols int) error {
	h.mu.Lock()
	h.rows, h.cols = rows, cols
	h.mu.Unlock()
	return pty.Setsize(h.ptm, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}

// Size returns the last size applied via Spawn/Resize.
func (h *Handle) Size() (rows, cols int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rows, h.cols
}

// IsAlive reports whether the child process is still running.
func (h *Handle) IsAlive() bool {
	if h.cmd.Process == nil {
		return false
	}
	h.exitedMu.Lock()
	defer h.exitedMu.Unlock()
	if h.exited {
		return false
	}
	// Signal 0 probes existence without affecting the process.
	return h.cmd.Process.Signal(syscall.Signal(0)) == nil
}

// ExitCode returns the child's exit code, if it has exited.
func (h *Handle) ExitCode() (code int, exited bool) {
	h.exitedMu.Lock()
	defer h.exitedMu.Unlock()
	return h.exitCode, h.exited
}

// Wait blocks until the child exits and records its exit code. Spawn
// already runs this once in its own goroutine to reap the child;
// callers that need liveness polling should use IsAlive/ExitCode
// instead of calling Wait themselves.
func (h *Handle) Wait() error {
	err := h.cmd.Wait()
	h.exitedMu.Lock()
	h.exited = true
	if h.cmd.ProcessState != nil {
		h.exitCode = h.cmd.ProcessState.ExitCode()
	}
	h.exitedMu.Unlock()
	return err
}

// Kill sends SIGKILL to the child. Safe to call multiple times.
func (h *Handle) Kill() {
	if h.cmd.Process != nil {
		h.cmd.Process.Kill()
	}
}

// Close releases the master fd. Does not kill the child; call Kill first.
func (h *Handle) Close() error {
	return h.ptm.Close()
}
