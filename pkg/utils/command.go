package utils

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
)

// SafeCommand wraps exec.Cmd and keeps the child's stderr so a crash can be
// reported with the process's own output.
type SafeCommand struct {
	*exec.Cmd
	stderr *lockedBuffer
}

func NewSafeCommand(ctx context.Context, name string, args ...string) *SafeCommand {
	cmd := exec.CommandContext(ctx, name, args...)
	stderr := &lockedBuffer{}
	cmd.Stderr = stderr
	return &SafeCommand{Cmd: cmd, stderr: stderr}
}

// Stderr returns what the process has written to stderr so far.
func (s *SafeCommand) Stderr() string {
	return strings.TrimSpace(s.stderr.String())
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
