package inspect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/ZanzyTHEbar/hirescope/internal/errors"
)

const waitDelay = 2 * time.Second

// Cloner materializes a repository snapshot at dest
type Cloner interface {
	Clone(ctx context.Context, url, dest string) error
}

// GitCloner shells out to git for a shallow, single-branch, quiet clone
type GitCloner struct {
	Binary    string
	Timeout   time.Duration
	MaxOutput int
}

// NewGitCloner creates a cloner with the given wall-clock timeout and output ceiling
func NewGitCloner(timeout time.Duration, maxOutput int) *GitCloner {
	return &GitCloner{Binary: "git", Timeout: timeout, MaxOutput: maxOutput}
}

// Clone runs git clone. Exceeding the timeout or the output ceiling is an error.
func (g *GitCloner) Clone(ctx context.Context, url, dest string) error {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	out := &cappedBuffer{limit: g.MaxOutput}
	cmd := exec.CommandContext(ctx, binary, "clone", "--depth", "1", "--single-branch", "--quiet", url, dest)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Stdout = out
	cmd.Stderr = out
	// git forks helpers that can keep the output pipe open after a kill
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return apperrors.NewTimeoutError(fmt.Sprintf("git clone timed out after %s", g.Timeout), err)
		}
		return fmt.Errorf("git clone %s: %w: %s", url, err, strings.TrimSpace(out.String()))
	}
	if out.overflow {
		return fmt.Errorf("git clone %s: output exceeded %d bytes", url, g.MaxOutput)
	}
	return nil
}

// cappedBuffer keeps at most limit bytes and records whether more were written
type cappedBuffer struct {
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if c.limit <= 0 {
		return c.buf.Write(p)
	}
	room := c.limit - c.buf.Len()
	if len(p) > room {
		c.overflow = true
		if room > 0 {
			c.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *cappedBuffer) String() string {
	return c.buf.String()
}
