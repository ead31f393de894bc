package buildsys

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ToolError reports a native build tool that exited with failure. Output
// holds the tool's combined stdout and stderr verbatim.
type ToolError struct {
	Cmd      string
	Args     []string
	Dir      string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	cmdline := strings.Join(append([]string{e.Cmd}, e.Args...), " ")
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s (in %s) exited with status %d", cmdline, e.Dir, e.ExitCode)
	}
	return fmt.Sprintf("%s (in %s): %v", cmdline, e.Dir, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Exec runs bin in dir with the build's environment applied.
func (c *Context) Exec(ctx context.Context, dir, bin string, args ...string) error {
	var env, prepend map[string]string
	if c.Config != nil {
		env, prepend = c.Config.Env, c.Config.Prepend
	}
	c.Log().Debug("exec", "cmd", bin, "args", strings.Join(args, " "), "dir", dir)
	return run(ctx, dir, bin, args, mergeEnv(os.Environ(), env, prepend), c.Stdout, c.Stderr)
}

func run(ctx context.Context, dir, bin string, args, env []string, stdout, stderr io.Writer) error {
	var out lockedBuffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = tee(&out, stdout)
	cmd.Stderr = tee(&out, stderr)
	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return &ToolError{
			Cmd:      bin,
			Args:     args,
			Dir:      dir,
			ExitCode: code,
			Output:   out.String(),
			Err:      err,
		}
	}
	return nil
}

func tee(buf io.Writer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// lockedBuffer lets stdout and stderr share one capture buffer.
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

func mergeEnv(base []string, override, prepend map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	for k, v := range prepend {
		if cur := envMap[k]; cur != "" {
			v = v + string(filepath.ListSeparator) + cur
		}
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
