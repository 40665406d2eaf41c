package document

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an external tool. Kept as an interface so adapters can
// be tested without poppler installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs tools through os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()

	if r.Logger != nil {
		if err != nil {
			r.Logger.Debug("external tool failed",
				"cmd", name,
				"args", strings.Join(args, " "),
				"duration", time.Since(start),
				"error", err,
				"stderr", clip(errb.String(), 4<<10),
			)
		} else {
			r.Logger.Debug("external tool ok",
				"cmd", name,
				"args", strings.Join(args, " "),
				"duration", time.Since(start),
				"stdout_bytes", out.Len(),
			)
		}
	}

	return out.Bytes(), errb.Bytes(), err
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
