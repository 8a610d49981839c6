package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single probe attempt.
const DefaultTimeout = 5 * time.Second

// Runner executes a binary and returns its combined output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Status is the result of probing one tool.
type Status struct {
	Tool      Name
	Available bool
	Version   string
	Err       error
}

// Prober checks tool availability with a per-attempt timeout and a small
// number of retries for transient failures.
type Prober struct {
	Timeout  time.Duration
	Retries  uint64
	Workers  int
	Run      Runner
	LookPath func(string) (string, error)
	Log      *zap.Logger
}

// NewProber returns a prober that shells out to the real binaries.
func NewProber(timeout time.Duration, log *zap.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Prober{
		Timeout:  timeout,
		Retries:  2,
		Workers:  4,
		Run:      runCommand,
		LookPath: exec.LookPath,
		Log:      log,
	}
}

// Probe checks a single tool. It never returns an error; failures are
// recorded in Status.Err.
func (p *Prober) Probe(ctx context.Context, spec Spec) Status {
	st := Status{Tool: spec.Name}

	if _, err := p.LookPath(spec.Binary); err != nil {
		st.Err = fmt.Errorf("%s not found on PATH", spec.Binary)
		return st
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 0

	var out []byte
	err := backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		defer cancel()

		var err error
		out, err = p.Run(attemptCtx, spec.Binary, spec.Args...)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return backoff.Permanent(fmt.Errorf("timed out after %s", p.Timeout))
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, p.Retries), ctx))

	if err != nil {
		st.Err = fmt.Errorf("probing %s: %w", spec.Name, err)
		p.Log.Debug("tool unavailable", zap.String("tool", string(spec.Name)), zap.Error(err))
		return st
	}

	st.Available = true
	st.Version = firstLine(out)
	p.Log.Debug("tool available", zap.String("tool", string(spec.Name)), zap.String("version", st.Version))
	return st
}

// ProbeAll probes specs concurrently. Results keep the order of specs.
func (p *Prober) ProbeAll(ctx context.Context, specs []Spec) []Status {
	results := make([]Status, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}
	for i, spec := range specs {
		g.Go(func() error {
			results[i] = p.Probe(gctx, spec)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runCommand spawns binary with args and returns stdout, or stderr in the
// error when the process fails.
func runCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	if stdout.Len() == 0 {
		return stderr.Bytes(), nil
	}
	return stdout.Bytes(), nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
