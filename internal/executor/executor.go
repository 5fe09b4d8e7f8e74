// Package executor runs generated preview programs outside the server process.
package executor

import (
	"context"
	"time"
)

// ExecutionRequest carries one self-contained program for the sandbox runtime.
type ExecutionRequest struct {
	Script string `json:"script"`
}

// ExecutionResult is what the sandbox produced for a single program run.
// ExitCode 124 means the run was cut off by the executor's timeout.
type ExecutionResult struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// TimedOut reports whether the executor stopped the run.
func (r *ExecutionResult) TimedOut() bool {
	return r.ExitCode == ExitTimeout
}

// ExitTimeout is the exit code reported when a run hits the executor timeout,
// the same convention as the unix timeout(1) command.
const ExitTimeout = 124

// Executor runs programs in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}

// Func adapts a plain function to the Executor interface.
type Func func(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)

func (f Func) Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error) {
	return f(ctx, req)
}
