// Package docker runs preview programs inside pre-warmed Node.js containers.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/component-playground/internal/executor"
)

// Executor implements executor.Executor on top of the Docker Engine API.
//
// Each Execute call takes one warm container from the pool, runs the program
// through `docker exec`, and throws the container away afterwards. A preview
// can therefore never observe state left behind by an earlier preview.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pool   *Pool
}

// New connects to the Docker daemon, pulls the image and starts the pool.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	logger.Info("ensuring sandbox image is available", slog.String("image", cfg.Image))
	reader, err := cli.ImagePull(pullCtx, cfg.Image, image.PullOptions{})
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to pull image %s: %w", cfg.Image, err)
	}
	defer reader.Close()
	// The pull only finishes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to pull image %s: %w", cfg.Image, err)
	}
	logger.Info("sandbox image is ready", slog.String("image", cfg.Image))

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pool:   NewPool(cli, cfg, logger),
	}
	exec.pool.Start()

	return exec, nil
}

// Close shuts down the pool and the docker client.
func (e *Executor) Close() error {
	e.pool.Stop()
	return e.cli.Close()
}

// Execute runs req.Script with the configured interpreter command.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	start := time.Now()

	containerID, err := e.pool.GetContainer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	// Containers are single use.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := e.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			e.logger.Error("failed to remove sandbox container",
				slog.String("id", containerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	execResp, err := e.cli.ContainerExecCreate(runCtx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          e.config.command(req.Script),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(runCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	done := make(chan struct{})
	go func() {
		// stdout and stderr arrive multiplexed on one stream.
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	var exitCode int
	select {
	case <-done:
		inspect, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect exec: %w", err)
		}
		exitCode = inspect.ExitCode
	case <-runCtx.Done():
		exitCode = executor.ExitTimeout
		stderr.WriteString("\nExecution timed out.\n")
		e.logger.Warn("sandbox run timed out",
			slog.String("container", containerID),
			slog.Duration("timeout", e.config.Timeout),
		)
	}

	return &executor.ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}
