package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// containerLabel marks containers owned by the playground so operators can
// find strays with `docker ps --filter label=...`.
const containerLabel = "component-playground.sandbox"

// maxPids caps processes per container. Node needs a handful of threads.
const maxPids = 64

// Pool keeps a number of idle sandbox containers ready so a preview does not
// pay container start-up latency.
type Pool struct {
	cli        *client.Client
	config     Config
	logger     *slog.Logger
	containers chan string
	done       chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewPool creates a pool; nothing is started until Start.
func NewPool(cli *client.Client, cfg Config, logger *slog.Logger) *Pool {
	return &Pool{
		cli:        cli,
		config:     cfg,
		logger:     logger,
		containers: make(chan string, cfg.PoolSize),
		done:       make(chan struct{}),
	}
}

// Start fills the pool in the background.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting sandbox pool",
			slog.Int("size", p.config.PoolSize),
			slog.String("image", p.config.Image),
		)
		p.wg.Add(1)
		go p.manager()
	})
}

// Stop halts the manager and removes every idle container. Safe to call twice.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info("shutting down sandbox pool")
		close(p.done)
		p.wg.Wait()

		for {
			select {
			case id := <-p.containers:
				p.removeContainer(id)
			default:
				return
			}
		}
	})
}

// Idle returns the number of warm containers waiting in the pool.
func (p *Pool) Idle() int {
	return len(p.containers)
}

// GetContainer hands out a warm container, blocking until one is ready or
// ctx ends. The caller owns the container afterwards.
func (p *Pool) GetContainer(ctx context.Context) (string, error) {
	select {
	case id := <-p.containers:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("sandbox pool is stopped")
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// manager keeps the pool topped up until Stop.
func (p *Pool) manager() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
		}

		if len(p.containers) >= cap(p.containers) {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		id, err := p.createContainer()
		if err != nil {
			p.logger.Error("failed to create sandbox container", slog.String("error", err.Error()))
			time.Sleep(time.Second)
			continue
		}

		select {
		case p.containers <- id:
		case <-p.done:
			p.removeContainer(id)
			return
		}
	}
}

// createContainer starts an idle container with no network and a read-only
// root filesystem. Programs are passed on the command line, so nothing is
// ever written inside it.
func (p *Pool) createContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pids := int64(maxPids)
	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:    p.config.MemoryLimit,
			NanoCPUs:  int64(p.config.CPULimit * 1e9),
			PidsLimit: &pids,
		},
		ReadonlyRootfs: true,
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:  p.config.Image,
		Cmd:    []string{"sleep", "infinity"},
		User:   "node",
		Labels: map[string]string{containerLabel: "true"},
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("ContainerCreate failed: %w", err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.removeContainer(resp.ID)
		return "", fmt.Errorf("ContainerStart failed: %w", err)
	}

	return resp.ID, nil
}

func (p *Pool) removeContainer(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})
}
