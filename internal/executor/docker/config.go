package docker

import (
	"fmt"
	"time"
)

// Config holds the configuration for the Node.js sandbox.
type Config struct {
	// Image is the Docker image previews run in. It must provide Command.
	Image string
	// Command is the interpreter invocation; the program is appended as the
	// final argument.
	Command []string
	// MemoryLimit is the maximum amount of memory the container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs the container can use.
	CPULimit float64
	// Timeout bounds a single preview run.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers to maintain.
	PoolSize int
}

// DefaultConfig returns the limits used for preview programs. Previews only
// build a small tree, so the budget is tighter than a general purpose sandbox.
func DefaultConfig() Config {
	return Config{
		Image:       "node:22-alpine",
		Command:     []string{"node", "-e"},
		MemoryLimit: 96 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     3 * time.Second,
		PoolSize:    2,
	}
}

// Validate rejects configurations the pool cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Image == "":
		return fmt.Errorf("docker: image is required")
	case len(c.Command) == 0:
		return fmt.Errorf("docker: command is required")
	case c.PoolSize < 1:
		return fmt.Errorf("docker: pool size must be at least 1, got %d", c.PoolSize)
	case c.Timeout <= 0:
		return fmt.Errorf("docker: timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// command returns the exec argv for script.
func (c Config) command(script string) []string {
	argv := make([]string, 0, len(c.Command)+1)
	argv = append(argv, c.Command...)
	return append(argv, script)
}
