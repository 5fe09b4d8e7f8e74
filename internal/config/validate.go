package config

import (
	"errors"
	"fmt"

	"github.com/sakif/component-playground/internal/apperror"
	"github.com/sakif/component-playground/internal/binding"
	"github.com/sakif/component-playground/internal/logging"
)

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, apperror.ValidationFailed("server.port", fmt.Sprintf("port must be between 1 and 65535, got %d", c.Server.Port)))
	}
	if c.Database.Path == "" {
		errs = append(errs, apperror.ValidationFailed("database.path", "database path is required"))
	}

	switch c.Engine.Backend {
	case BackendGoja, BackendSandbox:
	default:
		errs = append(errs, apperror.ValidationFailed("engine.backend", fmt.Sprintf("unknown backend %q (want %q or %q)", c.Engine.Backend, BackendGoja, BackendSandbox)))
	}
	if !binding.IsIdentifier(c.Engine.EntryPoint) {
		errs = append(errs, apperror.ValidationFailed("engine.entry_point", fmt.Sprintf("%q is not a valid identifier", c.Engine.EntryPoint)))
	}
	if c.Engine.Timeout < 0 {
		errs = append(errs, apperror.ValidationFailed("engine.timeout", "timeout must not be negative"))
	}

	if c.Engine.Backend == BackendSandbox {
		if err := c.Sandbox.Docker().Validate(); err != nil {
			errs = append(errs, apperror.ValidationFailed("sandbox", err.Error()))
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, apperror.ValidationFailed("log.level", err.Error()))
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		errs = append(errs, apperror.ValidationFailed("log.format", fmt.Sprintf("unknown format %q", c.Log.Format)))
	}

	return errors.Join(errs...)
}
