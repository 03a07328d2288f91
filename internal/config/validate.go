package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDispatch(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDispatch() error {
	switch c.Dispatch.Mode {
	case DispatchModePool:
		if c.Dispatch.Workers < 1 {
			return errors.New("dispatch.workers must be positive")
		}
		if c.Dispatch.QueueSize < 1 {
			return errors.New("dispatch.queue_size must be positive")
		}
	case DispatchModeSpawn:
	default:
		return fmt.Errorf("dispatch.mode: unsupported value %q (want %q or %q)", c.Dispatch.Mode, DispatchModePool, DispatchModeSpawn)
	}
	return nil
}

func (c *Config) validateReport() error {
	if c.Report.Top < 0 {
		return errors.New("report.top must be zero or positive")
	}
	if c.Report.IntervalSeconds <= 0 {
		return errors.New("report.interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Keep < 0 {
		return errors.New("store.keep must be zero or positive")
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.MaxTokens < 0 {
		return errors.New("metrics.max_tokens must be zero or positive")
	}
	if !c.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Bind); err != nil {
		return fmt.Errorf("metrics.bind: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
