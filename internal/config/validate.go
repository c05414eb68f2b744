package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateETL(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateETL() error {
	if c.ETL.RejectionThresholdPercent > 100 {
		return errors.New("etl.rejection_threshold_percent must not exceed 100")
	}
	if c.ETL.RetryBackoffMaxSeconds < c.ETL.RetryBackoffSeconds {
		return errors.New("etl.retry_backoff_max_seconds must be at least etl.retry_backoff_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
