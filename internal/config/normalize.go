package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeETL()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.FeedsFile) == "" {
		c.Paths.FeedsFile = defaultFeedsFile
	}
	if c.Paths.FeedsFile, err = expandPath(c.Paths.FeedsFile); err != nil {
		return fmt.Errorf("paths.feeds_file: %w", err)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = defaultDatabasePath
	}
	if c.Database.Path, err = expandPath(c.Database.Path); err != nil {
		return fmt.Errorf("database.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeETL() {
	if c.ETL.Workers < 1 {
		c.ETL.Workers = 1
	}
	if c.ETL.DownloadRetries < 1 {
		c.ETL.DownloadRetries = 1
	}
	if c.ETL.RetryBackoffSeconds < 1 {
		c.ETL.RetryBackoffSeconds = defaultRetryBackoff
	}
	if c.ETL.RetryBackoffMaxSeconds < c.ETL.RetryBackoffSeconds {
		c.ETL.RetryBackoffMaxSeconds = c.ETL.RetryBackoffSeconds
	}
	if c.ETL.RecordBuffer < 1 {
		c.ETL.RecordBuffer = defaultRecordBuffer
	}
	if c.ETL.RejectionThresholdPercent <= 0 {
		c.ETL.RejectionThresholdPercent = defaultRejectionThreshold
	}
	if c.ETL.DiskMinFreeMB < 0 {
		c.ETL.DiskMinFreeMB = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
