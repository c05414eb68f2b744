package config

const (
	defaultDataDir             = "~/.local/share/turnstile/data"
	defaultLogDir              = "~/.local/share/turnstile/logs"
	defaultFeedsFile           = "~/.config/turnstile/feeds.yml"
	defaultDatabasePath        = "~/.local/share/turnstile/turnstile.db"
	defaultWorkers             = 4
	defaultDownloadRetries     = 3
	defaultRetryBackoff        = 5
	defaultRetryBackoffMax     = 120
	defaultRecordBuffer        = 1024
	defaultRejectionThreshold  = 5.0
	defaultDiskMinFreeMB       = 512
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			FeedsFile: defaultFeedsFile,
		},
		Database: Database{
			Path: defaultDatabasePath,
		},
		ETL: ETL{
			Workers:                   defaultWorkers,
			DownloadRetries:           defaultDownloadRetries,
			RetryBackoffSeconds:       defaultRetryBackoff,
			RetryBackoffMaxSeconds:    defaultRetryBackoffMax,
			RecordBuffer:              defaultRecordBuffer,
			RejectionThresholdPercent: defaultRejectionThreshold,
			DiskMinFreeMB:             defaultDiskMinFreeMB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
