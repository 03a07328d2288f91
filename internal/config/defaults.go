package config

const (
	defaultDataDir          = "~/.local/share/kwdetect"
	defaultLogDir           = "~/.local/share/kwdetect/logs"
	defaultDispatchMode     = DispatchModePool
	defaultDispatchWorkers  = 2
	defaultDispatchQueue    = 64
	defaultReportTop        = 20
	defaultReportInterval   = 30
	defaultStoreFile        = "snapshots.db"
	defaultStoreKeep        = 100
	defaultMetricsBind      = "127.0.0.1:9478"
	defaultMetricsMaxTokens = 50
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

const (
	// DispatchModePool shares a bounded worker pool between reporting tasks.
	DispatchModePool = "pool"
	// DispatchModeSpawn starts a dedicated goroutine for every reporting task.
	DispatchModeSpawn = "spawn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Dispatch: Dispatch{
			Mode:      defaultDispatchMode,
			Workers:   defaultDispatchWorkers,
			QueueSize: defaultDispatchQueue,
		},
		Report: Report{
			Top:             defaultReportTop,
			IntervalSeconds: defaultReportInterval,
		},
		Store: Store{
			Enabled: true,
			Keep:    defaultStoreKeep,
		},
		Metrics: Metrics{
			Enabled:   false,
			Bind:      defaultMetricsBind,
			MaxTokens: defaultMetricsMaxTokens,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
