package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/press"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
)

// Config holds broadsheet configuration.
// Stored at: ~/.broadsheet/config.yaml
type Config struct {
	Server     ServerCfg     `mapstructure:"server" json:"server" yaml:"server"`
	Workers    WorkersCfg    `mapstructure:"workers" json:"workers" yaml:"workers"`
	Queue      QueueCfg      `mapstructure:"queue" json:"queue" yaml:"queue"`
	OCR        OCRCfg        `mapstructure:"ocr" json:"ocr" yaml:"ocr"`
	Processing ProcessingCfg `mapstructure:"processing" json:"processing" yaml:"processing"`
	Spool      SpoolCfg      `mapstructure:"spool" json:"spool" yaml:"spool"`
	Log        LogCfg        `mapstructure:"log" json:"log" yaml:"log"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" json:"host" yaml:"host"` // Address to bind to
	Port string `mapstructure:"port" json:"port" yaml:"port"` // Port to listen on
}

// WorkersCfg configures the processing worker pool.
type WorkersCfg struct {
	Count          int `mapstructure:"count" json:"count" yaml:"count"`                                  // Concurrent page workers
	PollIntervalMS int `mapstructure:"poll_interval_ms" json:"poll_interval_ms" yaml:"poll_interval_ms"` // Queue poll fallback in milliseconds
}

// QueueCfg configures the job queue.
type QueueCfg struct {
	Capacity        int    `mapstructure:"capacity" json:"capacity" yaml:"capacity"`                         // Max live jobs
	MaxRetries      int    `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`                // Requeues before a failure goes terminal
	PromoteOnRetry  bool   `mapstructure:"promote_on_retry" json:"promote_on_retry" yaml:"promote_on_retry"` // Bump priority on requeue
	SnapshotSeconds int    `mapstructure:"snapshot_seconds" json:"snapshot_seconds" yaml:"snapshot_seconds"` // Queue state flush interval
	CleanupSchedule string `mapstructure:"cleanup_schedule" json:"cleanup_schedule" yaml:"cleanup_schedule"` // Cron expression for the terminal-job sweep, empty disables
	ResultBuffer    int    `mapstructure:"result_buffer" json:"result_buffer" yaml:"result_buffer"`          // Buffered terminal results awaiting delivery
}

// OCRCfg configures recognition defaults.
type OCRCfg struct {
	Engine           string `mapstructure:"engine" json:"engine" yaml:"engine"`                                  // Registered engine name
	Language         string `mapstructure:"language" json:"language" yaml:"language"`                            // Traineddata name, e.g. eng, deu, fin
	SegmentationMode int    `mapstructure:"segmentation_mode" json:"segmentation_mode" yaml:"segmentation_mode"` // Engine page segmentation mode
	TimeoutSeconds   int    `mapstructure:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`       // Per-job bound around the OCR call
}

// ProcessingCfg configures preprocessing and layout defaults.
type ProcessingCfg struct {
	Profile             string  `mapstructure:"profile" json:"profile" yaml:"profile"`                                              // fast, standard, quality or archival
	MaxImageDimension   int     `mapstructure:"max_image_dimension" json:"max_image_dimension" yaml:"max_image_dimension"`          // Larger pages are downscaled
	MinColumnWidthRatio float64 `mapstructure:"min_column_width_ratio" json:"min_column_width_ratio" yaml:"min_column_width_ratio"` // Column clustering floor
	MaxColumnWidthRatio float64 `mapstructure:"max_column_width_ratio" json:"max_column_width_ratio" yaml:"max_column_width_ratio"` // Column clustering ceiling
	MinTitleHeightRatio float64 `mapstructure:"min_title_height_ratio" json:"min_title_height_ratio" yaml:"min_title_height_ratio"` // Title classification floor
}

// SpoolCfg configures the spool watcher.
type SpoolCfg struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"` // debug, info, warn or error
}

// DefaultConfig returns configuration with sensible defaults. Recognition
// and processing defaults track the default processing config, so the file
// and the pipeline cannot drift apart.
func DefaultConfig() *Config {
	p := press.DefaultConfig()
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: "8480",
		},
		Workers: WorkersCfg{
			Count:          2,
			PollIntervalMS: 500,
		},
		Queue: QueueCfg{
			Capacity:        queue.DefaultCapacity,
			MaxRetries:      2,
			PromoteOnRetry:  true,
			SnapshotSeconds: 30,
			CleanupSchedule: "0 3 * * *",
			ResultBuffer:    100,
		},
		OCR: OCRCfg{
			Engine:           p.EngineMode,
			Language:         p.Language,
			SegmentationMode: p.SegmentationMode,
			TimeoutSeconds:   int(p.Timeout / time.Second),
		},
		Processing: ProcessingCfg{
			Profile:             string(p.Profile),
			MaxImageDimension:   p.MaxImageDimension,
			MinColumnWidthRatio: p.MinColumnWidthRatio,
			MaxColumnWidthRatio: p.MaxColumnWidthRatio,
			MinTitleHeightRatio: p.MinTitleHeightRatio,
		},
		Spool: SpoolCfg{
			Enabled: true,
		},
		Log: LogCfg{
			Level: "info",
		},
	}
}

// ProcessingDefaults builds the processing config used when a job is
// admitted without an explicit one. Unset fields keep the built-in
// defaults.
func (c *Config) ProcessingDefaults() press.ProcessingConfig {
	cfg := press.DefaultConfig()
	if c.OCR.Engine != "" {
		cfg.EngineMode = c.OCR.Engine
	}
	if c.OCR.Language != "" {
		cfg.Language = c.OCR.Language
	}
	if c.OCR.SegmentationMode > 0 {
		cfg.SegmentationMode = c.OCR.SegmentationMode
	}
	if c.OCR.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(c.OCR.TimeoutSeconds) * time.Second
	}
	if c.Processing.MaxImageDimension > 0 {
		cfg.MaxImageDimension = c.Processing.MaxImageDimension
	}
	if c.Processing.MinColumnWidthRatio > 0 {
		cfg.MinColumnWidthRatio = c.Processing.MinColumnWidthRatio
	}
	if c.Processing.MaxColumnWidthRatio > 0 {
		cfg.MaxColumnWidthRatio = c.Processing.MaxColumnWidthRatio
	}
	if c.Processing.MinTitleHeightRatio > 0 {
		cfg.MinTitleHeightRatio = c.Processing.MinTitleHeightRatio
	}
	if p := press.Profile(c.Processing.Profile); p.IsValid() {
		cfg.ApplyProfile(p)
	}
	return cfg
}

// RetryPolicy returns the queue retry policy the config describes.
func (c *Config) RetryPolicy() queue.RetryPolicy {
	return queue.RetryPolicy{
		MaxRetries:     c.Queue.MaxRetries,
		PromoteOnRetry: c.Queue.PromoteOnRetry,
	}
}

// LogLevel maps the configured level name to a slog level. Unknown names
// fall back to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ListenAddr joins the configured host and port.
func (c *Config) ListenAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}
