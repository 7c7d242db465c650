package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// envKeyReplacer maps nested config keys onto environment variable names,
// so server.port becomes BROADSHEET_SERVER_PORT.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	// Defaults are registered per leaf key. Registering whole sections
	// would let a partial section in the file shadow the defaults for
	// the keys it omits.
	for key, value := range defaultValues() {
		viper.SetDefault(key, value)
	}

	// Environment variables with BROADSHEET_ prefix, nested keys
	// separated by underscores: BROADSHEET_SERVER_PORT, BROADSHEET_OCR_ENGINE.
	viper.SetEnvPrefix("BROADSHEET")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.broadsheet")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// defaultValues flattens DefaultConfig into viper keys.
func defaultValues() map[string]any {
	d := DefaultConfig()
	return map[string]any{
		"server.host":                       d.Server.Host,
		"server.port":                       d.Server.Port,
		"workers.count":                     d.Workers.Count,
		"workers.poll_interval_ms":          d.Workers.PollIntervalMS,
		"queue.capacity":                    d.Queue.Capacity,
		"queue.max_retries":                 d.Queue.MaxRetries,
		"queue.promote_on_retry":            d.Queue.PromoteOnRetry,
		"queue.snapshot_seconds":            d.Queue.SnapshotSeconds,
		"queue.cleanup_schedule":            d.Queue.CleanupSchedule,
		"queue.result_buffer":               d.Queue.ResultBuffer,
		"ocr.engine":                        d.OCR.Engine,
		"ocr.language":                      d.OCR.Language,
		"ocr.segmentation_mode":             d.OCR.SegmentationMode,
		"ocr.timeout_seconds":               d.OCR.TimeoutSeconds,
		"processing.profile":                d.Processing.Profile,
		"processing.max_image_dimension":    d.Processing.MaxImageDimension,
		"processing.min_column_width_ratio": d.Processing.MinColumnWidthRatio,
		"processing.max_column_width_ratio": d.Processing.MaxColumnWidthRatio,
		"processing.min_title_height_ratio": d.Processing.MinTitleHeightRatio,
		"spool.enabled":                     d.Spool.Enabled,
		"log.level":                         d.Log.Level,
	}
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Broadsheet configuration
# Any key can be overridden with a BROADSHEET_ environment variable,
# nested keys separated by underscores: BROADSHEET_SERVER_PORT=9000

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
