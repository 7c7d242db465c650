package press

import (
	"fmt"
	"time"
)

// Profile represents a predefined processing configuration.
type Profile string

const (
	// ProfileFast skips everything after grayscale conversion. Useful for
	// previews and for bulk triage of large backlogs.
	ProfileFast Profile = "fast"
	// ProfileStandard runs denoise, enhancement and deskew without binarization.
	ProfileStandard Profile = "standard"
	// ProfileQuality adds adaptive thresholding and speckle cleanup.
	ProfileQuality Profile = "quality"
	// ProfileArchival is the full pipeline tuned for long-term preservation scans.
	ProfileArchival Profile = "archival"
)

// ValidProfiles lists all valid processing profiles.
var ValidProfiles = []Profile{
	ProfileFast,
	ProfileStandard,
	ProfileQuality,
	ProfileArchival,
}

// IsValid returns true if the profile is a valid processing profile.
func (p Profile) IsValid() bool {
	for _, valid := range ValidProfiles {
		if p == valid {
			return true
		}
	}
	return false
}

// ProcessingConfig is the per-job snapshot of every knob the pipeline reads.
// It is validated at enqueue time and never mutated afterwards, so a job's
// behavior cannot change underneath a running worker.
type ProcessingConfig struct {
	// Recognition settings
	Language         string `json:"language"`          // OCR language code, e.g. "eng", "deu", "fin"
	EngineMode       string `json:"engine_mode"`       // registered OCR engine name
	SegmentationMode int    `json:"segmentation_mode"` // engine page segmentation mode

	// Enhancement toggles and factors (factor 1.0 leaves the image unchanged)
	EnhanceContrast   bool    `json:"enhance_contrast"`
	ContrastFactor    float64 `json:"contrast_factor"`
	EnhanceBrightness bool    `json:"enhance_brightness"`
	BrightnessFactor  float64 `json:"brightness_factor"`
	EnhanceSharpness  bool    `json:"enhance_sharpness"`
	SharpnessFactor   float64 `json:"sharpness_factor"`

	// Cleanup stages
	Denoise           bool `json:"denoise"`
	Deskew            bool `json:"deskew"`
	AdaptiveThreshold bool `json:"adaptive_threshold"`

	// Layout and column detection thresholds, as ratios of page dimensions
	MinColumnWidthRatio float64 `json:"min_column_width_ratio"`
	MaxColumnWidthRatio float64 `json:"max_column_width_ratio"`
	MinTitleHeightRatio float64 `json:"min_title_height_ratio"`

	// Resource bounds
	Timeout           time.Duration `json:"timeout"`             // per-job bound around the OCR call
	MaxImageDimension int           `json:"max_image_dimension"` // larger pages are downscaled

	Profile Profile `json:"profile"`
}

// DefaultConfig returns the standard-profile configuration used when a job is
// enqueued without an explicit config.
func DefaultConfig() ProcessingConfig {
	cfg := ProcessingConfig{
		Language:            "eng",
		EngineMode:          "tesseract",
		SegmentationMode:    3,
		ContrastFactor:      1.3,
		BrightnessFactor:    1.1,
		SharpnessFactor:     1.5,
		MinColumnWidthRatio: 0.05,
		MaxColumnWidthRatio: 0.5,
		MinTitleHeightRatio: 0.015,
		Timeout:             2 * time.Minute,
		MaxImageDimension:   4000,
		Profile:             ProfileStandard,
	}
	cfg.ApplyProfile(ProfileStandard)
	return cfg
}

// ApplyProfile applies predefined settings for a processing profile.
// This sets the stage toggles appropriately for the profile.
func (c *ProcessingConfig) ApplyProfile(profile Profile) {
	c.Profile = profile
	switch profile {
	case ProfileFast:
		// Fast: grayscale only, everything else skipped
		c.Denoise = false
		c.Deskew = false
		c.EnhanceContrast = false
		c.EnhanceBrightness = false
		c.EnhanceSharpness = false
		c.AdaptiveThreshold = false

	case ProfileQuality:
		// Quality: full cleanup plus binarization
		c.Denoise = true
		c.Deskew = true
		c.EnhanceContrast = true
		c.EnhanceBrightness = true
		c.EnhanceSharpness = true
		c.AdaptiveThreshold = true

	case ProfileArchival:
		// Archival: same stages as quality; tuned factors come from config
		c.Denoise = true
		c.Deskew = true
		c.EnhanceContrast = true
		c.EnhanceBrightness = true
		c.EnhanceSharpness = true
		c.AdaptiveThreshold = true

	default: // ProfileStandard
		// Standard: cleanup and enhancement, no binarization
		c.Denoise = true
		c.Deskew = true
		c.EnhanceContrast = true
		c.EnhanceBrightness = true
		c.EnhanceSharpness = true
		c.AdaptiveThreshold = false
	}
}

// Validate checks that the config has all required fields in range.
func (c ProcessingConfig) Validate() error {
	if c.Language == "" {
		return fmt.Errorf("language is required")
	}
	if c.EngineMode == "" {
		return fmt.Errorf("engine mode is required")
	}
	if !c.Profile.IsValid() {
		return fmt.Errorf("invalid profile: %s (valid: %v)", c.Profile, ValidProfiles)
	}
	if c.EnhanceContrast && c.ContrastFactor <= 0 {
		return fmt.Errorf("contrast factor must be positive, got %v", c.ContrastFactor)
	}
	if c.EnhanceBrightness && c.BrightnessFactor <= 0 {
		return fmt.Errorf("brightness factor must be positive, got %v", c.BrightnessFactor)
	}
	if c.EnhanceSharpness && c.SharpnessFactor <= 0 {
		return fmt.Errorf("sharpness factor must be positive, got %v", c.SharpnessFactor)
	}
	if c.MinColumnWidthRatio <= 0 || c.MinColumnWidthRatio > 1 {
		return fmt.Errorf("min column width ratio must be in (0,1], got %v", c.MinColumnWidthRatio)
	}
	if c.MaxColumnWidthRatio <= 0 || c.MaxColumnWidthRatio > 1 {
		return fmt.Errorf("max column width ratio must be in (0,1], got %v", c.MaxColumnWidthRatio)
	}
	if c.MinColumnWidthRatio > c.MaxColumnWidthRatio {
		return fmt.Errorf("min column width ratio %v exceeds max %v", c.MinColumnWidthRatio, c.MaxColumnWidthRatio)
	}
	if c.MinTitleHeightRatio <= 0 || c.MinTitleHeightRatio > 1 {
		return fmt.Errorf("min title height ratio must be in (0,1], got %v", c.MinTitleHeightRatio)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxImageDimension <= 0 {
		return fmt.Errorf("max image dimension must be positive, got %d", c.MaxImageDimension)
	}
	return nil
}
