// Package preprocess normalizes scanned newspaper pages for OCR. The
// pipeline is a pure, config-driven transform: decode, downscale, grayscale,
// denoise, enhance, deskew, and for the quality profiles binarize. Cheap
// geometric fixes run before enhancement and enhancement before
// binarization, because binarizing a skewed or noisy page loses detail that
// no later stage can recover.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// Register decoders for the formats scanners and archives deliver.
	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// ImageProcessingError represents a failure to read or transform a source image.
type ImageProcessingError struct {
	Path string // source path when known
	Op   string // pipeline stage that failed
	Err  error
}

func (e *ImageProcessingError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("image processing failed at %s for %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("image processing failed at %s: %v", e.Op, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// Preprocessor turns raw page scans into OCR-ready grayscale or binary
// images. It holds no per-job state, so one instance is safe for all
// workers.
type Preprocessor struct{}

// New creates a preprocessor.
func New() *Preprocessor {
	return &Preprocessor{}
}

// ProcessFile reads and processes the image at path.
func (p *Preprocessor) ProcessFile(path string, cfg press.ProcessingConfig) (*image.Gray, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImageProcessingError{Path: path, Op: "read", Err: err}
	}
	img, err := p.Process(data, cfg)
	if err != nil {
		if ipe, ok := err.(*ImageProcessingError); ok {
			ipe.Path = path
		}
		return nil, err
	}
	return img, nil
}

// Process runs the full pipeline over an encoded image. Stage order is
// fixed; the config decides which stages run.
func (p *Preprocessor) Process(data []byte, cfg press.ProcessingConfig) (*image.Gray, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ImageProcessingError{Op: "decode", Err: err}
	}

	src = downscale(src, cfg.MaxImageDimension)
	gray := toGray(src)

	// The fast profile stops after grayscale conversion.
	if cfg.Profile == press.ProfileFast {
		return gray, nil
	}

	if cfg.Denoise {
		gray = medianFilter(gray)
	}
	if cfg.EnhanceContrast {
		gray = adjustContrast(gray, cfg.ContrastFactor)
	}
	if cfg.EnhanceBrightness {
		gray = adjustBrightness(gray, cfg.BrightnessFactor)
	}
	if cfg.EnhanceSharpness {
		gray = sharpen(gray, cfg.SharpnessFactor)
	}
	if cfg.Deskew {
		gray = deskew(gray)
	}
	if cfg.AdaptiveThreshold {
		gray = adaptiveThreshold(gray)
		gray = closeSpeckles(gray)
	}
	return gray, nil
}

// EncodePNG serializes a processed image for the OCR engine and for
// artifact storage.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &ImageProcessingError{Op: "encode", Err: err}
	}
	return buf.Bytes(), nil
}

// downscale shrinks the image so neither dimension exceeds maxDim,
// preserving aspect ratio. Images already within bounds pass through.
func downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	longest := w
	if h > longest {
		longest = h
	}
	scale := float64(maxDim) / float64(longest)
	tw := int(float64(w) * scale)
	th := int(float64(h) * scale)
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// toGray converts any decoded image to single-channel intensity.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
