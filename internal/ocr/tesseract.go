package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// TesseractName is the registry key for the tesseract engine.
const TesseractName = "tesseract"

// TesseractEngine runs recognition through a local tesseract installation.
// A fresh client is created per call, so concurrent recognitions never
// share native state.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a tesseract-backed engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

// Name returns the engine identifier.
func (e *TesseractEngine) Name() string { return TesseractName }

// Recognize runs tesseract over the image. The native call cannot be
// interrupted; on ctx expiry it finishes in the background and its result
// is discarded.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte, cfg press.ProcessingConfig) (*Result, error) {
	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := e.recognize(image, cfg)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, &OCRError{Engine: TesseractName, Op: "recognize", Err: ctx.Err()}
	case out := <-done:
		if out.err != nil {
			return nil, &OCRError{Engine: TesseractName, Op: "recognize", Err: out.err}
		}
		return out.res, nil
	}
}

func (e *TesseractEngine) recognize(image []byte, cfg press.ProcessingConfig) (*Result, error) {
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if cfg.Language != "" {
		if err := c.SetLanguage(cfg.Language); err != nil {
			return nil, fmt.Errorf("set language: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(cfg.SegmentationMode)); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	markup, err := c.HOCRText()
	if err != nil {
		return nil, fmt.Errorf("recognize positional markup: %w", err)
	}

	return &Result{
		PlainText:      strings.TrimSpace(text),
		HOCR:           markup,
		MeanConfidence: meanWordConfidence(c),
	}, nil
}

// meanWordConfidence averages per-word confidences from the completed
// recognition, rescaled to 0..1.
func meanWordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return sum / float64(len(boxes))
}
