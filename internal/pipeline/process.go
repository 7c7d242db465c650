package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/layout"
	"github.com/broadsheet-archive/broadsheet/internal/ocr"
	"github.com/broadsheet-archive/broadsheet/internal/preprocess"
	"github.com/broadsheet-archive/broadsheet/internal/press"
	"github.com/broadsheet-archive/broadsheet/internal/segment"
)

// ProcessPage runs one page image through preprocessing, recognition,
// layout analysis and article grouping. It touches neither the queue nor
// the artifact store; callers that need jobs and persistence go through
// the coordinator. Panics in an engine are caught and returned as errors.
func ProcessPage(ctx context.Context, engines *ocr.Registry, cfg press.ProcessingConfig, imagePath string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("panic while processing page: %v", r)
		}
	}()

	pre := preprocess.New()
	img, err := pre.ProcessFile(imagePath, cfg)
	if err != nil {
		return nil, err
	}
	encoded, err := preprocess.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	engine, err := engines.Get(cfg.EngineMode)
	if err != nil {
		return nil, &ocr.OCRError{Engine: cfg.EngineMode, Op: "lookup", Err: err}
	}

	ocrCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	rec, err := engine.Recognize(ocrCtx, encoded, cfg)
	if err != nil {
		return nil, err
	}

	res = &Result{
		PlainText:        rec.PlainText,
		PositionalMarkup: rec.HOCR,
		Confidence:       rec.MeanConfidence,
	}

	bounds := img.Bounds()
	regions, err := layout.New().Analyze(rec.HOCR, bounds.Dx(), bounds.Dy(), cfg)
	if err != nil {
		return nil, err
	}
	res.Regions = regions

	articles, err := segment.New().Segment(regions, bounds.Dx(), cfg)
	if err != nil {
		return nil, err
	}
	res.Articles = articles

	res.Success = true
	res.Elapsed = time.Since(start)
	return res, nil
}
