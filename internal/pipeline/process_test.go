package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/broadsheet-archive/broadsheet/internal/ocr"
)

// TestProcessPage tests the standalone pipeline entry point used by the
// one-shot CLI path.
func TestProcessPage(t *testing.T) {
	engine := ocr.NewFakeEngine()
	reg := ocr.NewRegistry()
	reg.SetLogger(quietLogger())
	reg.Register(engine)

	path := writeTestPage(t)

	res, err := ProcessPage(context.Background(), reg, fastConfig(), path)
	if err != nil {
		t.Fatalf("ProcessPage() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if len(res.Regions) != 3 {
		t.Errorf("len(Regions) = %d, want 3", len(res.Regions))
	}
	if len(res.Articles) != 1 {
		t.Errorf("len(Articles) = %d, want 1", len(res.Articles))
	}
	if res.Confidence != engine.Confidence {
		t.Errorf("Confidence = %v, want %v", res.Confidence, engine.Confidence)
	}

	// No job identity outside the queue path; callers stamp their own.
	if res.JobID != "" || res.PageID != "" {
		t.Errorf("JobID = %q, PageID = %q, want both empty", res.JobID, res.PageID)
	}
	if res.Articles[0].PageID != "" {
		t.Errorf("article PageID = %q, want empty", res.Articles[0].PageID)
	}
}

// TestProcessPage_UnknownEngine tests that a config naming an unregistered
// engine fails with a lookup error.
func TestProcessPage_UnknownEngine(t *testing.T) {
	reg := ocr.NewRegistry()
	reg.SetLogger(quietLogger())

	cfg := fastConfig()
	cfg.EngineMode = "phantom"

	_, err := ProcessPage(context.Background(), reg, cfg, writeTestPage(t))
	if err == nil {
		t.Fatal("ProcessPage() error = nil, want lookup failure")
	}
	var ocrErr *ocr.OCRError
	if !errors.As(err, &ocrErr) {
		t.Fatalf("error type = %T, want *ocr.OCRError", err)
	}
	if ocrErr.Op != "lookup" {
		t.Errorf("Op = %q, want lookup", ocrErr.Op)
	}
}
