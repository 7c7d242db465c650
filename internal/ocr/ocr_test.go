package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/layout"
	"github.com/broadsheet-archive/broadsheet/internal/press"
)

func TestFakeEngine_Defaults(t *testing.T) {
	engine := NewFakeEngine()
	res, err := engine.Recognize(context.Background(), []byte("image"), press.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PlainText == "" || res.HOCR == "" {
		t.Error("expected non-empty canned output")
	}
	if res.MeanConfidence != 0.83 {
		t.Errorf("expected confidence 0.83, got %v", res.MeanConfidence)
	}
	if engine.Requests() != 1 {
		t.Errorf("expected 1 recorded request, got %d", engine.Requests())
	}
}

func TestFakeEngine_DefaultMarkupYieldsRegions(t *testing.T) {
	engine := NewFakeEngine()
	res, err := engine.Recognize(context.Background(), nil, press.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	regions, err := layout.New().Analyze(res.HOCR, 1000, 2000, press.DefaultConfig())
	if err != nil {
		t.Fatalf("default markup did not analyze: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("expected 3 regions from default markup, got %d", len(regions))
	}
	if regions[0].Type != layout.RegionTitle {
		t.Errorf("expected leading title region, got '%s'", regions[0].Type)
	}
	for _, r := range regions[1:] {
		if r.Type != layout.RegionArticle {
			t.Errorf("expected body region type 'article', got '%s'", r.Type)
		}
	}
}

func TestFakeEngine_ShouldFail(t *testing.T) {
	engine := NewFakeEngine()
	engine.ShouldFail = true

	_, err := engine.Recognize(context.Background(), nil, press.DefaultConfig())
	var ocrErr *OCRError
	if !errors.As(err, &ocrErr) {
		t.Fatalf("expected OCRError, got %v", err)
	}
	if ocrErr.Engine != FakeName {
		t.Errorf("expected engine 'fake', got '%s'", ocrErr.Engine)
	}
	if !errors.Is(err, ErrFakeFailure) {
		t.Errorf("expected wrapped ErrFakeFailure, got %v", err)
	}
}

func TestFakeEngine_FailAfter(t *testing.T) {
	engine := NewFakeEngine()
	engine.FailAfter = 3

	for i := 0; i < 2; i++ {
		if _, err := engine.Recognize(context.Background(), nil, press.DefaultConfig()); err != nil {
			t.Fatalf("request %d should succeed, got %v", i+1, err)
		}
	}
	if _, err := engine.Recognize(context.Background(), nil, press.DefaultConfig()); err == nil {
		t.Error("expected third request to fail")
	}
}

func TestFakeEngine_ContextCanceled(t *testing.T) {
	engine := NewFakeEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recognize(ctx, nil, press.DefaultConfig())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected wrapped context.Canceled, got %v", err)
	}
}

func TestFakeEngine_LatencyHonorsDeadline(t *testing.T) {
	engine := NewFakeEngine()
	engine.Latency = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := engine.Recognize(ctx, nil, press.DefaultConfig())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped context.DeadlineExceeded, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	engine := NewFakeEngine()
	reg.Register(engine)

	got, err := reg.Get(FakeName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Engine(engine) {
		t.Error("expected registered engine back")
	}

	if _, err := reg.Get("missing"); err == nil {
		t.Error("expected error for unknown engine")
	}

	names := reg.Names()
	if len(names) != 1 || names[0] != FakeName {
		t.Errorf("unexpected names %v", names)
	}

	reg.Unregister(FakeName)
	if _, err := reg.Get(FakeName); err == nil {
		t.Error("expected error after unregister")
	}
}

func TestOCRError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &OCRError{Engine: "tesseract", Op: "recognize", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to expose inner error")
	}
	if err.Error() != "ocr engine tesseract: recognize: boom" {
		t.Errorf("unexpected message '%s'", err.Error())
	}
}
