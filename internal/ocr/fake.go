package ocr

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/broadsheet-archive/broadsheet/internal/press"
)

// ErrFakeFailure is the default error a failing FakeEngine returns.
var ErrFakeFailure = errors.New("fake engine failure")

// FakeName is the registry key for the fake engine.
const FakeName = "fake"

// defaultFakeHOCR describes a plausible single-story page: a headline over
// two body columns, sized for a 1000x2000 page.
const defaultFakeHOCR = `<html><body>
<div class='ocr_page' id='page_1' title='bbox 0 0 1000 2000'>
 <div class='ocr_carea' id='block_1_1' title='bbox 100 60 900 100'>
  <p class='ocr_par' id='par_1_1'><span class='ocr_line' id='line_1_1' title='bbox 100 60 900 100'>
   <span class='ocrx_word' id='word_1_1' title='bbox 100 60 340 100; x_wconf 90'>RIVER</span>
   <span class='ocrx_word' id='word_1_2' title='bbox 360 60 520 100; x_wconf 88'>ICE</span>
   <span class='ocrx_word' id='word_1_3' title='bbox 540 60 760 100; x_wconf 91'>BREAKS</span>
   <span class='ocrx_word' id='word_1_4' title='bbox 780 60 900 100; x_wconf 87'>UP</span>
  </span></p>
 </div>
 <div class='ocr_carea' id='block_1_2' title='bbox 100 200 480 800'>
  <p class='ocr_par' id='par_1_2'><span class='ocr_line' id='line_1_2' title='bbox 100 200 480 240'>
   <span class='ocrx_word' id='word_1_5' title='bbox 100 200 145 240; x_wconf 84'>The</span>
   <span class='ocrx_word' id='word_1_6' title='bbox 150 200 195 240; x_wconf 82'>river</span>
   <span class='ocrx_word' id='word_1_7' title='bbox 200 200 245 240; x_wconf 80'>opened</span>
   <span class='ocrx_word' id='word_1_8' title='bbox 250 200 295 240; x_wconf 78'>under</span>
   <span class='ocrx_word' id='word_1_9' title='bbox 300 200 345 240; x_wconf 76'>the</span>
   <span class='ocrx_word' id='word_1_10' title='bbox 350 200 395 240; x_wconf 74'>ice</span>
   <span class='ocrx_word' id='word_1_11' title='bbox 400 200 435 240; x_wconf 72'>this</span>
   <span class='ocrx_word' id='word_1_12' title='bbox 440 200 480 240; x_wconf 70'>morning</span>
  </span></p>
 </div>
 <div class='ocr_carea' id='block_1_3' title='bbox 520 200 900 800'>
  <p class='ocr_par' id='par_1_3'><span class='ocr_line' id='line_1_3' title='bbox 520 200 900 240'>
   <span class='ocrx_word' id='word_1_13' title='bbox 520 200 565 240; x_wconf 79'>Ferries</span>
   <span class='ocrx_word' id='word_1_14' title='bbox 570 200 615 240; x_wconf 77'>resume</span>
   <span class='ocrx_word' id='word_1_15' title='bbox 620 200 665 240; x_wconf 75'>their</span>
   <span class='ocrx_word' id='word_1_16' title='bbox 670 200 715 240; x_wconf 73'>crossings</span>
   <span class='ocrx_word' id='word_1_17' title='bbox 720 200 765 240; x_wconf 71'>after</span>
   <span class='ocrx_word' id='word_1_18' title='bbox 770 200 815 240; x_wconf 69'>the</span>
   <span class='ocrx_word' id='word_1_19' title='bbox 820 200 860 240; x_wconf 67'>long</span>
   <span class='ocrx_word' id='word_1_20' title='bbox 865 200 900 240; x_wconf 65'>freeze</span>
  </span></p>
 </div>
</div>
</body></html>`

// FakeEngine is an Engine for testing with configurable behavior.
type FakeEngine struct {
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // fail from the Nth request on, 0 never
	FailErr    error

	PlainText  string
	HOCR       string
	Confidence float64

	requestCount atomic.Int64
}

// NewFakeEngine creates a fake engine whose default output parses into a
// headline and two body regions.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		PlainText:  "RIVER ICE BREAKS UP\nThe river opened under the ice this morning\nFerries resume their crossings after the long freeze",
		HOCR:       defaultFakeHOCR,
		Confidence: 0.83,
	}
}

// Name returns the engine identifier.
func (e *FakeEngine) Name() string { return FakeName }

// Requests returns how many recognitions were attempted.
func (e *FakeEngine) Requests() int {
	return int(e.requestCount.Load())
}

// Recognize returns the configured canned result.
func (e *FakeEngine) Recognize(ctx context.Context, image []byte, cfg press.ProcessingConfig) (*Result, error) {
	count := e.requestCount.Add(1)

	if e.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, &OCRError{Engine: FakeName, Op: "recognize", Err: ctx.Err()}
		case <-time.After(e.Latency):
		}
	} else if err := ctx.Err(); err != nil {
		return nil, &OCRError{Engine: FakeName, Op: "recognize", Err: err}
	}

	if e.ShouldFail || (e.FailAfter > 0 && count >= int64(e.FailAfter)) {
		err := e.FailErr
		if err == nil {
			err = ErrFakeFailure
		}
		return nil, &OCRError{Engine: FakeName, Op: "recognize", Err: err}
	}

	return &Result{
		PlainText:      e.PlainText,
		HOCR:           e.HOCR,
		MeanConfidence: e.Confidence,
	}, nil
}
