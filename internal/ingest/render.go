package ingest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/broadsheet-archive/broadsheet/internal/home"
)

// renderDPI is the rasterization resolution. 300 DPI keeps small newsprint
// type legible for recognition without ballooning page images.
const renderDPI = "300"

// renderPDF renders every page of one PDF into the issue directory.
// Returns the number of pages rendered. pageOffset shifts output numbering
// for multi-part issues.
func renderPDF(ctx context.Context, pdfPath string, homeDir *home.Dir, issueID string, pageOffset int) (int, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	pageCount, err := api.PageCount(f, nil)
	f.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}

	// Render pages concurrently; each pdftoppm run is single-threaded.
	maxWorkers := runtime.NumCPU()

	type result struct {
		pageNum int
		err     error
	}

	results := make(chan result, pageCount)
	sem := make(chan struct{}, maxWorkers)

	for page := 1; page <= pageCount; page++ {
		sem <- struct{}{} // acquire
		go func(pageInPDF int) {
			defer func() { <-sem }() // release

			dstPath := homeDir.IssuePagePath(issueID, pageOffset+pageInPDF)
			err := renderPage(ctx, pdfPath, dstPath, pageInPDF)
			results <- result{pageNum: pageInPDF, err: err}
		}(page)
	}

	successCount := 0
	var firstErr error
	for i := 0; i < pageCount; i++ {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to render page %d: %w", r.pageNum, r.err)
			continue
		}
		if r.err == nil {
			successCount++
		}
	}
	if firstErr != nil {
		return 0, firstErr
	}

	return successCount, nil
}

// renderPage rasterizes a single PDF page to dstPath using pdftoppm
// (poppler-utils).
func renderPage(ctx context.Context, pdfPath, dstPath string, pageInPDF int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	tmpDir, err := os.MkdirTemp("", "broadsheet-page-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// -png: output PNG format
	// -f N / -l N: first and last page to render
	// -r: resolution in DPI
	// -singlefile: don't add page number suffix (we handle naming ourselves)
	pageStr := fmt.Sprintf("%d", pageInPDF)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", renderDPI,
		"-singlefile",
		pdfPath,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	// pdftoppm with -singlefile creates: <prefix>.png
	srcPath := outputPrefix + ".png"
	if _, err := os.Stat(srcPath); err != nil {
		return fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("failed to read rendered image: %w", err)
	}
	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write page image: %w", err)
	}

	return nil
}
