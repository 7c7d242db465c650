// Package ingest turns scanned newspaper issues delivered as PDFs into
// per-page images under the home layout, described by a schema-validated
// manifest. Rendering goes through pdftoppm because it rasterizes pages;
// extracting embedded image objects can return them out of page order.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/broadsheet-archive/broadsheet/internal/home"
)

// Request contains the parameters for ingesting one issue.
type Request struct {
	PDFPaths      []string     // PDF file paths (sorted by numeric suffix for multi-part scans)
	Title         string       // Issue title (optional, derived from filename if empty)
	Date          string       // Publication date, ISO form preferred (optional)
	PublicationID string       // Owning publication (optional)
	Logger        *slog.Logger // Optional logger for progress updates
}

// Result describes a successfully ingested issue.
type Result struct {
	IssueID   string
	Title     string
	Date      string
	PageCount int
}

// Ingest renders every page of the issue PDFs into the home layout, copies
// the source PDFs alongside them and writes the issue manifest. On any
// failure the partially built issue directory is removed.
func Ingest(ctx context.Context, homeDir *home.Dir, req Request) (*Result, error) {
	log := req.Logger
	if log == nil {
		log = slog.Default()
	}

	if len(req.PDFPaths) == 0 {
		return nil, fmt.Errorf("no PDF paths provided")
	}
	for _, p := range req.PDFPaths {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("PDF not found: %s", p)
		}
	}

	// Multi-part scans arrive as issue-1.pdf, issue-2.pdf and so on.
	sortedPaths := sortPDFsByNumber(req.PDFPaths)
	log.Info("starting ingest", "pdfs", len(sortedPaths), "title", req.Title)

	title := req.Title
	if title == "" {
		title = deriveTitle(sortedPaths[0], len(sortedPaths) > 1)
	}

	issueID := uuid.New().String()
	if err := homeDir.EnsureIssueDir(issueID); err != nil {
		return nil, fmt.Errorf("failed to create issue directory: %w", err)
	}
	issueDir := homeDir.IssueDir(issueID)

	pageCount := 0
	for i, pdfPath := range sortedPaths {
		log.Debug("rendering PDF", "file", filepath.Base(pdfPath), "part", i+1, "of", len(sortedPaths))
		count, err := renderPDF(ctx, pdfPath, homeDir, issueID, pageCount)
		if err != nil {
			os.RemoveAll(issueDir)
			return nil, fmt.Errorf("failed to render pages from %s: %w", pdfPath, err)
		}
		log.Debug("rendered pages", "count", count, "total", pageCount+count)
		pageCount += count
	}

	if pageCount == 0 {
		os.RemoveAll(issueDir)
		return nil, fmt.Errorf("no pages rendered from PDFs")
	}

	if err := keepOriginals(homeDir, issueID, sortedPaths); err != nil {
		os.RemoveAll(issueDir)
		return nil, err
	}

	manifest := &Manifest{
		IssueID:       issueID,
		PublicationID: req.PublicationID,
		Title:         title,
		Date:          req.Date,
		CreatedAt:     time.Now().UTC(),
		PageCount:     pageCount,
	}
	for n := 1; n <= pageCount; n++ {
		manifest.Pages = append(manifest.Pages, ManifestPage{
			Number: n,
			Image:  filepath.Base(homeDir.IssuePagePath(issueID, n)),
		})
	}
	if err := WriteManifest(homeDir, manifest); err != nil {
		os.RemoveAll(issueDir)
		return nil, err
	}

	log.Info("ingest complete", "issue_id", issueID, "pages", pageCount)

	return &Result{
		IssueID:   issueID,
		Title:     title,
		Date:      req.Date,
		PageCount: pageCount,
	}, nil
}

// keepOriginals copies the source PDFs into the issue's originals
// directory, so the home stays self-contained for re-ingestion.
func keepOriginals(homeDir *home.Dir, issueID string, paths []string) error {
	if err := homeDir.EnsureOriginalsDir(issueID); err != nil {
		return fmt.Errorf("failed to create originals directory: %w", err)
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read source PDF %s: %w", p, err)
		}
		dst := filepath.Join(homeDir.OriginalsDir(issueID), filepath.Base(p))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to copy source PDF: %w", err)
		}
	}
	return nil
}

// sortPDFsByNumber sorts PDF paths by their numeric suffix.
// e.g., ["issue-2.pdf", "issue-1.pdf", "issue-10.pdf"] -> ["issue-1.pdf", "issue-2.pdf", "issue-10.pdf"]
func sortPDFsByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	re := regexp.MustCompile(`-(\d+)\.pdf$`)

	sort.Slice(sorted, func(i, j int) bool {
		mi := re.FindStringSubmatch(sorted[i])
		mj := re.FindStringSubmatch(sorted[j])

		// If both have numbers, sort numerically
		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			return ni < nj
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}

		// Both without numbers: alphabetical
		return sorted[i] < sorted[j]
	})

	return sorted
}

// deriveTitle extracts a title from a PDF filename. For multi-part scans
// the per-part numeric suffix is dropped, so "gazette-1.pdf" and
// "gazette-2.pdf" both derive "gazette". Single files keep their full stem;
// a trailing number there is usually a date, not a part number.
// e.g., "morning-gazette-1894-03-12.pdf" -> "morning-gazette-1894-03-12"
func deriveTitle(pdfPath string, multiPart bool) string {
	base := filepath.Base(pdfPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if multiPart {
		re := regexp.MustCompile(`-\d+$`)
		name = re.ReplaceAllString(name, "")
	}

	return name
}
