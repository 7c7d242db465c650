package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/broadsheet-archive/broadsheet/internal/home"
)

func TestSortPDFsByNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "already sorted",
			input:    []string{"issue-1.pdf", "issue-2.pdf", "issue-3.pdf"},
			expected: []string{"issue-1.pdf", "issue-2.pdf", "issue-3.pdf"},
		},
		{
			name:     "reverse order",
			input:    []string{"issue-3.pdf", "issue-2.pdf", "issue-1.pdf"},
			expected: []string{"issue-1.pdf", "issue-2.pdf", "issue-3.pdf"},
		},
		{
			name:     "mixed with double digits",
			input:    []string{"issue-10.pdf", "issue-2.pdf", "issue-1.pdf"},
			expected: []string{"issue-1.pdf", "issue-2.pdf", "issue-10.pdf"},
		},
		{
			name:     "single file without number",
			input:    []string{"issue.pdf"},
			expected: []string{"issue.pdf"},
		},
		{
			name:     "numbered and unnumbered",
			input:    []string{"issue-2.pdf", "issue.pdf", "issue-1.pdf"},
			expected: []string{"issue.pdf", "issue-1.pdf", "issue-2.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sortPDFsByNumber(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("length mismatch: got %d, want %d", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("index %d: got %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		input     string
		multiPart bool
		expected  string
	}{
		{"/scans/morning-gazette-1894-03-12.pdf", false, "morning-gazette-1894-03-12"},
		{"/scans/gazette-1.pdf", true, "gazette"},
		{"/scans/gazette-10.pdf", true, "gazette"},
		{"simple.pdf", false, "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := deriveTitle(tt.input, tt.multiPart)
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func testHome(t *testing.T) *home.Dir {
	t.Helper()
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}
	return h
}

func validManifest() *Manifest {
	return &Manifest{
		IssueID:   "issue-1",
		Title:     "The Morning Gazette",
		Date:      "1894-03-12",
		PageCount: 2,
		Pages: []ManifestPage{
			{Number: 1, Image: "page_0001.png"},
			{Number: 2, Image: "page_0002.png"},
		},
	}
}

func TestManifestRoundTrip(t *testing.T) {
	h := testHome(t)
	m := validManifest()
	m.PublicationID = "pub-1"

	if err := h.EnsureIssueDir(m.IssueID); err != nil {
		t.Fatalf("EnsureIssueDir() error = %v", err)
	}
	if err := WriteManifest(h, m); err != nil {
		t.Fatalf("WriteManifest() error = %v", err)
	}

	loaded, err := LoadManifest(h, m.IssueID)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if loaded.IssueID != m.IssueID || loaded.Title != m.Title || loaded.PageCount != 2 {
		t.Errorf("loaded manifest = %+v, want the written one", loaded)
	}
	if len(loaded.Pages) != 2 || loaded.Pages[1].Image != "page_0002.png" {
		t.Errorf("loaded pages = %+v", loaded.Pages)
	}
}

func TestValidateManifest_Rejections(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{
			name: "missing pages",
			json: `{"issue_id":"i1","title":"Gazette","page_count":1}`,
		},
		{
			name: "empty pages",
			json: `{"issue_id":"i1","title":"Gazette","page_count":1,"pages":[]}`,
		},
		{
			name: "zero page count",
			json: `{"issue_id":"i1","title":"Gazette","page_count":0,"pages":[{"number":1,"image":"p.png"}]}`,
		},
		{
			name: "missing title",
			json: `{"issue_id":"i1","page_count":1,"pages":[{"number":1,"image":"p.png"}]}`,
		},
		{
			name: "page missing image",
			json: `{"issue_id":"i1","title":"Gazette","page_count":1,"pages":[{"number":1}]}`,
		},
		{
			name: "not json",
			json: `{{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateManifest([]byte(tt.json)); err == nil {
				t.Error("ValidateManifest() accepted an invalid manifest")
			}
		})
	}
}

func TestWriteManifest_RefusesInvalid(t *testing.T) {
	h := testHome(t)
	m := validManifest()
	m.Pages = nil

	if err := WriteManifest(h, m); err == nil {
		t.Fatal("WriteManifest() accepted a manifest without pages")
	}
	if _, err := os.Stat(h.IssueManifestPath(m.IssueID)); !os.IsNotExist(err) {
		t.Error("invalid manifest written to disk")
	}
}

func TestManifestIssue(t *testing.T) {
	h := testHome(t)
	m := validManifest()
	m.PublicationID = "pub-1"

	issue := m.Issue(h)
	if issue.ID != "issue-1" || issue.PublicationID != "pub-1" || issue.PageCount != 2 {
		t.Errorf("issue = %+v", issue)
	}
	if len(issue.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(issue.Pages))
	}
	p := issue.Pages[0]
	if p.ID != "issue-1-p0001" || p.Number != 1 {
		t.Errorf("page identity = %s #%d", p.ID, p.Number)
	}
	want := filepath.Join(h.IssueDir("issue-1"), "page_0001.png")
	if p.ImagePath != want {
		t.Errorf("image path = %s, want %s", p.ImagePath, want)
	}
	if p.IssueID != "issue-1" || p.PublicationID != "pub-1" {
		t.Errorf("page lineage = %s/%s", p.IssueID, p.PublicationID)
	}
}

func TestIngest_NoPaths(t *testing.T) {
	h := testHome(t)
	if _, err := Ingest(context.Background(), h, Request{}); err == nil {
		t.Error("Ingest() accepted an empty request")
	}
}

func TestIngest_MissingPDF(t *testing.T) {
	h := testHome(t)
	_, err := Ingest(context.Background(), h, Request{
		PDFPaths: []string{filepath.Join(t.TempDir(), "absent.pdf")},
	})
	if err == nil || !strings.Contains(err.Error(), "PDF not found") {
		t.Errorf("Ingest() error = %v, want PDF not found", err)
	}
}

func TestIngest_FullIssue(t *testing.T) {
	// Needs poppler-utils and the sample fixture.
	testPDF := filepath.Join("..", "..", "testdata", "sample-issue.pdf")
	if _, err := os.Stat(testPDF); os.IsNotExist(err) {
		t.Skip("test fixture not found")
	}

	h := testHome(t)
	res, err := Ingest(context.Background(), h, Request{
		PDFPaths: []string{testPDF},
		Date:     "1894-03-12",
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.PageCount == 0 {
		t.Fatal("no pages rendered")
	}

	m, err := LoadManifest(h, res.IssueID)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.PageCount != res.PageCount || len(m.Pages) != res.PageCount {
		t.Errorf("manifest pages = %d/%d, want %d", m.PageCount, len(m.Pages), res.PageCount)
	}
	for n := 1; n <= res.PageCount; n++ {
		if _, err := os.Stat(h.IssuePagePath(res.IssueID, n)); err != nil {
			t.Errorf("page %d image missing: %v", n, err)
		}
	}
	if _, err := os.Stat(filepath.Join(h.OriginalsDir(res.IssueID), "sample-issue.pdf")); err != nil {
		t.Errorf("original PDF not kept: %v", err)
	}
}
