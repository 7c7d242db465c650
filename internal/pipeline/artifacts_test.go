package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/layout"
	"github.com/broadsheet-archive/broadsheet/internal/segment"
)

// TestWriteArtifacts tests that a successful result lands on disk as the
// four artifact files.
func TestWriteArtifacts(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}
	if err := h.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists() error = %v", err)
	}

	res := &Result{
		JobID:            "job-1",
		PageID:           "page-1",
		Success:          true,
		PlainText:        "HARBOR NEWS\nThe tide tables for the week.",
		PositionalMarkup: "<html><body><div class='ocr_page'></div></body></html>",
		Regions: []layout.TextRegion{
			{X: 10, Y: 20, Width: 300, Height: 40, Type: layout.RegionTitle, Text: "HARBOR NEWS", Confidence: 0.9},
		},
		Articles: []segment.Article{
			{Title: "HARBOR NEWS", Content: "The tide tables for the week.", Confidence: 0.9, Type: segment.ArticleNews},
		},
	}

	if err := WriteArtifacts(h, res.JobID, res); err != nil {
		t.Fatalf("WriteArtifacts() error = %v", err)
	}

	dir := h.JobDir(res.JobID)

	text, err := os.ReadFile(filepath.Join(dir, TextArtifact))
	if err != nil {
		t.Fatalf("reading text artifact: %v", err)
	}
	if string(text) != res.PlainText {
		t.Errorf("text artifact = %q, want %q", text, res.PlainText)
	}

	markup, err := os.ReadFile(filepath.Join(dir, MarkupArtifact))
	if err != nil {
		t.Fatalf("reading markup artifact: %v", err)
	}
	if string(markup) != res.PositionalMarkup {
		t.Errorf("markup artifact = %q, want %q", markup, res.PositionalMarkup)
	}

	regionsData, err := os.ReadFile(filepath.Join(dir, RegionsArtifact))
	if err != nil {
		t.Fatalf("reading regions artifact: %v", err)
	}
	var regions []layout.TextRegion
	if err := json.Unmarshal(regionsData, &regions); err != nil {
		t.Fatalf("decoding regions artifact: %v", err)
	}
	if len(regions) != 1 || regions[0].Text != "HARBOR NEWS" || regions[0].Type != layout.RegionTitle {
		t.Errorf("regions artifact = %+v, want the title region back", regions)
	}

	articlesData, err := os.ReadFile(filepath.Join(dir, ArticlesArtifact))
	if err != nil {
		t.Fatalf("reading articles artifact: %v", err)
	}
	var articles []segment.Article
	if err := json.Unmarshal(articlesData, &articles); err != nil {
		t.Fatalf("decoding articles artifact: %v", err)
	}
	if len(articles) != 1 || articles[0].Title != "HARBOR NEWS" {
		t.Errorf("articles artifact = %+v, want the article back", articles)
	}
}

// TestWriteArtifacts_CreatesJobDir tests that the job directory is created
// on demand.
func TestWriteArtifacts_CreatesJobDir(t *testing.T) {
	h, err := home.New(t.TempDir())
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	res := &Result{JobID: "fresh-job", PlainText: "text"}
	if err := WriteArtifacts(h, res.JobID, res); err != nil {
		t.Fatalf("WriteArtifacts() error = %v", err)
	}

	if _, err := os.Stat(h.JobDir(res.JobID)); err != nil {
		t.Errorf("job dir not created: %v", err)
	}
}
