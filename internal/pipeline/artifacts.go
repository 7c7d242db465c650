package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/broadsheet-archive/broadsheet/internal/home"
)

// Artifact file names under a job's data directory.
const (
	TextArtifact     = "text.txt"
	MarkupArtifact   = "page.hocr"
	RegionsArtifact  = "regions.json"
	ArticlesArtifact = "articles.json"
)

// WriteArtifacts persists a successful result's recognized text, positional
// markup, region list and article list under the job's directory.
func WriteArtifacts(h *home.Dir, jobID string, res *Result) error {
	if err := h.EnsureJobDir(jobID); err != nil {
		return fmt.Errorf("creating job dir: %w", err)
	}
	dir := h.JobDir(jobID)

	if err := os.WriteFile(filepath.Join(dir, TextArtifact), []byte(res.PlainText), 0644); err != nil {
		return fmt.Errorf("writing text artifact: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkupArtifact), []byte(res.PositionalMarkup), 0644); err != nil {
		return fmt.Errorf("writing markup artifact: %w", err)
	}

	regions, err := json.MarshalIndent(res.Regions, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding regions: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, RegionsArtifact), regions, 0644); err != nil {
		return fmt.Errorf("writing regions artifact: %w", err)
	}

	articles, err := json.MarshalIndent(res.Articles, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding articles: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ArticlesArtifact), articles, 0644); err != nil {
		return fmt.Errorf("writing articles artifact: %w", err)
	}
	return nil
}
