package ingest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/press"
)

//go:embed manifest_schema.json
var manifestSchemaJSON []byte

// Manifest describes an ingested issue on disk. It is the contract between
// ingestion and processing: anything writing page images into the home
// layout by hand produces the same file.
type Manifest struct {
	IssueID       string         `json:"issue_id"`
	PublicationID string         `json:"publication_id,omitempty"`
	Title         string         `json:"title"`
	Date          string         `json:"date,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	PageCount     int            `json:"page_count"`
	Pages         []ManifestPage `json:"pages"`
}

// ManifestPage names one rendered page image within the issue directory.
type ManifestPage struct {
	Number int    `json:"number"` // 1-indexed page number
	Image  string `json:"image"`  // file name relative to the issue directory
}

// ValidateManifest checks raw manifest JSON against the manifest schema.
func ValidateManifest(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manifest_schema.json", bytes.NewReader(manifestSchemaJSON)); err != nil {
		return fmt.Errorf("failed to load manifest schema: %w", err)
	}
	schema, err := compiler.Compile("manifest_schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile manifest schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("manifest is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("manifest does not match schema: %w", err)
	}
	return nil
}

// WriteManifest validates and writes the issue manifest.
func WriteManifest(homeDir *home.Dir, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := ValidateManifest(data); err != nil {
		return err
	}
	if err := os.WriteFile(homeDir.IssueManifestPath(m.IssueID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads and validates the manifest of an ingested issue.
func LoadManifest(homeDir *home.Dir, issueID string) (*Manifest, error) {
	data, err := os.ReadFile(homeDir.IssueManifestPath(issueID))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	if err := ValidateManifest(data); err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}

// Issue converts the manifest into an Issue with absolute page image paths,
// ready for bulk admission.
func (m *Manifest) Issue(homeDir *home.Dir) *press.Issue {
	issue := &press.Issue{
		ID:            m.IssueID,
		PublicationID: m.PublicationID,
		Title:         m.Title,
		Date:          m.Date,
		PageCount:     m.PageCount,
	}
	for _, p := range m.Pages {
		issue.Pages = append(issue.Pages, press.Page{
			ID:            fmt.Sprintf("%s-p%04d", m.IssueID, p.Number),
			IssueID:       m.IssueID,
			PublicationID: m.PublicationID,
			Number:        p.Number,
			ImagePath:     filepath.Join(homeDir.IssueDir(m.IssueID), p.Image),
		})
	}
	return issue
}
