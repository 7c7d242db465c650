package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the broadsheet home directory.
	DefaultDirName = ".broadsheet"

	// DataDirName is the subdirectory holding per-job processing output.
	DataDirName = "data"

	// SpoolDirName is the drop directory watched for freshly scanned
	// page images.
	SpoolDirName = "spool"

	// IssuesDirName holds ingested issue page images and manifests.
	IssuesDirName = "issues"

	// QueueFileName is the queue snapshot used for restart recovery.
	QueueFileName = "queue.json"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the broadsheet home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.broadsheet).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the per-job output directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// SpoolPath returns the watched drop directory for incoming page images.
func (d *Dir) SpoolPath() string {
	return filepath.Join(d.path, SpoolDirName)
}

// SpoolAcceptedPath returns the directory admitted spool files are moved
// to, keeping the watched directory an inbox of unprocessed drops.
func (d *Dir) SpoolAcceptedPath() string {
	return filepath.Join(d.SpoolPath(), "accepted")
}

// IssuesPath returns the directory holding ingested issues.
func (d *Dir) IssuesPath() string {
	return filepath.Join(d.path, IssuesDirName)
}

// QueueStatePath returns the path of the queue snapshot file.
func (d *Dir) QueueStatePath() string {
	return filepath.Join(d.path, QueueFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, p := range []string{d.DataPath(), d.SpoolPath(), d.IssuesPath()} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// JobDir returns the artifact directory for one processing job.
func (d *Dir) JobDir(jobID string) string {
	return filepath.Join(d.DataPath(), jobID)
}

// EnsureJobDir creates the artifact directory for a job.
func (d *Dir) EnsureJobDir(jobID string) error {
	return os.MkdirAll(d.JobDir(jobID), 0o755)
}

// IssueDir returns the directory for one ingested issue.
func (d *Dir) IssueDir(issueID string) string {
	return filepath.Join(d.IssuesPath(), issueID)
}

// IssuePagePath returns the path of a rendered page image within an issue.
// Page numbers are 1-indexed.
func (d *Dir) IssuePagePath(issueID string, pageNum int) string {
	return filepath.Join(d.IssueDir(issueID), fmt.Sprintf("page_%04d.png", pageNum))
}

// IssuePagePaths returns paths for all pages of an issue.
func (d *Dir) IssuePagePaths(issueID string, pageCount int) []string {
	paths := make([]string, pageCount)
	for i := 1; i <= pageCount; i++ {
		paths[i-1] = d.IssuePagePath(issueID, i)
	}
	return paths
}

// IssueManifestPath returns the manifest path of an ingested issue.
func (d *Dir) IssueManifestPath(issueID string) string {
	return filepath.Join(d.IssueDir(issueID), "manifest.json")
}

// EnsureIssueDir creates the directory for an ingested issue.
func (d *Dir) EnsureIssueDir(issueID string) error {
	return os.MkdirAll(d.IssueDir(issueID), 0o755)
}

// OriginalsDir returns the directory for original source files of an issue.
func (d *Dir) OriginalsDir(issueID string) string {
	return filepath.Join(d.IssueDir(issueID), "originals")
}

// EnsureOriginalsDir creates the originals directory for an issue.
func (d *Dir) EnsureOriginalsDir(issueID string) error {
	return os.MkdirAll(d.OriginalsDir(issueID), 0o755)
}
