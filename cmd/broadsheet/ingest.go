package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/api"
	"github.com/broadsheet-archive/broadsheet/internal/home"
	"github.com/broadsheet-archive/broadsheet/internal/ingest"
	"github.com/broadsheet-archive/broadsheet/internal/server/endpoints"
)

var (
	ingestTitle   string
	ingestDate    string
	ingestPubID   string
	ingestEnqueue bool
	ingestServer  string
)

// ingestOutput is the structured result of an ingest run.
type ingestOutput struct {
	IssueID   string   `json:"issue_id" yaml:"issue_id"`
	Title     string   `json:"title" yaml:"title"`
	Date      string   `json:"date,omitempty" yaml:"date,omitempty"`
	PageCount int      `json:"page_count" yaml:"page_count"`
	Queued    int      `json:"queued,omitempty" yaml:"queued,omitempty"`
	JobIDs    []string `json:"job_ids,omitempty" yaml:"job_ids,omitempty"`
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <issue.pdf> [issue-2.pdf ...]",
	Short: "Ingest scanned issue PDFs into the archive",
	Long: `Render every page of the given issue PDFs to images under the home
directory and write the issue manifest. Multi-part scans are ordered by
the numeric suffix in their filenames.

Rendering requires poppler (pdftoppm) on PATH.

Examples:
  broadsheet ingest tribune-1895-03-02.pdf
  broadsheet ingest scan-1.pdf scan-2.pdf --title "The Daily Tribune"
  broadsheet ingest tribune.pdf --enqueue    # Queue all pages afterwards`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		res, err := ingest.Ingest(ctx, h, ingest.Request{
			PDFPaths:      args,
			Title:         ingestTitle,
			Date:          ingestDate,
			PublicationID: ingestPubID,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		out := ingestOutput{
			IssueID:   res.IssueID,
			Title:     res.Title,
			Date:      res.Date,
			PageCount: res.PageCount,
		}

		if ingestEnqueue {
			client := api.NewClient(ingestServer)
			var resp endpoints.ProcessIssueResponse
			if err := client.Post(ctx, "/api/issues/"+res.IssueID+"/process", endpoints.ProcessIssueRequest{}, &resp); err != nil {
				return err
			}
			out.Queued = resp.Queued
			out.JobIDs = resp.JobIDs
		}

		return api.Output(out)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "issue title (default derived from filename)")
	ingestCmd.Flags().StringVar(&ingestDate, "date", "", "publication date, e.g. 1895-03-02")
	ingestCmd.Flags().StringVar(&ingestPubID, "publication-id", "", "owning publication ID")
	ingestCmd.Flags().BoolVar(&ingestEnqueue, "enqueue", false, "queue all pages for processing via the running server")
	ingestCmd.Flags().StringVar(&ingestServer, "server", "http://localhost:8480", "Server URL for --enqueue")

	rootCmd.AddCommand(ingestCmd)
}
