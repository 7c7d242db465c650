package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/api"
	"github.com/broadsheet-archive/broadsheet/internal/pipeline"
	"github.com/broadsheet-archive/broadsheet/internal/press"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
	"github.com/broadsheet-archive/broadsheet/internal/svcctx"
)

// SubmitJobRequest is the request body for submitting a page job.
type SubmitJobRequest struct {
	PageID        string                  `json:"page_id,omitempty"`
	IssueID       string                  `json:"issue_id,omitempty"`
	PublicationID string                  `json:"publication_id,omitempty"`
	SourcePath    string                  `json:"source_path"`
	Priority      string                  `json:"priority,omitempty"`
	Config        *press.ProcessingConfig `json:"config,omitempty"`
	Metadata      map[string]string       `json:"metadata,omitempty"`
}

// SubmitJobResponse is the response for submitting a job.
type SubmitJobResponse struct {
	ID string `json:"id"`
}

// SubmitJobEndpoint handles POST /api/jobs.
type SubmitJobEndpoint struct{}

func (e *SubmitJobEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/jobs", e.handler
}

func (e *SubmitJobEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Submit a page job
//	@Description	Queue a page image for OCR processing
//	@Tags			jobs
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SubmitJobRequest	true	"Job submission request"
//	@Success		201		{object}	SubmitJobResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/jobs [post]
func (e *SubmitJobEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SourcePath == "" {
		writeError(w, http.StatusBadRequest, "source_path is required")
		return
	}

	var prio *queue.Priority
	if req.Priority != "" {
		p, err := queue.ParsePriority(req.Priority)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		prio = &p
	}

	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	coord := svcctx.CoordinatorFrom(r.Context())
	if coord == nil {
		writeError(w, http.StatusServiceUnavailable, "coordinator not initialized")
		return
	}

	id, err := coord.Enqueue(pipeline.EnqueueRequest{
		PageID:        req.PageID,
		IssueID:       req.IssueID,
		PublicationID: req.PublicationID,
		SourcePath:    req.SourcePath,
		Config:        req.Config,
		Priority:      prio,
		Metadata:      req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueFull):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, queue.ErrDuplicateJob):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, SubmitJobResponse{ID: id})
}

func (e *SubmitJobEndpoint) Command(getServerURL func() string) *cobra.Command {
	var pageID, issueID, pubID, priority string
	cmd := &cobra.Command{
		Use:   "submit <image>",
		Short: "Submit a page image for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if priority != "" {
				if _, err := queue.ParsePriority(priority); err != nil {
					return fmt.Errorf("invalid --priority: %w", err)
				}
			}
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp SubmitJobResponse
			req := SubmitJobRequest{
				PageID:        pageID,
				IssueID:       issueID,
				PublicationID: pubID,
				SourcePath:    args[0],
				Priority:      priority,
			}
			if err := client.Post(ctx, "/api/jobs", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&pageID, "page-id", "", "Page identifier")
	cmd.Flags().StringVar(&issueID, "issue-id", "", "Issue the page belongs to")
	cmd.Flags().StringVar(&pubID, "publication-id", "", "Publication the page belongs to")
	cmd.Flags().StringVar(&priority, "priority", "", "Job priority (critical|high|normal|low|background)")
	return cmd
}
