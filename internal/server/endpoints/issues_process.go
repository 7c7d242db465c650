package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/api"
	"github.com/broadsheet-archive/broadsheet/internal/ingest"
	"github.com/broadsheet-archive/broadsheet/internal/press"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
	"github.com/broadsheet-archive/broadsheet/internal/svcctx"
)

// ProcessIssueRequest is the optional request body for bulk issue admission.
type ProcessIssueRequest struct {
	Priority string                  `json:"priority,omitempty"`
	Config   *press.ProcessingConfig `json:"config,omitempty"`
}

// ProcessIssueResponse reports the jobs admitted for an issue.
type ProcessIssueResponse struct {
	IssueID string   `json:"issue_id"`
	JobIDs  []string `json:"job_ids"`
	Queued  int      `json:"queued"`
}

// ProcessIssueEndpoint handles POST /api/issues/{id}/process.
type ProcessIssueEndpoint struct{}

func (e *ProcessIssueEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/issues/{id}/process", e.handler
}

func (e *ProcessIssueEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Process an ingested issue
//	@Description	Queue every page of an ingested issue for processing. Pages with a live job are skipped, so resubmitting is safe. Bulk admissions default to low priority.
//	@Tags			issues
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Issue ID"
//	@Param			request	body		ProcessIssueRequest	false	"Admission options"
//	@Success		200		{object}	ProcessIssueResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/issues/{id}/process [post]
func (e *ProcessIssueEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "issue id is required")
		return
	}

	var req ProcessIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	prio := queue.PriorityLow
	if req.Priority != "" {
		p, err := queue.ParsePriority(req.Priority)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		prio = p
	}

	if req.Config != nil {
		if err := req.Config.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	coord := svcctx.CoordinatorFrom(r.Context())
	homeDir := svcctx.HomeFrom(r.Context())
	if coord == nil || homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "coordinator not initialized")
		return
	}

	manifest, err := ingest.LoadManifest(homeDir, id)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "issue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	ids, err := coord.EnqueueIssue(manifest.Issue(homeDir), req.Config, &prio)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ProcessIssueResponse{
		IssueID: id,
		JobIDs:  ids,
		Queued:  len(ids),
	})
}

func (e *ProcessIssueEndpoint) Command(getServerURL func() string) *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "process <issue-id>",
		Short: "Queue every page of an ingested issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if priority != "" {
				if _, err := queue.ParsePriority(priority); err != nil {
					return fmt.Errorf("invalid --priority: %w", err)
				}
			}
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp ProcessIssueResponse
			req := ProcessIssueRequest{Priority: priority}
			if err := client.Post(ctx, "/api/issues/"+args[0]+"/process", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&priority, "priority", "", "Job priority (defaults to low for bulk admission)")
	return cmd
}
