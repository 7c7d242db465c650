package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/api"
	"github.com/broadsheet-archive/broadsheet/internal/queue"
	"github.com/broadsheet-archive/broadsheet/internal/svcctx"
)

// QueueStatsEndpoint handles GET /api/queue/stats.
type QueueStatsEndpoint struct{}

func (e *QueueStatsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/queue/stats", e.handler
}

func (e *QueueStatsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Queue statistics
//	@Description	Per-status job counts for the processing queue
//	@Tags			queue
//	@Produce		json
//	@Success		200	{object}	queue.Stats
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/queue/stats [get]
func (e *QueueStatsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	coord := svcctx.CoordinatorFrom(r.Context())
	if coord == nil {
		writeError(w, http.StatusServiceUnavailable, "coordinator not initialized")
		return
	}

	writeJSON(w, http.StatusOK, coord.QueueStats())
}

func (e *QueueStatsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := api.NewClient(getServerURL())
			var resp queue.Stats
			if err := client.Get(ctx, "/api/queue/stats", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
