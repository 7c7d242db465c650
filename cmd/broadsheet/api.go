package main

import (
	"github.com/spf13/cobra"

	"github.com/broadsheet-archive/broadsheet/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running broadsheet server via HTTP.

These commands require a running server (broadsheet serve).
Use --server to specify a custom server URL.

Examples:
  broadsheet api health              # Check server health
  broadsheet api jobs list           # List queued and finished jobs
  broadsheet api jobs get <id>       # Get a specific job`,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Job management commands",
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Queue inspection commands",
}

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Issue processing commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8480", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))

	// Jobs as subcommand group
	jobsCmd.AddCommand((&endpoints.SubmitJobEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.ListJobsEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.GetJobEndpoint{}).Command(getServerURL))
	jobsCmd.AddCommand((&endpoints.CancelJobEndpoint{}).Command(getServerURL))

	// Queue as subcommand group
	queueCmd.AddCommand((&endpoints.QueueStatsEndpoint{}).Command(getServerURL))

	// Issues as subcommand group
	issuesCmd.AddCommand((&endpoints.ProcessIssueEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(jobsCmd)
	apiCmd.AddCommand(queueCmd)
	apiCmd.AddCommand(issuesCmd)
	rootCmd.AddCommand(apiCmd)
}
