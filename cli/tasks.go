package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
	"github.com/victorvelazquez/dev-orchestrator/internals/timeouts"
	"github.com/victorvelazquez/dev-orchestrator/sdk"
)

var newCmd = &cobra.Command{
	Use:   "new [description...]",
	Short: "Describe a development task and get a plan",
	Long: `Sends a free-text task description to the daemon. Include the target
repository, e.g.:

  orch new "Add input validation to user_service.py, repo github.com/acme/app"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNew,
}

var approveCmd = &cobra.Command{
	Use:   "approve [task-id]",
	Short: "Approve a pending plan and execute it",
	Args:  cobra.ExactArgs(1),
	RunE:  runApprove,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your tasks, most recent first",
	RunE:    runList,
}

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show one task's full state",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Abort your active task",
	RunE:  runAbort,
}

// longRequestClient has no client-side timeout; approval blocks for the full
// run and the daemon bounds each step itself.
func longRequestClient() *http.Client {
	return &http.Client{}
}

func runNew(cmd *cobra.Command, args []string) error {
	client := sdk.NewClient()
	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Event)
	defer cancel()

	decision, err := client.SendEvent(ctx, schemas.EventRequest{
		UserID:  flagUser,
		ChatID:  flagChat,
		Message: strings.Join(args, " "),
	})
	if err != nil {
		return err
	}
	renderDecision(decision)
	return nil
}

func runApprove(cmd *cobra.Command, args []string) error {
	// Execution is synchronous; give it room well past the step timeout.
	client := sdk.NewClient(sdk.WithHTTPClient(longRequestClient()))
	decision, err := client.Approve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	renderDecision(decision)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	client := sdk.NewClient()
	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Request)
	defer cancel()

	summaries, err := client.ListTasks(ctx, flagUser)
	if err != nil {
		return err
	}
	renderSummaries(summaries)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := sdk.NewClient()
	ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Request)
	defer cancel()

	task, err := client.GetTask(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", styleTaskID.Render(task.ID), statusStyle(task.Status).Render(string(task.Status)))
	fmt.Printf("  %s %s\n", styleLabel.Render("Repo:    "), styleValue.Render(task.RepoURL))
	fmt.Printf("  %s %s\n", styleLabel.Render("Created: "), styleValue.Render(task.CreatedAt.Format(time.RFC3339)))
	if task.TotalSteps > 0 {
		fmt.Printf("  %s %d/%d\n", styleLabel.Render("Progress:"), task.CurrentStep, task.TotalSteps)
	}
	if task.Error != "" {
		fmt.Printf("  %s %s\n", styleLabel.Render("Error:   "), styleFailure.Render(task.Error))
	}
	renderPlan(task.Plan)
	renderResult(task.Result)
	return nil
}

func runAbort(cmd *cobra.Command, args []string) error {
	client := sdk.NewClient()
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	decision, err := client.Abort(ctx, schemas.AbortRequest{UserID: flagUser})
	if err != nil {
		return err
	}
	renderDecision(decision)
	return nil
}
