// Package agents holds the model-backed collaborators the orchestrator
// consumes: intent classification, plan generation and per-step execution.
// Each collaborator is an interface so tests can substitute fakes; the
// concrete implementations talk to Anthropic and Google models.
package agents

import (
	"context"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

type Classifier interface {
	// Classify maps free-text input to an intent. It never fails on
	// malformed model output; it degrades to a clarification request.
	Classify(ctx context.Context, message string) schemas.IntentResult
}

type Planner interface {
	// GeneratePlan turns a task description into an executable plan.
	// Returns a *PlanFormatError when the model output is structurally
	// invalid; the caller cannot recover without regenerating.
	GeneratePlan(ctx context.Context, description, repoURL string, extra map[string]string) (*schemas.Plan, error)
}

// StepContext is the bounded context handed to the execution collaborator:
// the task, the current step and only the steps already completed. Future
// steps are withheld.
type StepContext struct {
	TaskDescription string         `json:"task_description"`
	RepoURL         string         `json:"repo_url"`
	CurrentStep     schemas.Step   `json:"current_step"`
	PreviousSteps   []schemas.Step `json:"previous_steps"`
}

type StepRunner interface {
	// ExecuteStep produces the raw model output for one step. The executor
	// owns parsing; a transport error is returned as err.
	ExecuteStep(ctx context.Context, stepCtx StepContext) (string, error)
}
