// Package orchestrator owns the task lifecycle. It is the only component
// allowed to change a task's status; the executor reports results and the
// orchestrator applies the matching transition.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/victorvelazquez/dev-orchestrator/internals/agents"
	"github.com/victorvelazquez/dev-orchestrator/internals/conf"
	"github.com/victorvelazquez/dev-orchestrator/internals/naming"
	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

var (
	ErrNotFound     = errors.New("task not found")
	ErrInvalidState = errors.New("task is in an invalid state for this operation")
)

// Store is the persistence gateway contract. Satisfied by *taskstore.Store.
type Store interface {
	Save(ctx context.Context, task *schemas.Task) error
	Update(ctx context.Context, task *schemas.Task) error
	Get(ctx context.Context, id string) (*schemas.Task, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]schemas.TaskSummary, error)
	GetActiveForUser(ctx context.Context, userID int64) (*schemas.Task, error)
}

// Runner drives plan execution. Satisfied by *executor.Executor.
type Runner interface {
	Run(ctx context.Context, task *schemas.Task) (*schemas.ExecuteResult, error)
	CommitPartialWork(ctx context.Context, task *schemas.Task) (string, error)
}

// Orchestrator is constructed with all collaborators up front. No lazy
// initialization, no package globals.
type Orchestrator struct {
	store      Store
	classifier agents.Classifier
	planner    agents.Planner
	runner     Runner
	cfg        *conf.Config
	logger     *slog.Logger

	mu sync.Mutex
	// Clarification rounds are tracked per user because no task record
	// exists yet while the repository reference is still being collected.
	clarifications map[int64]int
}

func New(store Store, classifier agents.Classifier, planner agents.Planner, runner Runner, cfg *conf.Config, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:          store,
		classifier:     classifier,
		planner:        planner,
		runner:         runner,
		cfg:            cfg,
		logger:         logger,
		clarifications: make(map[int64]int),
	}
}

// HandleEvent is the single entry point for free-text input. Every intent
// variant has its own case; an unrecognized label degrades to a clarification
// request, never a crash.
func (o *Orchestrator) HandleEvent(ctx context.Context, req schemas.EventRequest) (*schemas.Decision, error) {
	intent := o.classifier.Classify(ctx, req.Message)

	o.logger.Info("Classified event",
		slog.Int64("userId", req.UserID),
		slog.String("intent", string(intent.Intent)),
		slog.Float64("confidence", intent.Confidence))

	switch intent.Intent {
	case schemas.IntentQuery:
		return o.handleQuery(intent), nil
	case schemas.IntentTaskNew:
		return o.handleNewTask(ctx, req, intent)
	case schemas.IntentContinue:
		return o.handleContinue(ctx, req.UserID)
	case schemas.IntentTaskList:
		summaries, err := o.ListTasks(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		return &schemas.Decision{Action: schemas.DecisionList, Tasks: summaries}, nil
	case schemas.IntentAbort:
		return o.Abort(ctx, req.UserID)
	default:
		o.logger.Warn("Unhandled intent label", slog.String("intent", string(intent.Intent)))
		return &schemas.Decision{
			Action:  schemas.DecisionClarify,
			Message: "I didn't understand that. Describe a code change and name the repository it targets.",
		}, nil
	}
}

func (o *Orchestrator) handleQuery(intent schemas.IntentResult) *schemas.Decision {
	if intent.NeedsClarification {
		question := intent.ClarificationQuestion
		if question == "" {
			question = "Could you rephrase that? I handle development tasks against a repository."
		}
		return &schemas.Decision{Action: schemas.DecisionClarify, Message: question}
	}
	return &schemas.Decision{
		Action:  schemas.DecisionRespond,
		Message: "I coordinate development tasks. Describe a change and include a repository reference to get started.",
	}
}

func (o *Orchestrator) handleNewTask(ctx context.Context, req schemas.EventRequest, intent schemas.IntentResult) (*schemas.Decision, error) {
	active, err := o.store.GetActiveForUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return &schemas.Decision{
			Action:  schemas.DecisionRespond,
			TaskID:  active.ID,
			Message: fmt.Sprintf("Task %s is still active (%s). Abort it or wait for it to finish before starting another.", active.ID, active.Status),
		}, nil
	}

	// A plan is never generated without a repository reference.
	repo := intent.Repo()
	if repo == "" || intent.NeedsClarification {
		return o.requestClarification(req.UserID, intent), nil
	}

	plan, err := o.planner.GeneratePlan(ctx, req.Message, repo, intent.ExtractedInfo)
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	task := schemas.NewTask(req.UserID, req.ChatID, req.Message, repo)
	task.Branch = naming.TaskBranch(task.ID, task.Description)
	task.Plan = plan
	task.TotalSteps = len(plan.Steps)
	task.ClarificationRound = o.takeClarifications(req.UserID)
	if err := o.transition(task, schemas.TaskStatusPendingApproval); err != nil {
		return nil, err
	}
	if err := o.store.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist task: %w", err)
	}

	o.logger.Info("Created task",
		slog.String("taskId", task.ID),
		slog.Int64("userId", req.UserID),
		slog.Int("steps", task.TotalSteps))

	return &schemas.Decision{
		Action:  schemas.DecisionApprovePlan,
		TaskID:  task.ID,
		Plan:    plan,
		Message: fmt.Sprintf("Plan ready for %s: %d steps, estimated %s. Approve to start.", task.ID, task.TotalSteps, plan.Estimate),
	}, nil
}

func (o *Orchestrator) handleContinue(ctx context.Context, userID int64) (*schemas.Decision, error) {
	active, err := o.store.GetActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return &schemas.Decision{
			Action:  schemas.DecisionRespond,
			Message: "There is no active task. Describe a new change to start one.",
		}, nil
	}
	summary := active.Summary()
	return &schemas.Decision{
		Action:  schemas.DecisionRespond,
		TaskID:  active.ID,
		Message: fmt.Sprintf("Task %s is %s (step %s).", active.ID, active.Status, summary.Progress),
	}, nil
}

// Approve moves a task out of the approval gate and immediately executes it.
func (o *Orchestrator) Approve(ctx context.Context, taskID string) (*schemas.Decision, error) {
	task, err := o.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	if task.Status != schemas.TaskStatusPendingApproval {
		return nil, fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidState, taskID, task.Status, schemas.TaskStatusPendingApproval)
	}
	if err := o.transition(task, schemas.TaskStatusApproved); err != nil {
		return nil, err
	}
	if err := o.store.Update(ctx, task); err != nil {
		return nil, err
	}
	return o.Execute(ctx, taskID)
}

// Execute runs the task's plan to a terminal state. The executor reports the
// outcome; this is the only place COMPLETED and FAILED are assigned.
func (o *Orchestrator) Execute(ctx context.Context, taskID string) (*schemas.Decision, error) {
	task, err := o.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	if err := o.transition(task, schemas.TaskStatusInProgress); err != nil {
		return nil, err
	}
	if err := o.store.Update(ctx, task); err != nil {
		return nil, err
	}

	result, err := o.runner.Run(ctx, task)
	if err != nil {
		return o.finalizeFailure(ctx, task, nil, err.Error())
	}
	if result.Success {
		task.Result = result
		task.Error = ""
		if err := o.transition(task, schemas.TaskStatusCompleted); err != nil {
			return nil, err
		}
		if err := o.store.Update(ctx, task); err != nil {
			return nil, err
		}
		o.logger.Info("Task completed", slog.String("taskId", task.ID), slog.Int("steps", result.StepsCompleted))
		return &schemas.Decision{
			Action:  schemas.DecisionCompleted,
			TaskID:  task.ID,
			Result:  result,
			Message: fmt.Sprintf("Task %s completed: %d/%d steps.", task.ID, result.StepsCompleted, result.TotalSteps),
		}, nil
	}
	return o.finalizeFailure(ctx, task, result, failureMessage(result))
}

func (o *Orchestrator) finalizeFailure(ctx context.Context, task *schemas.Task, result *schemas.ExecuteResult, errMsg string) (*schemas.Decision, error) {
	task.Result = nil
	task.Error = errMsg
	if err := o.transition(task, schemas.TaskStatusFailed); err != nil {
		return nil, err
	}
	if err := o.store.Update(ctx, task); err != nil {
		return nil, err
	}

	if _, err := o.runner.CommitPartialWork(ctx, task); err != nil {
		o.logger.Error("Partial commit failed", slog.String("taskId", task.ID), slog.String("error", err.Error()))
	}

	o.logger.Error("Task failed", slog.String("taskId", task.ID), slog.String("error", errMsg))
	return &schemas.Decision{
		Action:  schemas.DecisionFailed,
		TaskID:  task.ID,
		Result:  result,
		Error:   errMsg,
		Message: fmt.Sprintf("Task %s failed: %s", task.ID, errMsg),
	}, nil
}

// GetTask returns the task record, or ErrNotFound.
func (o *Orchestrator) GetTask(ctx context.Context, taskID string) (*schemas.Task, error) {
	task, err := o.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, taskID)
	}
	return task, nil
}

func (o *Orchestrator) ListTasks(ctx context.Context, userID int64) ([]schemas.TaskSummary, error) {
	return o.store.ListForUser(ctx, userID, o.cfg.Tasks.ListPageSize)
}

// Abort cancels the user's active task, committing partial work when any
// step has started. Aborting with nothing active is a no-op, not an error.
func (o *Orchestrator) Abort(ctx context.Context, userID int64) (*schemas.Decision, error) {
	task, err := o.store.GetActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return &schemas.Decision{
			Action:  schemas.DecisionRespond,
			Message: "No active task to abort.",
		}, nil
	}

	if task.CurrentStep > 0 {
		if _, err := o.runner.CommitPartialWork(ctx, task); err != nil {
			o.logger.Error("Partial commit failed", slog.String("taskId", task.ID), slog.String("error", err.Error()))
		}
	}

	if err := o.transition(task, schemas.TaskStatusAborted); err != nil {
		return nil, err
	}
	if err := o.store.Update(ctx, task); err != nil {
		return nil, err
	}

	o.logger.Info("Aborted task", slog.String("taskId", task.ID), slog.Int64("userId", userID))
	return &schemas.Decision{
		Action:  schemas.DecisionRespond,
		TaskID:  task.ID,
		Message: fmt.Sprintf("Aborted task %s.", task.ID),
	}, nil
}

func (o *Orchestrator) requestClarification(userID int64, intent schemas.IntentResult) *schemas.Decision {
	o.mu.Lock()
	o.clarifications[userID]++
	round := o.clarifications[userID]
	o.mu.Unlock()

	if round > o.cfg.Tasks.MaxClarificationRounds {
		o.resetClarifications(userID)
		return &schemas.Decision{
			Action:  schemas.DecisionCannotProceed,
			Message: "Too many clarification rounds without a repository reference. Start over with the repository included, e.g. \"add tests to pkg/x in github.com/acme/app\".",
		}
	}

	question := intent.ClarificationQuestion
	if question == "" {
		question = "Which repository should this change target?"
	}
	return &schemas.Decision{Action: schemas.DecisionClarify, Message: question}
}

func (o *Orchestrator) resetClarifications(userID int64) {
	o.mu.Lock()
	delete(o.clarifications, userID)
	o.mu.Unlock()
}

// takeClarifications returns the rounds consumed before the task could be
// created and resets the counter. The count is recorded on the task record.
func (o *Orchestrator) takeClarifications(userID int64) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	rounds := o.clarifications[userID]
	delete(o.clarifications, userID)
	return rounds
}

func (o *Orchestrator) transition(task *schemas.Task, to schemas.TaskStatus) error {
	if !task.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: cannot move %s from %s to %s", ErrInvalidState, task.ID, task.Status, to)
	}
	task.Status = to
	now := time.Now().UTC()
	task.UpdatedAt = now
	if to.IsTerminal() && task.CompletedAt == nil {
		task.CompletedAt = &now
	}
	return nil
}

func failureMessage(result *schemas.ExecuteResult) string {
	for i := len(result.Results) - 1; i >= 0; i-- {
		if !result.Results[i].Success && result.Results[i].Error != "" {
			return result.Results[i].Error
		}
	}
	return "execution halted without detail"
}
