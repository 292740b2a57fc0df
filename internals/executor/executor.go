// Package executor drives the steps of an approved plan, one at a time and
// strictly in order, applying file side effects to the task workspace and
// checkpointing progress for crash recovery.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/victorvelazquez/dev-orchestrator/internals/agents"
	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
	"github.com/victorvelazquez/dev-orchestrator/internals/workspace"
)

// ErrNoPlan reports an executor invoked on a task without a generated plan.
// This is a contract violation of the calling flow, not a user error.
var ErrNoPlan = errors.New("task has no plan")

// Committer produces a version-control commit of a directory's current
// state. Satisfied by remote.Manager.
type Committer interface {
	Commit(ctx context.Context, repoPath string, message string) (string, error)
}

type Executor struct {
	runner      agents.StepRunner
	workspace   workspace.Host
	committer   Committer
	stepTimeout time.Duration
	logger      *slog.Logger
}

func New(runner agents.StepRunner, ws workspace.Host, committer Committer, stepTimeout time.Duration, logger *slog.Logger) *Executor {
	return &Executor{
		runner:      runner,
		workspace:   ws,
		committer:   committer,
		stepTimeout: stepTimeout,
		logger:      logger,
	}
}

// Run executes every step of the task's plan in ascending order, halting at
// the first failure. Prior successful steps are never rolled back; partial
// state is surfaced through CommitPartialWork. Steps are single attempts,
// never retried here.
func (e *Executor) Run(ctx context.Context, task *schemas.Task) (*schemas.ExecuteResult, error) {
	if task.Plan == nil {
		return nil, ErrNoPlan
	}

	logger := e.logger.With(slog.String("taskId", task.ID))
	logger.Info("Executing task", slog.Int("steps", len(task.Plan.Steps)))

	now := time.Now().UTC()
	task.StartedAt = &now
	task.TotalSteps = len(task.Plan.Steps)

	results := make([]schemas.StepResult, 0, task.TotalSteps)
	completed := 0
	for i, step := range task.Plan.Steps {
		task.CurrentStep = step.Seq
		e.checkpoint(task, logger)

		logger.Info("Executing step", slog.Int("step", step.Seq), slog.String("description", step.Description))

		result := e.executeStep(ctx, task, step, task.Plan.Steps[:i])
		results = append(results, result)

		if !result.Success {
			logger.Error("Step failed", slog.Int("step", step.Seq), slog.String("error", result.Error))
			break
		}
		completed++
	}

	done := time.Now().UTC()
	task.CompletedAt = &done

	return &schemas.ExecuteResult{
		Success:        completed == task.TotalSteps,
		StepsCompleted: completed,
		TotalSteps:     task.TotalSteps,
		Results:        results,
	}, nil
}

func (e *Executor) executeStep(ctx context.Context, task *schemas.Task, step schemas.Step, previous []schemas.Step) schemas.StepResult {
	stepCtx := agents.StepContext{
		TaskDescription: task.Description,
		RepoURL:         task.RepoURL,
		CurrentStep:     step,
		PreviousSteps:   previous,
	}

	callCtx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	raw, err := e.runner.ExecuteStep(callCtx, stepCtx)
	if err != nil {
		return schemas.StepResult{
			Step:    step.Seq,
			Success: false,
			Error:   fmt.Sprintf("step execution error: %v", err),
		}
	}

	result := ParseStepResult(raw)
	result.Step = step.Seq

	if result.Success {
		if err := e.applyChanges(task.ID, result); err != nil {
			return schemas.StepResult{
				Step:    step.Seq,
				Success: false,
				Error:   fmt.Sprintf("failed to apply changes: %v", err),
			}
		}
	}
	return result
}

// applyChanges writes the step's file effect into the task workspace. A
// result without a target path and content is informational; nothing to do.
func (e *Executor) applyChanges(taskID string, result schemas.StepResult) error {
	if result.FilePath == "" {
		return nil
	}
	if result.Action == schemas.StepActionDelete {
		return e.workspace.ApplyDelete(taskID, result.FilePath)
	}
	if result.Content == "" {
		return nil
	}
	return e.workspace.ApplyWrite(taskID, result.FilePath, result.Content)
}

// checkpoint persists the recovery snapshot. A checkpoint write failure never
// fails the step; the primary store record stays authoritative.
func (e *Executor) checkpoint(task *schemas.Task, logger *slog.Logger) {
	now := time.Now().UTC()
	checkpoint := schemas.Checkpoint{
		TaskID:      task.ID,
		Timestamp:   now.Format(time.RFC3339),
		CurrentStep: task.CurrentStep,
		Status:      task.Status,
	}
	if err := e.workspace.WriteCheckpoint(checkpoint); err != nil {
		logger.Error("Failed to write checkpoint", slog.String("error", err.Error()))
		return
	}
	task.LastCheckpointAt = &now
	task.Checkpoint = &checkpoint
}

// CommitPartialWork makes a best-effort WIP commit of whatever the task has
// produced so far. A missing workspace is a no-op, never an error.
func (e *Executor) CommitPartialWork(ctx context.Context, task *schemas.Task) (string, error) {
	if e.committer == nil || !e.workspace.Exists(task.ID) {
		return "", nil
	}
	message := fmt.Sprintf("WIP: partial work from task %s", task.ID)
	sha, err := e.committer.Commit(ctx, e.workspace.TaskDir(task.ID), message)
	if err != nil {
		return "", fmt.Errorf("partial commit failed: %w", err)
	}
	e.logger.Info("Committed partial work", slog.String("taskId", task.ID), slog.String("sha", sha))
	return sha, nil
}
