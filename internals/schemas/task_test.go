package schemas

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTerminalStatusesHaveNoOutboundTransitions(t *testing.T) {
	all := []TaskStatus{
		TaskStatusPending, TaskStatusPendingApproval, TaskStatusApproved,
		TaskStatusInProgress, TaskStatusPaused, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusAborted,
	}
	for _, terminal := range []TaskStatus{TaskStatusCompleted, TaskStatusFailed, TaskStatusAborted} {
		if !terminal.IsTerminal() {
			t.Fatalf("expected %s to be terminal", terminal)
		}
		for _, next := range all {
			if terminal.CanTransitionTo(next) {
				t.Fatalf("terminal status %s allows transition to %s", terminal, next)
			}
		}
	}
}

func TestAbortReachableFromEveryNonTerminalStatus(t *testing.T) {
	for _, status := range []TaskStatus{
		TaskStatusPending, TaskStatusPendingApproval, TaskStatusApproved,
		TaskStatusInProgress, TaskStatusPaused,
	} {
		if !status.CanTransitionTo(TaskStatusAborted) {
			t.Fatalf("expected abort to be reachable from %s", status)
		}
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	path := []TaskStatus{
		TaskStatusPending, TaskStatusPendingApproval, TaskStatusApproved,
		TaskStatusInProgress, TaskStatusCompleted,
	}
	for i := 0; i < len(path)-1; i++ {
		if !path[i].CanTransitionTo(path[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
	if TaskStatusPendingApproval.CanTransitionTo(TaskStatusInProgress) {
		t.Fatalf("pending_approval must not skip approval")
	}
}

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask(7, 9, "add validation", "github.com/acme/app")
	if !strings.HasPrefix(task.ID, "task-") || len(task.ID) != len("task-")+8 {
		t.Fatalf("unexpected task id %q", task.ID)
	}
	if task.Status != TaskStatusPending {
		t.Fatalf("expected pending, got %s", task.Status)
	}
	if task.CreatedAt.IsZero() || !task.UpdatedAt.Equal(task.CreatedAt) {
		t.Fatalf("unexpected timestamps %v %v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestSummaryTruncatesDescription(t *testing.T) {
	task := NewTask(1, 1, strings.Repeat("x", 80), "github.com/acme/app")
	task.CurrentStep = 2
	task.TotalSteps = 3

	summary := task.Summary()
	if len(summary.Description) != summaryDescriptionLen+3 {
		t.Fatalf("unexpected description length %d", len(summary.Description))
	}
	if !strings.HasSuffix(summary.Description, "...") {
		t.Fatalf("expected truncated description, got %q", summary.Description)
	}
	if summary.Progress != "2/3" {
		t.Fatalf("expected progress 2/3, got %q", summary.Progress)
	}
}

func TestSummaryTruncatesMultiByteDescription(t *testing.T) {
	task := NewTask(1, 1, strings.Repeat("ü", 80), "github.com/acme/app")

	summary := task.Summary()
	if !utf8.ValidString(summary.Description) {
		t.Fatalf("truncated description is not valid UTF-8: %q", summary.Description)
	}
	if got := utf8.RuneCountInString(summary.Description); got != summaryDescriptionLen+3 {
		t.Fatalf("unexpected rune count %d", got)
	}
	if !strings.HasSuffix(summary.Description, "...") {
		t.Fatalf("expected truncated description, got %q", summary.Description)
	}
}

func TestSummaryWithoutPlan(t *testing.T) {
	task := NewTask(1, 1, "short", "github.com/acme/app")
	summary := task.Summary()
	if summary.Progress != "N/A" {
		t.Fatalf("expected N/A progress, got %q", summary.Progress)
	}
	if _, err := time.Parse(time.RFC3339, summary.CreatedAt); err != nil {
		t.Fatalf("created_at not RFC3339: %v", err)
	}
}
