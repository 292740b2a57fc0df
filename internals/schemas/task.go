package schemas

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "pending"
	TaskStatusPendingApproval TaskStatus = "pending_approval"
	TaskStatusApproved        TaskStatus = "approved"
	TaskStatusInProgress      TaskStatus = "in_progress"
	TaskStatusPaused          TaskStatus = "paused"
	TaskStatusCompleted       TaskStatus = "completed"
	TaskStatusFailed          TaskStatus = "failed"
	TaskStatusAborted         TaskStatus = "aborted"
)

// legalTransitions is the full lifecycle table. Terminal statuses have no
// outbound entries. Paused is reserved: in_progress can enter it but the only
// way out is abort.
var legalTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:         {TaskStatusPendingApproval, TaskStatusAborted},
	TaskStatusPendingApproval: {TaskStatusApproved, TaskStatusAborted},
	TaskStatusApproved:        {TaskStatusInProgress, TaskStatusAborted},
	TaskStatusInProgress:      {TaskStatusPaused, TaskStatusCompleted, TaskStatusFailed, TaskStatusAborted},
	TaskStatusPaused:          {TaskStatusAborted},
}

func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusAborted:
		return true
	}
	return false
}

func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ActiveStatuses are the statuses that make a task the user's "active" task.
// Pending is excluded: a pending task has not been surfaced to the user yet.
func ActiveStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusPendingApproval,
		TaskStatusApproved,
		TaskStatusInProgress,
		TaskStatusPaused,
	}
}

type Task struct {
	ID     string `json:"id"`
	UserID int64  `json:"userId"`
	ChatID int64  `json:"chatId"`

	Description string `json:"description"`
	RepoURL     string `json:"repoUrl"`
	Branch      string `json:"branch"`

	Status      TaskStatus `json:"status"`
	CurrentStep int        `json:"currentStep"`
	TotalSteps  int        `json:"totalSteps"`

	Plan   *Plan          `json:"plan,omitempty"`
	Result *ExecuteResult `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`

	ClarificationRound int `json:"clarificationRound"`

	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	LastCheckpointAt *time.Time `json:"lastCheckpointAt,omitempty"`

	Checkpoint *Checkpoint `json:"checkpoint,omitempty"`
}

func NewTaskID() string {
	return "task-" + uuid.NewString()[:8]
}

func NewTask(userID, chatID int64, description, repoURL string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:          NewTaskID(),
		UserID:      userID,
		ChatID:      chatID,
		Description: description,
		RepoURL:     repoURL,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

const summaryDescriptionLen = 50

type TaskSummary struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Progress    string     `json:"progress"`
	CreatedAt   string     `json:"createdAt"`
}

func (t *Task) Summary() TaskSummary {
	description := t.Description
	if runes := []rune(description); len(runes) > summaryDescriptionLen {
		description = string(runes[:summaryDescriptionLen]) + "..."
	}
	progress := "N/A"
	if t.TotalSteps > 0 {
		progress = strconv.Itoa(t.CurrentStep) + "/" + strconv.Itoa(t.TotalSteps)
	}
	return TaskSummary{
		ID:          t.ID,
		Description: description,
		Status:      t.Status,
		Progress:    progress,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

// Checkpoint is the recovery snapshot written into the task workspace. It is
// a read-only artifact; the task store record stays authoritative.
type Checkpoint struct {
	TaskID      string     `json:"task_id"`
	Timestamp   string     `json:"timestamp"`
	CurrentStep int        `json:"current_step"`
	Status      TaskStatus `json:"status"`
}
