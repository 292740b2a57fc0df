package taskstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

// ErrNotFound is returned by Update when the task record does not exist.
var ErrNotFound = errors.New("task not found")

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the durable source of truth for task records. Callers fetch fresh
// state on every operation; task values are never cached across requests.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate task store: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, task *schemas.Task) error {
	planJSON, resultJSON, err := encodePayloads(task)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tasks (id, user_id, chat_id, description, repo_url, branch, status,
	current_step, total_steps, plan_json, result_json, error, clarification_round,
	created_at, updated_at, started_at, completed_at, last_checkpoint_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, task.ID, task.UserID, task.ChatID, task.Description, task.RepoURL, task.Branch,
		task.Status, task.CurrentStep, task.TotalSteps, nullIfEmpty(planJSON),
		nullIfEmpty(resultJSON), nullIfEmpty(task.Error), task.ClarificationRound,
		formatTime(task.CreatedAt), formatTime(task.UpdatedAt),
		formatTimePtr(task.StartedAt), formatTimePtr(task.CompletedAt),
		formatTimePtr(task.LastCheckpointAt))
	return err
}

func (s *Store) Update(ctx context.Context, task *schemas.Task) error {
	planJSON, resultJSON, err := encodePayloads(task)
	if err != nil {
		return err
	}
	task.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
UPDATE tasks
SET status = ?, branch = ?, current_step = ?, total_steps = ?, plan_json = ?,
	result_json = ?, error = ?, clarification_round = ?, updated_at = ?,
	started_at = ?, completed_at = ?, last_checkpoint_at = ?
WHERE id = ?
`, task.Status, task.Branch, task.CurrentStep, task.TotalSteps,
		nullIfEmpty(planJSON), nullIfEmpty(resultJSON), nullIfEmpty(task.Error),
		task.ClarificationRound, formatTime(task.UpdatedAt),
		formatTimePtr(task.StartedAt), formatTimePtr(task.CompletedAt),
		formatTimePtr(task.LastCheckpointAt), task.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the task by id, or (nil, nil) when it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*schemas.Task, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

// ListForUser returns the user's task summaries, most recent first, bounded
// by limit.
func (s *Store) ListForUser(ctx context.Context, userID int64, limit int) ([]schemas.TaskSummary, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []schemas.TaskSummary{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, task.Summary())
	}
	return summaries, rows.Err()
}

// GetActiveForUser returns the user's active task, or (nil, nil) when there
// is none. Multiple active tasks should not happen, but when they do the most
// recently created one wins.
func (s *Store) GetActiveForUser(ctx context.Context, userID int64) (*schemas.Task, error) {
	statuses := schemas.ActiveStatuses()
	placeholders := make([]string, len(statuses))
	args := []any{userID}
	for i, status := range statuses {
		placeholders[i] = "?"
		args = append(args, status)
	}

	row := s.db.QueryRowContext(ctx, selectColumns+`
WHERE user_id = ? AND status IN (`+strings.Join(placeholders, ", ")+`)
ORDER BY created_at DESC
LIMIT 1`, args...)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

const selectColumns = `
SELECT id, user_id, chat_id, description, repo_url, branch, status,
	current_step, total_steps, plan_json, result_json, error,
	clarification_round, created_at, updated_at, started_at, completed_at,
	last_checkpoint_at
FROM tasks`

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*schemas.Task, error) {
	var task schemas.Task
	var status string
	var planJSON, resultJSON, errMsg sql.NullString
	var createdAt, updatedAt string
	var startedAt, completedAt, lastCheckpointAt sql.NullString

	err := row.Scan(&task.ID, &task.UserID, &task.ChatID, &task.Description,
		&task.RepoURL, &task.Branch, &status, &task.CurrentStep, &task.TotalSteps,
		&planJSON, &resultJSON, &errMsg, &task.ClarificationRound,
		&createdAt, &updatedAt, &startedAt, &completedAt, &lastCheckpointAt)
	if err != nil {
		return nil, err
	}

	task.Status = schemas.TaskStatus(status)
	task.Error = errMsg.String

	if planJSON.Valid && planJSON.String != "" {
		plan, err := schemas.DecodePlan([]byte(planJSON.String))
		if err != nil {
			return nil, fmt.Errorf("task %s has an invalid stored plan: %w", task.ID, err)
		}
		task.Plan = plan
	}
	if resultJSON.Valid && resultJSON.String != "" {
		var execResult schemas.ExecuteResult
		if err := json.Unmarshal([]byte(resultJSON.String), &execResult); err != nil {
			return nil, fmt.Errorf("task %s has an invalid stored result: %w", task.ID, err)
		}
		task.Result = &execResult
	}

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if task.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if task.LastCheckpointAt, err = parseTimePtr(lastCheckpointAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func encodePayloads(task *schemas.Task) (planJSON string, resultJSON string, err error) {
	if task.Plan != nil {
		data, err := json.Marshal(task.Plan)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode plan: %w", err)
		}
		planJSON = string(data)
	}
	if task.Result != nil {
		data, err := json.Marshal(task.Result)
		if err != nil {
			return "", "", fmt.Errorf("failed to encode result: %w", err)
		}
		resultJSON = string(data)
	}
	return planJSON, resultJSON, nil
}

// timeLayout keeps nanoseconds zero-padded so the TEXT timestamp columns
// order lexicographically. RFC3339Nano drops trailing zeros, which breaks
// ORDER BY within a second.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func parseTimePtr(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
