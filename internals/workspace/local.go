package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

const checkpointDir = ".dev-tasks"
const checkpointFile = "checkpoint.json"

// LocalHost applies task side effects to a workspace directory on the local
// filesystem.
type LocalHost struct {
	root string
}

func NewLocalHost(root string) *LocalHost {
	return &LocalHost{root: root}
}

var _ Host = (*LocalHost)(nil)

func (l *LocalHost) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (l *LocalHost) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (l *LocalHost) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (l *LocalHost) TaskDir(taskID string) string {
	return filepath.Join(l.root, taskID)
}

func (l *LocalHost) Exists(taskID string) bool {
	info, err := os.Stat(l.TaskDir(taskID))
	return err == nil && info.IsDir()
}

// ApplyWrite writes the full file content, creating parent directories as
// needed. Create and modify are the same operation: overwrite.
func (l *LocalHost) ApplyWrite(taskID string, relPath string, content string) error {
	fullPath, err := l.taskPath(taskID, relPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	return nil
}

// ApplyDelete removes the file when present. A missing file is not an error.
func (l *LocalHost) ApplyDelete(taskID string, relPath string) error {
	fullPath, err := l.taskPath(taskID, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", relPath, err)
	}
	return nil
}

func (l *LocalHost) WriteCheckpoint(checkpoint schemas.Checkpoint) error {
	dir := filepath.Join(l.TaskDir(checkpoint.TaskID), checkpointDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, checkpointFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

func (l *LocalHost) ReadCheckpoint(taskID string) (*schemas.Checkpoint, error) {
	data, err := os.ReadFile(filepath.Join(l.TaskDir(taskID), checkpointDir, checkpointFile))
	if err != nil {
		return nil, err
	}
	var checkpoint schemas.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// taskPath joins a step-provided relative path under the task dir, rejecting
// paths that escape it.
func (l *LocalHost) taskPath(taskID string, relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty file path")
	}
	taskDir := l.TaskDir(taskID)
	fullPath := filepath.Join(taskDir, relPath)
	if fullPath != taskDir && !strings.HasPrefix(fullPath, taskDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes task workspace: %s", relPath)
	}
	return fullPath, nil
}
