package workspace

import (
	"os"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

// Host is the file surface a task execution touches. Each task owns the
// directory root/<task-id>/ exclusively.
type Host interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	MkdirAll(path string, perm os.FileMode) error

	TaskDir(taskID string) string
	Exists(taskID string) bool
	ApplyWrite(taskID string, relPath string, content string) error
	ApplyDelete(taskID string, relPath string) error
	WriteCheckpoint(checkpoint schemas.Checkpoint) error
	ReadCheckpoint(taskID string) (*schemas.Checkpoint, error)
}
