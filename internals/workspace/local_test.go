package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
	"github.com/victorvelazquez/dev-orchestrator/internals/testutil"
)

func TestApplyWriteCreatesParents(t *testing.T) {
	host := NewLocalHost(testutil.TempWorkspaceRoot(t))

	if err := host.ApplyWrite("task-abc12345", "src/deep/nested/file.py", "content"); err != nil {
		t.Fatalf("apply write: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(host.TaskDir("task-abc12345"), "src", "deep", "nested", "file.py"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestApplyWriteOverwrites(t *testing.T) {
	host := NewLocalHost(testutil.TempWorkspaceRoot(t))
	if err := host.ApplyWrite("task-abc12345", "a.txt", "first"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := host.ApplyWrite("task-abc12345", "a.txt", "second"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := host.ReadFile(filepath.Join(host.TaskDir("task-abc12345"), "a.txt"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("expected overwrite, got %q", data)
	}
}

func TestApplyDeleteMissingIsNoop(t *testing.T) {
	host := NewLocalHost(testutil.TempWorkspaceRoot(t))
	if err := host.ApplyDelete("task-abc12345", "never/existed.py"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestApplyWriteRejectsEscapingPath(t *testing.T) {
	host := NewLocalHost(testutil.TempWorkspaceRoot(t))
	if err := host.ApplyWrite("task-abc12345", "../outside.txt", "x"); err == nil {
		t.Fatalf("expected path escape to be rejected")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	host := NewLocalHost(testutil.TempWorkspaceRoot(t))
	checkpoint := schemas.Checkpoint{
		TaskID:      "task-abc12345",
		Timestamp:   "2026-01-02T03:04:05Z",
		CurrentStep: 2,
		Status:      schemas.TaskStatusInProgress,
	}
	if err := host.WriteCheckpoint(checkpoint); err != nil {
		t.Fatalf("write checkpoint: %v", err)
	}

	got, err := host.ReadCheckpoint("task-abc12345")
	if err != nil {
		t.Fatalf("read checkpoint: %v", err)
	}
	if *got != checkpoint {
		t.Fatalf("unexpected checkpoint %+v", got)
	}
}

func TestExists(t *testing.T) {
	host := NewLocalHost(testutil.TempWorkspaceRoot(t))
	if host.Exists("task-nothere1") {
		t.Fatalf("expected missing workspace")
	}
	if err := host.ApplyWrite("task-abc12345", "a.txt", "x"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !host.Exists("task-abc12345") {
		t.Fatalf("expected workspace to exist")
	}
}
