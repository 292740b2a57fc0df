package naming

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Hello World", "hello-world"},
		{"Fix: crash on /events", "fix-crash-on-events"},
		{"already-kebab", "already-kebab"},
		{"multi   space", "multi-space"},
		{"punctuation!!!", "punctuation"},
		{"line1\nline2", "line1"},
		{"---Leading and trailing---", "leading-and-trailing"},
		{"non-ascii: café", "non-ascii-cafe"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTaskBranch(t *testing.T) {
	t.Parallel()

	got := TaskBranch("task-1a2b3c4d", "Add input validation to user_service.py")
	want := "task/task-1a2b3c4d-add-input-validation-to-user-service-py"
	if got != want {
		t.Fatalf("TaskBranch = %q, want %q", got, want)
	}

	if got := TaskBranch("task-1a2b3c4d", "!!!"); got != "task/task-1a2b3c4d" {
		t.Fatalf("expected bare task branch for empty slug, got %q", got)
	}

	long := TaskBranch("task-x", strings.Repeat("word ", 30))
	if len(long) > len("task/task-x-")+maxSlugLen {
		t.Fatalf("expected bounded slug, got %q (%d)", long, len(long))
	}
}
