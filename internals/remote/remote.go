// Package remote wraps the git and GitHub surface the orchestrator needs:
// clone-or-pull into a task workspace, branch/commit/push with a protected
// branch denylist, and pull request creation.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// ErrProtectedBranch refuses writes to mainline branches. It is always
// surfaced, never retried.
var ErrProtectedBranch = errors.New("branch is protected")

type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

type Manager struct {
	token         string
	workspaceRoot string
	protected     map[string]bool
	baseBranch    string
	httpClient    *http.Client
	apiBaseURL    string
}

func New(token, workspaceRoot string, protectedBranches []string, baseBranch string) *Manager {
	protected := make(map[string]bool, len(protectedBranches))
	for _, branch := range protectedBranches {
		protected[strings.ToLower(branch)] = true
	}
	return &Manager{
		token:         token,
		workspaceRoot: workspaceRoot,
		protected:     protected,
		baseBranch:    baseBranch,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		apiBaseURL:    "https://api.github.com",
	}
}

func (m *Manager) IsProtectedBranch(name string) bool {
	return m.protected[strings.ToLower(name)]
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

var execCommand commandFunc = exec.CommandContext

func git(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := execCommand(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s failed: %s", args[0], strings.TrimSpace(string(output)))
	}
	return strings.TrimSpace(string(output)), nil
}
