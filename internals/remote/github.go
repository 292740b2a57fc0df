package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ParseRepoURL extracts owner and repository name from the URL forms users
// paste: https, ssh and bare owner/repo.
func ParseRepoURL(remoteURL string) (string, string, error) {
	// SSH URLs: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(remoteURL, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH GitHub URL: %s", remoteURL)
		}
		return splitOwnerRepo(strings.TrimSuffix(parts[1], ".git"), remoteURL)
	}

	// Bare owner/repo
	if !strings.Contains(remoteURL, "://") && !strings.Contains(remoteURL, "github.com") {
		return splitOwnerRepo(strings.TrimSuffix(remoteURL, ".git"), remoteURL)
	}

	normalized := remoteURL
	if !strings.Contains(normalized, "://") {
		normalized = "https://" + normalized
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return "", "", fmt.Errorf("invalid GitHub URL: %s", remoteURL)
	}
	if parsed.Host != "github.com" {
		return "", "", fmt.Errorf("not a GitHub URL: %s", remoteURL)
	}

	path := strings.TrimPrefix(parsed.Path, "/")
	path = strings.TrimSuffix(path, ".git")
	return splitOwnerRepo(path, remoteURL)
}

func splitOwnerRepo(path string, original string) (string, string, error) {
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GitHub URL format: %s", original)
	}
	return parts[0], parts[1], nil
}

// CloneOrPull materializes the repository under the task workspace, pulling
// when a previous attempt already cloned it.
func (m *Manager) CloneOrPull(ctx context.Context, repoURL string, taskID string) (string, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	clonePath := filepath.Join(m.workspaceRoot, taskID, repo)
	if info, err := os.Stat(clonePath); err == nil && info.IsDir() {
		if _, err := git(ctx, clonePath, "pull", "--ff-only"); err != nil {
			return "", err
		}
		return clonePath, nil
	}

	if err := os.MkdirAll(filepath.Dir(clonePath), 0o755); err != nil {
		return "", err
	}
	cloneURL := fmt.Sprintf("https://github.com/%s/%s.git", owner, repo)
	if m.token != "" {
		cloneURL = fmt.Sprintf("https://x-access-token:%s@github.com/%s/%s.git", m.token, owner, repo)
	}
	if _, err := git(ctx, "", "clone", cloneURL, clonePath); err != nil {
		return "", err
	}
	return clonePath, nil
}

func (m *Manager) CreateBranch(ctx context.Context, repoPath string, branchName string) error {
	if m.IsProtectedBranch(branchName) {
		return fmt.Errorf("cannot create working branch %q: %w", branchName, ErrProtectedBranch)
	}
	if _, err := git(ctx, repoPath, "checkout", "-b", branchName); err != nil {
		return err
	}
	return nil
}

// Commit stages everything and commits. Returns the commit SHA, or "" with a
// nil error when there is nothing to commit.
func (m *Manager) Commit(ctx context.Context, repoPath string, message string) (string, error) {
	branch, err := git(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	if m.IsProtectedBranch(branch) {
		return "", fmt.Errorf("cannot commit on %q: %w", branch, ErrProtectedBranch)
	}

	if _, err := git(ctx, repoPath, "add", "-A"); err != nil {
		return "", err
	}
	if _, err := git(ctx, repoPath, "diff", "--cached", "--quiet"); err == nil {
		return "", nil
	}
	if _, err := git(ctx, repoPath, "commit", "-m", message); err != nil {
		return "", err
	}
	return git(ctx, repoPath, "rev-parse", "HEAD")
}

func (m *Manager) Push(ctx context.Context, repoPath string, branchName string) error {
	if branchName == "" {
		current, err := git(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			return err
		}
		branchName = current
	}
	if m.IsProtectedBranch(branchName) {
		return fmt.Errorf("cannot push %q: %w", branchName, ErrProtectedBranch)
	}
	_, err := git(ctx, repoPath, "push", "-u", "origin", branchName)
	return err
}

// RepositoryInfo describes a remote repository.
type RepositoryInfo struct {
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	Description   string `json:"description"`
	Language      string `json:"language"`
}

// GetRepositoryInfo fetches repository metadata through the GitHub REST API.
func (m *Manager) GetRepositoryInfo(ctx context.Context, repoURL string) (*RepositoryInfo, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s", m.apiBaseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository info: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get repository info: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	info := &RepositoryInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, fmt.Errorf("failed to decode repository response: %w", err)
	}
	return info, nil
}

// OpenPullRequest creates a PR through the GitHub REST API.
func (m *Manager) OpenPullRequest(ctx context.Context, repoURL, title, body, headBranch, baseBranch string) (*PullRequest, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	if baseBranch == "" {
		baseBranch = m.baseBranch
	}

	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
		"head":  headBranch,
		"base":  baseBranch,
	})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls", m.apiBaseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
	if m.token != "" {
		req.Header.Set("Authorization", "Bearer "+m.token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create pull request: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var decoded struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
		Title   string `json:"title"`
		State   string `json:"state"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode pull request response: %w", err)
	}
	return &PullRequest{
		Number: decoded.Number,
		URL:    decoded.HTMLURL,
		Title:  decoded.Title,
		State:  decoded.State,
	}, nil
}
