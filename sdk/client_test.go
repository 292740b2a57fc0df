package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(WithBaseURL(server.URL))
	return client, server
}

func TestVersion(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte("1.2.3\n"))
	}))
	defer server.Close()

	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "1.2.3" {
		t.Fatalf("expected trimmed version, got %q", version)
	}
}

func TestSendEvent(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/events" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var request schemas.EventRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if request.UserID != 7 {
			t.Errorf("expected user 7, got %d", request.UserID)
		}
		_ = json.NewEncoder(w).Encode(DecisionEnvelope{
			Status:   "success",
			Decision: &schemas.Decision{Action: schemas.DecisionClarify, Message: "which repo?"},
		})
	}))
	defer server.Close()

	decision, err := client.SendEvent(context.Background(), schemas.EventRequest{UserID: 7, ChatID: 9, Message: "do a thing"})
	if err != nil {
		t.Fatalf("SendEvent: %v", err)
	}
	if decision.Action != schemas.DecisionClarify {
		t.Fatalf("expected clarify decision, got %s", decision.Action)
	}
}

func TestApproveSurfacesAPIError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(ErrorResponse{
			Status:  "failed",
			Code:    "invalid_state",
			Message: "task is completed",
		})
	}))
	defer server.Close()

	_, err := client.Approve(context.Background(), "task-abc")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "invalid_state" || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestListTasks(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("userId"); got != "42" {
			t.Errorf("expected userId 42, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(TaskListEnvelope{
			Status: "success",
			Tasks: []schemas.TaskSummary{
				{ID: "task-1", Status: schemas.TaskStatusCompleted, Progress: "3/3"},
			},
		})
	}))
	defer server.Close()

	tasks, err := client.ListTasks(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "task-1" {
		t.Fatalf("unexpected list: %+v", tasks)
	}
}

func TestShutdownUnsupported(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	err := client.Shutdown(context.Background())
	if !errors.Is(err, ErrShutdownUnsupported) {
		t.Fatalf("expected ErrShutdownUnsupported, got %v", err)
	}
}
