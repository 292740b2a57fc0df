package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/victorvelazquez/dev-orchestrator/internals/conf"
	"github.com/victorvelazquez/dev-orchestrator/internals/env"
	"github.com/victorvelazquez/dev-orchestrator/internals/logbuf"
	"github.com/victorvelazquez/dev-orchestrator/internals/orchestrator"
	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
	"github.com/victorvelazquez/dev-orchestrator/internals/workers"
	"github.com/victorvelazquez/dev-orchestrator/orchd/core"
)

type fakeController struct {
	decision *schemas.Decision
	task     *schemas.Task
	tasks    []schemas.TaskSummary
	err      error

	lastEvent  schemas.EventRequest
	lastTaskID string
	lastUserID int64
}

func (f *fakeController) HandleEvent(ctx context.Context, req schemas.EventRequest) (*schemas.Decision, error) {
	f.lastEvent = req
	return f.decision, f.err
}

func (f *fakeController) Approve(ctx context.Context, taskID string) (*schemas.Decision, error) {
	f.lastTaskID = taskID
	return f.decision, f.err
}

func (f *fakeController) GetTask(ctx context.Context, taskID string) (*schemas.Task, error) {
	f.lastTaskID = taskID
	if f.err != nil {
		return nil, f.err
	}
	return f.task, nil
}

func (f *fakeController) ListTasks(ctx context.Context, userID int64) ([]schemas.TaskSummary, error) {
	f.lastUserID = userID
	return f.tasks, f.err
}

func (f *fakeController) Abort(ctx context.Context, userID int64) (*schemas.Decision, error) {
	f.lastUserID = userID
	return f.decision, f.err
}

func newTestServer(controller Controller) *Server {
	cfg := &conf.Config{Version: "test"}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &Server{
		Base: &core.BaseServer{
			Config: cfg,
			Env:    &env.EnvStruct{},
			Logger: logger,
		},
		Logbuf:     logbuf.New(),
		Controller: controller,
		pool:       workers.NewPool(2),
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func TestHandlerVersion(t *testing.T) {
	server := newTestServer(&fakeController{})
	recorder := doJSON(t, server.Router(), http.MethodGet, "/version", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if recorder.Body.String() != "test" {
		t.Fatalf("expected version body, got %q", recorder.Body.String())
	}
}

func TestHandlerEvent(t *testing.T) {
	controller := &fakeController{decision: &schemas.Decision{Action: schemas.DecisionClarify, Message: "which repo?"}}
	server := newTestServer(controller)

	recorder := doJSON(t, server.Router(), http.MethodPost, "/events", schemas.EventRequest{
		UserID: 7, ChatID: 9, Message: "add validation",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload DecisionResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Decision.Action != schemas.DecisionClarify {
		t.Fatalf("unexpected decision: %+v", payload.Decision)
	}
	if controller.lastEvent.UserID != 7 {
		t.Fatalf("expected event forwarded, got %+v", controller.lastEvent)
	}
}

func TestHandlerEventValidation(t *testing.T) {
	server := newTestServer(&fakeController{})

	recorder := doJSON(t, server.Router(), http.MethodPost, "/events", map[string]any{
		"userId": 0, "chatId": 9, "message": "",
	})

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	var payload ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Code != JsonResponseErrorCodeValidationFailed {
		t.Fatalf("expected validation_failed, got %s", payload.Code)
	}
}

func TestHandlerEventInvalidJSON(t *testing.T) {
	server := newTestServer(&fakeController{})

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString("{nope"))
	recorder := httptest.NewRecorder()
	server.Router().ServeHTTP(recorder, req)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestHandlerApproveNotFound(t *testing.T) {
	controller := &fakeController{err: fmt.Errorf("%w: task-nope", orchestrator.ErrNotFound)}
	server := newTestServer(controller)

	recorder := doJSON(t, server.Router(), http.MethodPost, "/tasks/task-nope/approve", nil)

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", recorder.Code)
	}
	if controller.lastTaskID != "task-nope" {
		t.Fatalf("expected task id forwarded, got %q", controller.lastTaskID)
	}
}

func TestHandlerApproveInvalidState(t *testing.T) {
	controller := &fakeController{err: fmt.Errorf("%w: already completed", orchestrator.ErrInvalidState)}
	server := newTestServer(controller)

	recorder := doJSON(t, server.Router(), http.MethodPost, "/tasks/task-1/approve", nil)

	if recorder.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", recorder.Code)
	}
	var payload ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Code != JsonResponseErrorCodeInvalidState {
		t.Fatalf("expected invalid_state, got %s", payload.Code)
	}
}

func TestHandlerTaskStatus(t *testing.T) {
	task := schemas.NewTask(7, 9, "in flight", "github.com/acme/app")
	task.Status = schemas.TaskStatusInProgress
	server := newTestServer(&fakeController{task: task})

	recorder := doJSON(t, server.Router(), http.MethodGet, "/tasks/"+task.ID, nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var payload TaskStatusResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Task.ID != task.ID || payload.Task.Status != schemas.TaskStatusInProgress {
		t.Fatalf("unexpected task payload: %+v", payload.Task)
	}
}

func TestHandlerListTasksRequiresUser(t *testing.T) {
	server := newTestServer(&fakeController{})

	recorder := doJSON(t, server.Router(), http.MethodGet, "/tasks", nil)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", recorder.Code)
	}
}

func TestHandlerListTasks(t *testing.T) {
	controller := &fakeController{tasks: []schemas.TaskSummary{{ID: "task-1", Progress: "2/3"}}}
	server := newTestServer(controller)

	recorder := doJSON(t, server.Router(), http.MethodGet, "/tasks?userId=42", nil)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if controller.lastUserID != 42 {
		t.Fatalf("expected user forwarded, got %d", controller.lastUserID)
	}
	var payload TaskListResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Tasks) != 1 || payload.Tasks[0].ID != "task-1" {
		t.Fatalf("unexpected task list: %+v", payload.Tasks)
	}
}

func TestHandlerAbort(t *testing.T) {
	controller := &fakeController{decision: &schemas.Decision{Action: schemas.DecisionRespond, Message: "Aborted task task-1.", TaskID: "task-1"}}
	server := newTestServer(controller)

	recorder := doJSON(t, server.Router(), http.MethodPost, "/abort", schemas.AbortRequest{UserID: 7})

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if controller.lastUserID != 7 {
		t.Fatalf("expected user forwarded, got %d", controller.lastUserID)
	}
}
