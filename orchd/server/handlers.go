package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	z "github.com/Oudwins/zog"

	"github.com/victorvelazquez/dev-orchestrator/internals/agents"
	"github.com/victorvelazquez/dev-orchestrator/internals/orchestrator"
	"github.com/victorvelazquez/dev-orchestrator/internals/schemas"
	"github.com/victorvelazquez/dev-orchestrator/internals/timeouts"
)

type DecisionResponse struct {
	Status   JsonResponseStatus `json:"status"`
	Decision *schemas.Decision  `json:"decision"`
}

type TaskListResponse struct {
	Status JsonResponseStatus    `json:"status"`
	Tasks  []schemas.TaskSummary `json:"tasks"`
}

type TaskStatusResponse struct {
	Status JsonResponseStatus `json:"status"`
	Task   *schemas.Task      `json:"task"`
}

func (s *Server) HandlerVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.Base.Config.Version))
}

func (s *Server) HandlerShutdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("shutting down"))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.Stop(ctx); err != nil {
			s.Base.Logger.Error("shutdown failed", "error", err)
		}
	}()
}

func (s *Server) HandlerEvent(w http.ResponseWriter, r *http.Request) {
	var request schemas.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return
	}
	if issues := schemas.EventRequestSchema.Validate(&request); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, Render.Status(http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Event)
	defer cancel()

	var decision *schemas.Decision
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		var handleErr error
		decision, handleErr = s.Controller.HandleEvent(ctx, request)
		return handleErr
	})
	if err != nil {
		var formatErr *agents.PlanFormatError
		if errors.As(err, &formatErr) {
			RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodePlanRejected, formatErr.Error(), nil), Render.Status(http.StatusUnprocessableEntity))
			return
		}
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
		return
	}

	RenderJSON(w, r, DecisionResponse{Status: JsonResponseStatusSuccess, Decision: decision})
}

func (s *Server) HandlerApprove(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "task id is required", nil), Render.Status(http.StatusBadRequest))
		return
	}

	// Approval runs the whole plan synchronously; the step timeout bounds
	// each model call, not the request.
	var decision *schemas.Decision
	err := s.pool.Do(r.Context(), func(ctx context.Context) error {
		var approveErr error
		decision, approveErr = s.Controller.Approve(ctx, taskID)
		return approveErr
	})
	if err != nil {
		s.renderControllerError(w, r, err)
		return
	}

	RenderJSON(w, r, DecisionResponse{Status: JsonResponseStatusSuccess, Decision: decision})
}

func (s *Server) HandlerTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	if taskID == "" {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "task id is required", nil), Render.Status(http.StatusBadRequest))
		return
	}

	task, err := s.Controller.GetTask(r.Context(), taskID)
	if err != nil {
		s.renderControllerError(w, r, err)
		return
	}

	RenderJSON(w, r, TaskStatusResponse{Status: JsonResponseStatusSuccess, Task: task})
}

func (s *Server) HandlerListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || userID <= 0 {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "userId query parameter is required", nil), Render.Status(http.StatusBadRequest))
		return
	}

	summaries, err := s.Controller.ListTasks(r.Context(), userID)
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, "Failed to list tasks", nil), Render.Status(http.StatusInternalServerError))
		return
	}

	RenderJSON(w, r, TaskListResponse{Status: JsonResponseStatusSuccess, Tasks: summaries})
}

func (s *Server) HandlerAbort(w http.ResponseWriter, r *http.Request) {
	var request schemas.AbortRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return
	}
	if issues := schemas.AbortRequestSchema.Validate(&request); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, Render.Status(http.StatusBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var decision *schemas.Decision
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		var abortErr error
		decision, abortErr = s.Controller.Abort(ctx, request.UserID)
		return abortErr
	})
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
		return
	}

	RenderJSON(w, r, DecisionResponse{Status: JsonResponseStatusSuccess, Decision: decision})
}

func (s *Server) renderControllerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrNotFound):
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeNotFound, "task not found", nil), Render.Status(http.StatusNotFound))
	case errors.Is(err, orchestrator.ErrInvalidState):
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidState, err.Error(), nil), Render.Status(http.StatusConflict))
	default:
		RenderJSON(w, r, JsonResponseError(JsonResponseErroCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
	}
}
