package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.MiddlewareLogger)
	r.Get("/version", s.HandlerVersion)
	r.Post("/shutdown", s.HandlerShutdown)
	r.Post("/events", s.HandlerEvent)
	r.Get("/tasks", s.HandlerListTasks)
	r.Get("/tasks/{id}", s.HandlerTaskStatus)
	r.Post("/tasks/{id}/approve", s.HandlerApprove)
	r.Post("/abort", s.HandlerAbort)
	return r
}
