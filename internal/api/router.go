package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theopenlane/mcpscout/internal/scanner"
)

// NewRouter creates a new chi router with all endpoints and middleware
func NewRouter(s scanner.Interface, p Prober, maxBodySize int64, timeout time.Duration) http.Handler {
	h := &Handler{
		scanner:     s,
		prober:      p,
		maxBodySize: maxBodySize,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/scan", h.handleScan)
		r.Post("/probe", h.handleProbe)
	})

	return r
}
