// Package api exposes the copilot over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonerrors "supplychain-copilot/internal/common/errors"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/validation"
	"supplychain-copilot/internal/models"
)

const maxBodyBytes = 64 << 10

var askSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["question"],
  "properties": {
    "question": {"type": "string", "minLength": 1, "maxLength": 4000}
  }
}`)

// Runner answers one question end to end.
type Runner interface {
	Run(ctx context.Context, question string) (*models.Response, error)
}

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

type askRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Error *commonerrors.StandardError `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type Handler struct {
	runner     Runner
	classifier *commonerrors.Classifier
	checks     map[string]Check
	logger     logger.Logger
	mux        *http.ServeMux
}

func NewHandler(runner Runner, classifier *commonerrors.Classifier, checks map[string]Check, log logger.Logger) *Handler {
	if classifier == nil {
		classifier = commonerrors.NewClassifier()
	}
	h := &Handler{
		runner:     runner,
		classifier: classifier,
		checks:     checks,
		logger:     logger.Component(log, "api"),
		mux:        http.NewServeMux(),
	}
	h.mux.HandleFunc("POST /v1/ask", h.ask)
	h.mux.HandleFunc("GET /health", h.health)
	h.mux.HandleFunc("GET /ready", h.ready)
	h.mux.Handle("GET /metrics", promhttp.Handler())
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) ask(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}

	result, err := askSchema.ValidateJSON(body)
	if err != nil {
		h.writeError(w, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}
	if !result.Valid {
		h.writeError(w, commonerrors.NewInvalidRequestError(result.Summary()))
		return
	}

	var req askRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeError(w, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}

	resp, err := h.runner.Run(r.Context(), req.Question)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := healthResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			out.Checks[name] = err.Error()
			out.Status = "not_ready"
			status = http.StatusServiceUnavailable
			continue
		}
		out.Checks[name] = "ok"
	}
	writeJSON(w, status, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	stdErr := h.classifier.Classify(err)
	status := commonerrors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"status":    status,
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	writeJSON(w, status, errorResponse{Error: stdErr})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
