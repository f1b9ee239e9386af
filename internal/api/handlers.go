package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/signalmesh/causegraph/internal/correlation"
	"github.com/signalmesh/causegraph/internal/graph"
	"github.com/signalmesh/causegraph/internal/models"
	"github.com/signalmesh/causegraph/internal/services"
	"github.com/signalmesh/causegraph/internal/utils"
)

// Handler exposes the analysis service over HTTP/JSON.
type Handler struct {
	logger  *slog.Logger
	service *services.AnalysisService
}

// NewHandler constructs the HTTP handler set.
func NewHandler(logger *slog.Logger, service *services.AnalysisService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// Routes returns the configured mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/correlations/analyze", h.analyzeCorrelations)
	mux.HandleFunc("POST /api/v1/rootcause/analyze", h.analyzeRootCause)
	mux.HandleFunc("GET /healthz", h.health)
	return mux
}

// analyzeRequest is the wire form of a discovery query. The window is given
// in seconds so clients do not need Go duration syntax.
type analyzeRequest struct {
	EventID           string                   `json:"event_id"`
	TimeWindowSeconds int64                    `json:"time_window_seconds"`
	CorrelationTypes  []models.CorrelationType `json:"correlation_types,omitempty"`
	MinScore          float64                  `json:"min_score"`
	MaxResults        int                      `json:"max_results"`
	GraphFormat       string                   `json:"graph_format,omitempty"`
}

func (r analyzeRequest) toQuery() correlation.DiscoveryQuery {
	return correlation.DiscoveryQuery{
		EventID:          r.EventID,
		TimeWindow:       time.Duration(r.TimeWindowSeconds) * time.Second,
		CorrelationTypes: r.CorrelationTypes,
		MinScore:         r.MinScore,
		MaxResults:       r.MaxResults,
	}
}

type correlationResponse struct {
	correlation.Result
	Graph json.RawMessage `json:"graph,omitempty"`
	// GraphText carries mermaid/dot renderings when requested.
	GraphText string `json:"graph_text,omitempty"`
}

func (h *Handler) analyzeCorrelations(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.EventID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("event_id is required"))
		return
	}

	result, err := h.service.AnalyzeCorrelations(r.Context(), req.toQuery())
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	resp := correlationResponse{Result: result}
	switch req.GraphFormat {
	case "mermaid":
		resp.GraphText = graph.ToMermaid(result.Graph)
	case "dot":
		resp.GraphText = graph.ToDOT(result.Graph)
	default:
		data, err := graph.ToJSON(result.Graph)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, fmt.Errorf("encode graph: %w", err))
			return
		}
		resp.Graph = data
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) analyzeRootCause(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.EventID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("event_id is required"))
		return
	}

	report, err := h.service.InvestigateRootCause(r.Context(), req.toQuery())
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeAnalysisError(w http.ResponseWriter, err error) {
	if errors.Is(err, utils.ErrEventNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeError(w, http.StatusInternalServerError, err)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", slog.Int("status", status), slog.Any("error", err))
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response failed", slog.Any("error", err))
	}
}
