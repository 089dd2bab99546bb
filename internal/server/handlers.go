package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"fraud-scorer/internal/common"
	"fraud-scorer/internal/features"
	"fraud-scorer/internal/scoring"
	"fraud-scorer/internal/storage"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

type detailResponse struct {
	Detail any `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": common.ServiceName,
		"version": common.ServiceVersion,
		"endpoints": map[string]string{
			"predict":       "/predict",
			"health":        "/health",
			"model_info":    "/model/info",
			"model_history": "/model/history",
			"metrics":       "/metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		ModelLoaded: s.models != nil && s.models.Ready(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	in, err := scoring.DecodeTransaction(r.Body)
	if err != nil {
		var (
			tooLarge *http.MaxBytesError
			inputErr *scoring.InputError
		)
		switch {
		case errors.As(err, &tooLarge):
			writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
		case errors.As(err, &inputErr):
			writeDetail(w, http.StatusUnprocessableEntity, inputErr.Fields)
		case errors.Is(err, io.EOF):
			writeDetail(w, http.StatusUnprocessableEntity, scoring.DecodeError(errors.New("request body is empty")).Fields)
		default:
			writeDetail(w, http.StatusUnprocessableEntity, scoring.DecodeError(err).Fields)
		}
		return
	}

	prediction, err := s.predictor.Predict(r.Context(), in)
	if err != nil {
		s.writePredictError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		inputErr     *scoring.InputError
		inferenceErr *scoring.InferenceError
	)

	switch {
	case errors.As(err, &inputErr):
		writeDetail(w, http.StatusUnprocessableEntity, inputErr.Fields)
	case errors.Is(err, scoring.ErrModelNotLoaded):
		writeDetail(w, http.StatusInternalServerError, "Model not loaded")
	case errors.As(err, &inferenceErr):
		writeDetail(w, http.StatusInternalServerError, "Prediction error: "+inferenceErr.Error())
	default:
		log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("unexpected prediction error")
		writeDetail(w, http.StatusInternalServerError, "Prediction error: "+err.Error())
	}
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if s.models == nil {
		writeDetail(w, http.StatusServiceUnavailable, "Model not loaded")
		return
	}
	md, ok := s.models.Metadata()
	if !ok {
		writeDetail(w, http.StatusServiceUnavailable, "Model not loaded")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"version":         md.Version,
		"trained_at":      md.TrainedAt,
		"features":        md.Features,
		"schema_version":  md.SchemaVersion,
		"schema_checksum": features.SchemaChecksum,
		"trees":           md.Trees,
		"accuracy":        md.Accuracy,
		"training_rows":   md.TrainingRows,
		"path":            md.Path,
		"checksum":        md.Checksum,
		"loaded_at":       md.LoadedAt,
	})
}

func (s *Server) handleModelHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeDetail(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
			return
		}
		limit = n
	}

	loads := []storage.ModelLoad{}
	if s.history != nil {
		recs, err := s.history.ListModelLoads(limit)
		if err != nil {
			log.Error().Err(err).Msg("failed to list model loads")
			writeDetail(w, http.StatusInternalServerError, "Failed to read model history")
			return
		}
		if recs != nil {
			loads = recs
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"loads": loads})
}
