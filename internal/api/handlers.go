// Package api provides HTTP handlers for CardAssist endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/CardAssist/internal/models"
)

// classifyHandler classifies a query without dispatching it to an agent.
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.classifyHandler: processing classify request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.classifyHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.classifyHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.Message == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptyQuery.Error()))
		return
	}

	classification := s.classifier.Classify(r.Context(), req.Message)
	slog.Info("Server.classifyHandler: query classified",
		"category", classification.Category, "taskType", classification.TaskType)
	writeJSONResponse(w, http.StatusOK, models.Success(classification))
}

// chatHandler runs the full pipeline: classify, dispatch, and return the
// agent's answer or action proposal.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.chatHandler: processing chat request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.chatHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.chatHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.chatHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	classification := s.classifier.Classify(r.Context(), req.Message)
	response, err := s.registry.Process(r.Context(), classification, req.Message, req.UserID)
	if err != nil {
		slog.Error("Server.chatHandler: agent processing failed", "error", err, "category", classification.Category)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process query"))
		return
	}

	slog.Info("Server.chatHandler: query processed",
		"category", classification.Category, "taskType", classification.TaskType,
		"requiresConsent", response.RequiresConsent, "action", response.Action)
	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatResult{
		Response:       response,
		Classification: classification,
	}))
}

// consentHandler executes or cancels a previously proposed action.
func (s *Server) consentHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.consentHandler: processing consent request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.consentHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var decision models.ConsentDecision
	if err := json.NewDecoder(r.Body).Decode(&decision); err != nil {
		slog.Warn("Server.consentHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := decision.Validate(); err != nil {
		slog.Warn("Server.consentHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result, err := s.executor.Decide(r.Context(), decision)
	if err != nil {
		slog.Error("Server.consentHandler: decision processing failed", "error", err, "action", decision.Action)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process consent decision"))
		return
	}

	slog.Info("Server.consentHandler: decision processed",
		"userID", decision.UserID, "action", decision.Action, "outcome", result.Outcome)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage(result.Message, result))
}

// healthHandler reports service liveness and classifier mode.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"status":             "healthy",
		"primary_classifier": s.classifier.PrimaryEnabled(),
	}))
}
