package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

// Error messages returned with a 400 by /api/predict
const (
	MsgMissingParameter  = "Missing homeId, awayId, or league query parameter"
	MsgUnsupportedLeague = "Only Australian leagues are supported"
	MsgUnknownTeam       = "Invalid homeId or awayId"
	MsgSourceUnavailable = "Match data is unavailable"
)

// APIHandler serves predictions over HTTP
type APIHandler struct {
	service *podds.Service
	version string
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(svc *podds.Service, version string) *APIHandler {
	return &APIHandler{
		service: svc,
		version: version,
	}
}

// SetupRoutes configures the HTTP routes
func (h *APIHandler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/predict", h.handlePredict).Methods("GET")
	api.HandleFunc("/leagues", h.handleLeagues).Methods("GET")
	api.HandleFunc("/teams/{teamId}/form", h.handleTeamForm).Methods("GET")
	api.HandleFunc("/health", h.handleHealth).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.Method, r.URL.String())
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) handlePredict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	homeID := strings.TrimSpace(q.Get("homeId"))
	awayID := strings.TrimSpace(q.Get("awayId"))
	league := strings.TrimSpace(q.Get("league"))
	if homeID == "" || awayID == "" || league == "" {
		writeError(w, http.StatusBadRequest, MsgMissingParameter)
		return
	}

	res, err := h.service.Predict(r.Context(), homeID, awayID, league)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *APIHandler) handleLeagues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"leagues": h.service.Leagues(),
	})
}

func (h *APIHandler) handleTeamForm(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["teamId"]
	league := strings.TrimSpace(r.URL.Query().Get("league"))
	if league == "" {
		writeError(w, http.StatusBadRequest, "Missing league query parameter")
		return
	}
	form, err := h.service.TeamForm(r.Context(), teamID, league)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"leagues": len(h.service.Leagues()),
	})
}

// writeServiceError maps service errors onto status codes
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, podds.ErrMissingParameter):
		writeError(w, http.StatusBadRequest, MsgMissingParameter)
	case errors.Is(err, podds.ErrUnsupportedLeague):
		writeError(w, http.StatusBadRequest, MsgUnsupportedLeague)
	case errors.Is(err, podds.ErrUnknownTeam):
		writeError(w, http.StatusBadRequest, MsgUnknownTeam)
	case errors.Is(err, podds.ErrSourceUnavailable):
		logger.Error("Data source failure:", err)
		writeError(w, http.StatusInternalServerError, MsgSourceUnavailable)
	default:
		logger.Error("Prediction failed:", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to encode response:", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "Failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logger.Error("Failed to write response:", err)
	}
}
