package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"surveyinsights/internal/model"
	"surveyinsights/internal/transport/rest/middleware"
)

// SurveyStore is the survey management surface used by owners
type SurveyStore interface {
	Create(ctx context.Context, ownerID string, req *model.CreateSurveyRequest) (*model.Survey, error)
	GetOwned(ctx context.Context, surveyID, ownerID string) (*model.Survey, error)
	List(ctx context.Context, ownerID string) ([]model.SurveySummary, error)
}

// SurveyHandler handles survey endpoints
type SurveyHandler struct {
	surveys SurveyStore
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveys SurveyStore) *SurveyHandler {
	return &SurveyHandler{surveys: surveys}
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.CreateSurveyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.surveys.Create(r.Context(), ownerID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	survey, err := h.surveys.GetOwned(r.Context(), surveyID, ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	surveys, err := h.surveys.List(r.Context(), ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}
