package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"surveyinsights/internal/model"
	"surveyinsights/internal/repository"
)

// Authenticator issues owner and respondent tokens
type Authenticator interface {
	Login(username, password string) (*model.LoginResponse, error)
	IssueRespondentToken(surveyID, name string) (*model.JoinResponse, error)
}

// SurveyLookup finds a survey by id
type SurveyLookup interface {
	Get(ctx context.Context, surveyID string) (*model.Survey, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth    Authenticator
	surveys SurveyLookup
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth Authenticator, surveys SurveyLookup) *AuthHandler {
	return &AuthHandler{auth: auth, surveys: surveys}
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	resp, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Join handles POST /v1/surveys/{surveyId}/respondents
func (h *AuthHandler) Join(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	var req model.JoinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required (max 120 characters)")
		return
	}

	survey, err := h.surveys.Get(r.Context(), surveyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if survey.IsFull() {
		writeServiceError(w, r, repository.ErrSurveyFull)
		return
	}

	resp, err := h.auth.IssueRespondentToken(surveyID, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}
