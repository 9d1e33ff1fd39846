package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"surveyinsights/internal/model"
	"surveyinsights/internal/service"
	"surveyinsights/internal/transport/rest/middleware"
)

// SubmissionIngest is the respondent-facing submission surface
type SubmissionIngest interface {
	Submit(ctx context.Context, surveyID string, who service.Respondent, req *model.SubmitRequest) (*model.Submission, error)
	HasSubmitted(ctx context.Context, surveyID, respondentID string) (bool, error)
	Capacity(ctx context.Context, surveyID string) (*model.Capacity, error)
	Questions(ctx context.Context, surveyID string) ([]model.PublicQuestion, error)
}

// SubmissionHandler handles respondent endpoints
type SubmissionHandler struct {
	submissions SubmissionIngest
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissions SubmissionIngest) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Submit handles POST /v1/surveys/{surveyId}/submit
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	claims := middleware.GetRespondent(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req model.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	who := service.Respondent{ID: claims.RespondentID, Name: claims.RespondentName}
	sub, err := h.submissions.Submit(r.Context(), surveyID, who, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"submissionId": sub.ID,
		"submittedAt":  sub.SubmittedAt,
	})
}

// UserSubmitted handles GET /v1/surveys/{surveyId}/user-submitted
func (h *SubmissionHandler) UserSubmitted(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	claims := middleware.GetRespondent(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	submitted, err := h.submissions.HasSubmitted(r.Context(), surveyID, claims.RespondentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"submitted": submitted})
}

// MaxParticipants handles GET /v1/surveys/{surveyId}/max-participants
func (h *SubmissionHandler) MaxParticipants(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	capacity, err := h.submissions.Capacity(r.Context(), surveyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, capacity)
}

// Questions handles GET /v1/surveys/{surveyId}/questions
func (h *SubmissionHandler) Questions(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	questions, err := h.submissions.Questions(r.Context(), surveyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"surveyId":  surveyID,
		"questions": questions,
	})
}
