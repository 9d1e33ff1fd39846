package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"surveyinsights/internal/export"
	"surveyinsights/internal/logging"
	"surveyinsights/internal/model"
	"surveyinsights/internal/service"
	"surveyinsights/internal/transport/rest/middleware"
)

// InsightsReader serves analytics to survey owners
type InsightsReader interface {
	SurveyInsights(ctx context.Context, surveyID, ownerID string, refresh bool) (*model.SurveyInsights, error)
	Submissions(ctx context.Context, surveyID, ownerID string) ([]model.RespondentBundle, error)
}

// Exporter prepares CSV exports
type Exporter interface {
	Export(ctx context.Context, surveyID, ownerID string, table export.Table) (*service.ExportFile, error)
}

// InsightsHandler handles analytics and export endpoints
type InsightsHandler struct {
	insights InsightsReader
	exporter Exporter
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(insights InsightsReader, exporter Exporter) *InsightsHandler {
	return &InsightsHandler{insights: insights, exporter: exporter}
}

// Analytics handles GET /v1/surveys/{surveyId}/analytics?refresh=true
func (h *InsightsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	refresh := false
	if v := r.URL.Query().Get("refresh"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "refresh must be a boolean")
			return
		}
		refresh = parsed
	}

	insights, err := h.insights.SurveyInsights(r.Context(), surveyID, ownerID, refresh)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, insights)
}

// Submissions handles GET /v1/surveys/{surveyId}/submissions
func (h *InsightsHandler) Submissions(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	bundles, err := h.insights.Submissions(r.Context(), surveyID, ownerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"respondents": bundles})
}

// Export handles GET /v1/surveys/{surveyId}/export?table=
func (h *InsightsHandler) Export(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	ownerID := middleware.GetOwnerID(r.Context())
	if ownerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	table := export.Table(r.URL.Query().Get("table"))
	file, err := h.exporter.Export(r.Context(), surveyID, ownerID, table)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	if err := file.Stream(w); err != nil {
		// headers are already sent; the client sees a truncated body
		logging.WithSurvey(surveyID).WithError(err).Error("export stream failed")
	}
}
