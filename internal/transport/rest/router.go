package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"surveyinsights/internal/config"
	"surveyinsights/internal/service"
	"surveyinsights/internal/transport/rest/handler"
	"surveyinsights/internal/transport/rest/middleware"
	"surveyinsights/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	SurveyService     *service.SurveyService
	SubmissionService *service.SubmissionService
	InsightsService   *service.InsightsService
	ExportService     *service.ExportService
	WSHub             *ws.Hub
	CORS              config.CORSConfig
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.SurveyService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	submissionHandler := handler.NewSubmissionHandler(c.SubmissionService)
	insightsHandler := handler.NewInsightsHandler(c.InsightsService, c.ExportService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.InsightsService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(middleware.CORS(c.CORS))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/surveys/{surveyId}/respondents", authHandler.Join).Methods("POST", "OPTIONS")

	// WebSocket routes (owner token in query param)
	v1.HandleFunc("/ws/surveys/{surveyId}/insights", wsHandler.InsightsWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Owner routes (require owner auth)
	ownerRoutes := v1.NewRoute().Subrouter()
	ownerRoutes.Use(authMW.RequireOwner)

	ownerRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST", "OPTIONS")
	ownerRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET", "OPTIONS")
	ownerRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET", "OPTIONS")
	ownerRoutes.HandleFunc("/surveys/{surveyId}/analytics", insightsHandler.Analytics).Methods("GET", "OPTIONS")
	ownerRoutes.HandleFunc("/surveys/{surveyId}/submissions", insightsHandler.Submissions).Methods("GET", "OPTIONS")
	ownerRoutes.HandleFunc("/surveys/{surveyId}/export", insightsHandler.Export).Methods("GET", "OPTIONS")

	// Respondent routes (token scoped to {surveyId})
	respondentRoutes := v1.NewRoute().Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("/surveys/{surveyId}/questions", submissionHandler.Questions).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/surveys/{surveyId}/submit", submissionHandler.Submit).Methods("POST", "OPTIONS")
	respondentRoutes.HandleFunc("/surveys/{surveyId}/user-submitted", submissionHandler.UserSubmitted).Methods("GET", "OPTIONS")
	respondentRoutes.HandleFunc("/surveys/{surveyId}/max-participants", submissionHandler.MaxParticipants).Methods("GET", "OPTIONS")

	return r
}
