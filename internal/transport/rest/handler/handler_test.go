package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveyinsights/internal/export"
	"surveyinsights/internal/model"
	"surveyinsights/internal/repository"
	"surveyinsights/internal/service"
	"surveyinsights/internal/transport/rest/middleware"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(username, password string) (*model.LoginResponse, error) {
	args := m.Called(username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginResponse), args.Error(1)
}

func (m *MockAuthenticator) IssueRespondentToken(surveyID, name string) (*model.JoinResponse, error) {
	args := m.Called(surveyID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.JoinResponse), args.Error(1)
}

type MockSurveyStore struct {
	mock.Mock
}

func (m *MockSurveyStore) Create(ctx context.Context, ownerID string, req *model.CreateSurveyRequest) (*model.Survey, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyStore) Get(ctx context.Context, surveyID string) (*model.Survey, error) {
	args := m.Called(ctx, surveyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyStore) GetOwned(ctx context.Context, surveyID, ownerID string) (*model.Survey, error) {
	args := m.Called(ctx, surveyID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyStore) List(ctx context.Context, ownerID string) ([]model.SurveySummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SurveySummary), args.Error(1)
}

type MockSubmissionIngest struct {
	mock.Mock
}

func (m *MockSubmissionIngest) Submit(ctx context.Context, surveyID string, who service.Respondent, req *model.SubmitRequest) (*model.Submission, error) {
	args := m.Called(ctx, surveyID, who, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Submission), args.Error(1)
}

func (m *MockSubmissionIngest) HasSubmitted(ctx context.Context, surveyID, respondentID string) (bool, error) {
	args := m.Called(ctx, surveyID, respondentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionIngest) Capacity(ctx context.Context, surveyID string) (*model.Capacity, error) {
	args := m.Called(ctx, surveyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Capacity), args.Error(1)
}

func (m *MockSubmissionIngest) Questions(ctx context.Context, surveyID string) ([]model.PublicQuestion, error) {
	args := m.Called(ctx, surveyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PublicQuestion), args.Error(1)
}

type MockInsightsReader struct {
	mock.Mock
}

func (m *MockInsightsReader) SurveyInsights(ctx context.Context, surveyID, ownerID string, refresh bool) (*model.SurveyInsights, error) {
	args := m.Called(ctx, surveyID, ownerID, refresh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SurveyInsights), args.Error(1)
}

func (m *MockInsightsReader) Submissions(ctx context.Context, surveyID, ownerID string) ([]model.RespondentBundle, error) {
	args := m.Called(ctx, surveyID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RespondentBundle), args.Error(1)
}

// surveyRepoStub serves a single survey for the export path
type surveyRepoStub struct {
	survey *model.Survey
}

func (s *surveyRepoStub) Create(context.Context, *model.Survey) (string, error) { return "", nil }

func (s *surveyRepoStub) GetByID(_ context.Context, id string) (*model.Survey, error) {
	if s.survey == nil || s.survey.ID != id {
		return nil, nil
	}
	return s.survey, nil
}

func (s *surveyRepoStub) GetByOwnerID(context.Context, string) ([]*model.Survey, error) {
	return nil, nil
}

func (s *surveyRepoStub) SaveAnalytics(context.Context, string, []model.QuestionAnalytics) error {
	return nil
}

type requestOpts struct {
	vars       map[string]string
	ownerID    string
	respondent *model.RespondentClaims
}

func executeRequest(h http.HandlerFunc, method, target string, body interface{}, opts requestOpts) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, target, &buf)
	ctx := req.Context()
	if opts.ownerID != "" {
		ctx = context.WithValue(ctx, middleware.OwnerIDKey, opts.ownerID)
	}
	if opts.respondent != nil {
		ctx = context.WithValue(ctx, middleware.RespondentKey, opts.respondent)
	}
	req = mux.SetURLVars(req.WithContext(ctx), opts.vars)

	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func surveyVars(id string) map[string]string {
	return map[string]string{"surveyId": id}
}

func TestLogin(t *testing.T) {
	auth := new(MockAuthenticator)
	h := NewAuthHandler(auth, new(MockSurveyStore))

	auth.On("Login", "admin", "admin").Return(&model.LoginResponse{Token: "tok", OwnerID: "owner_1"}, nil)
	auth.On("Login", "admin", "wrong").Return(nil, service.ErrInvalidCredentials)

	rr := executeRequest(h.Login, http.MethodPost, "/v1/auth/login", model.LoginRequest{Username: "admin", Password: "admin"}, requestOpts{})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "tok", decodeBody(t, rr)["token"])

	rr = executeRequest(h.Login, http.MethodPost, "/v1/auth/login", model.LoginRequest{Username: "admin", Password: "wrong"}, requestOpts{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = executeRequest(h.Login, http.MethodPost, "/v1/auth/login", model.LoginRequest{Username: "admin"}, requestOpts{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(h.Login, http.MethodPost, "/v1/auth/login", "{not json", requestOpts{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	auth.AssertExpectations(t)
}

func TestJoin(t *testing.T) {
	auth := new(MockAuthenticator)
	surveys := new(MockSurveyStore)
	h := NewAuthHandler(auth, surveys)

	open := &model.Survey{ID: "s1"}
	full := &model.Survey{ID: "s2", NoOfParticipants: 1, ParticipantCounts: model.ParticipantCounts{Filled: 1}}
	surveys.On("Get", mock.Anything, "s1").Return(open, nil)
	surveys.On("Get", mock.Anything, "s2").Return(full, nil)
	surveys.On("Get", mock.Anything, "missing").Return(nil, service.ErrSurveyNotFound)
	auth.On("IssueRespondentToken", "s1", "Ann").Return(&model.JoinResponse{Token: "rt", RespondentID: "r1", SurveyID: "s1"}, nil)

	tests := []struct {
		name     string
		surveyID string
		body     interface{}
		want     int
	}{
		{"issues token with trimmed name", "s1", model.JoinRequest{Name: "  Ann "}, http.StatusCreated},
		{"blank name", "s1", model.JoinRequest{Name: "   "}, http.StatusBadRequest},
		{"full survey", "s2", model.JoinRequest{Name: "Bob"}, http.StatusConflict},
		{"unknown survey", "missing", model.JoinRequest{Name: "Bob"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := executeRequest(h.Join, http.MethodPost, "/v1/surveys/"+tt.surveyID+"/respondents", tt.body, requestOpts{vars: surveyVars(tt.surveyID)})
			assert.Equal(t, tt.want, rr.Code)
		})
	}
	auth.AssertNumberOfCalls(t, "IssueRespondentToken", 1)
}

func TestCreateSurvey(t *testing.T) {
	surveys := new(MockSurveyStore)
	h := NewSurveyHandler(surveys)

	verr := &service.ValidationError{Kind: service.ErrInvalidSurvey, Fields: map[string]string{"CreateSurveyRequest.Title": "required"}}
	surveys.On("Create", mock.Anything, "owner_1", mock.MatchedBy(func(r *model.CreateSurveyRequest) bool {
		return r.Title == ""
	})).Return(nil, verr)
	surveys.On("Create", mock.Anything, "owner_1", mock.MatchedBy(func(r *model.CreateSurveyRequest) bool {
		return r.Title == "Pulse"
	})).Return(&model.Survey{ID: "s1", OwnerID: "owner_1", Title: "Pulse"}, nil)

	rr := executeRequest(h.Create, http.MethodPost, "/v1/surveys", model.CreateSurveyRequest{Title: "Pulse"}, requestOpts{ownerID: "owner_1"})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "s1", decodeBody(t, rr)["id"])

	rr = executeRequest(h.Create, http.MethodPost, "/v1/surveys", model.CreateSurveyRequest{}, requestOpts{ownerID: "owner_1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, service.ErrInvalidSurvey.Error(), body["error"])
	assert.Equal(t, map[string]interface{}{"CreateSurveyRequest.Title": "required"}, body["fields"])

	rr = executeRequest(h.Create, http.MethodPost, "/v1/surveys", model.CreateSurveyRequest{Title: "Pulse"}, requestOpts{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetSurveyOwnership(t *testing.T) {
	surveys := new(MockSurveyStore)
	h := NewSurveyHandler(surveys)

	surveys.On("GetOwned", mock.Anything, "s1", "owner_1").Return(&model.Survey{ID: "s1"}, nil)
	surveys.On("GetOwned", mock.Anything, "s1", "owner_2").Return(nil, service.ErrNotOwner)
	surveys.On("List", mock.Anything, "owner_1").Return([]model.SurveySummary{{ID: "s1", QuestionCount: 2}}, nil)

	rr := executeRequest(h.Get, http.MethodGet, "/v1/surveys/s1", nil, requestOpts{vars: surveyVars("s1"), ownerID: "owner_1"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = executeRequest(h.Get, http.MethodGet, "/v1/surveys/s1", nil, requestOpts{vars: surveyVars("s1"), ownerID: "owner_2"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = executeRequest(h.List, http.MethodGet, "/v1/surveys", nil, requestOpts{ownerID: "owner_1"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["surveys"], 1)
}

func TestSubmit(t *testing.T) {
	ingest := new(MockSubmissionIngest)
	h := NewSubmissionHandler(ingest)

	claims := &model.RespondentClaims{SurveyID: "s1", RespondentID: "r1", RespondentName: "Ann"}
	who := service.Respondent{ID: "r1", Name: "Ann"}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ingest.On("Submit", mock.Anything, "s1", who, mock.Anything).Return(&model.Submission{ID: "sub1", SubmittedAt: at}, nil).Once()
	ingest.On("Submit", mock.Anything, "s1", who, mock.Anything).Return(nil, repository.ErrDuplicateSubmission).Once()

	req := model.SubmitRequest{Answers: []model.SubmissionAnswer{{QuestionID: "q1", Response: model.TextResponse("hi")}}}
	opts := requestOpts{vars: surveyVars("s1"), respondent: claims}

	rr := executeRequest(h.Submit, http.MethodPost, "/v1/surveys/s1/submit", req, opts)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "sub1", decodeBody(t, rr)["submissionId"])

	rr = executeRequest(h.Submit, http.MethodPost, "/v1/surveys/s1/submit", req, opts)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = executeRequest(h.Submit, http.MethodPost, "/v1/surveys/s1/submit", req, requestOpts{vars: surveyVars("s1")})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	ingest.AssertExpectations(t)
}

func TestSubmitRejectsInvalidAnswers(t *testing.T) {
	ingest := new(MockSubmissionIngest)
	h := NewSubmissionHandler(ingest)

	verr := &service.ValidationError{Kind: service.ErrInvalidSubmission, Fields: map[string]string{"answers[0]": "unknown question"}}
	ingest.On("Submit", mock.Anything, "s1", mock.Anything, mock.Anything).Return(nil, verr)

	req := model.SubmitRequest{Answers: []model.SubmissionAnswer{{QuestionID: "nope", Response: model.TextResponse("x")}}}
	rr := executeRequest(h.Submit, http.MethodPost, "/v1/surveys/s1/submit", req, requestOpts{
		vars:       surveyVars("s1"),
		respondent: &model.RespondentClaims{SurveyID: "s1", RespondentID: "r1"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, map[string]interface{}{"answers[0]": "unknown question"}, decodeBody(t, rr)["fields"])
}

func TestUserSubmittedAndCapacity(t *testing.T) {
	ingest := new(MockSubmissionIngest)
	h := NewSubmissionHandler(ingest)

	ingest.On("HasSubmitted", mock.Anything, "s1", "r1").Return(true, nil)
	ingest.On("Capacity", mock.Anything, "s1").Return(&model.Capacity{Filled: 3, Limit: 3, Full: true}, nil)
	ingest.On("Capacity", mock.Anything, "s9").Return(nil, errors.New("mongo down"))

	rr := executeRequest(h.UserSubmitted, http.MethodGet, "/v1/surveys/s1/user-submitted", nil, requestOpts{
		vars:       surveyVars("s1"),
		respondent: &model.RespondentClaims{SurveyID: "s1", RespondentID: "r1"},
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["submitted"])

	rr = executeRequest(h.MaxParticipants, http.MethodGet, "/v1/surveys/s1/max-participants", nil, requestOpts{vars: surveyVars("s1")})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["full"])

	rr = executeRequest(h.MaxParticipants, http.MethodGet, "/v1/surveys/s9/max-participants", nil, requestOpts{vars: surveyVars("s9")})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", decodeBody(t, rr)["error"])
}

func TestQuestionsForRespondent(t *testing.T) {
	ingest := new(MockSubmissionIngest)
	h := NewSubmissionHandler(ingest)

	ingest.On("Questions", mock.Anything, "s1").Return([]model.PublicQuestion{
		{QuestionID: "mood", QuestionText: "How are you?", QuestionType: model.QuestionTypeFivePoint},
		{QuestionID: "lunch", QuestionText: "Lunch?", QuestionType: model.QuestionTypeMultipleChoice,
			Options: []model.Option{{ID: "1", Text: "Pizza"}}},
	}, nil)
	ingest.On("Questions", mock.Anything, "gone").Return(nil, service.ErrSurveyNotFound)

	rr := executeRequest(h.Questions, http.MethodGet, "/v1/surveys/s1/questions", nil, requestOpts{
		vars:       surveyVars("s1"),
		respondent: &model.RespondentClaims{SurveyID: "s1", RespondentID: "r1"},
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"surveyId":"s1","questions":[
		{"questionId":"mood","questionText":"How are you?","questionType":"five_point"},
		{"questionId":"lunch","questionText":"Lunch?","questionType":"multiple_choice","options":[{"id":"1","text":"Pizza"}]}
	]}`, rr.Body.String())

	rr = executeRequest(h.Questions, http.MethodGet, "/v1/surveys/gone/questions", nil, requestOpts{vars: surveyVars("gone")})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnalyticsRefreshFlag(t *testing.T) {
	insights := new(MockInsightsReader)
	h := NewInsightsHandler(insights, nil)

	payload := &model.SurveyInsights{Mode: model.ModeSubmission}
	insights.On("SurveyInsights", mock.Anything, "s1", "owner_1", true).Return(payload, nil).Once()
	insights.On("SurveyInsights", mock.Anything, "s1", "owner_1", false).Return(payload, nil).Once()

	opts := requestOpts{vars: surveyVars("s1"), ownerID: "owner_1"}

	rr := executeRequest(h.Analytics, http.MethodGet, "/v1/surveys/s1/analytics?refresh=true", nil, opts)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "submission", decodeBody(t, rr)["mode"])

	rr = executeRequest(h.Analytics, http.MethodGet, "/v1/surveys/s1/analytics", nil, opts)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = executeRequest(h.Analytics, http.MethodGet, "/v1/surveys/s1/analytics?refresh=maybe", nil, opts)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	insights.AssertExpectations(t)
}

func TestSubmissionsList(t *testing.T) {
	insights := new(MockInsightsReader)
	h := NewInsightsHandler(insights, nil)

	insights.On("Submissions", mock.Anything, "s1", "owner_1").Return([]model.RespondentBundle{{RespondentID: "r1"}}, nil)
	insights.On("Submissions", mock.Anything, "s2", "owner_1").Return(nil, service.ErrSurveyNotFound)

	rr := executeRequest(h.Submissions, http.MethodGet, "/v1/surveys/s1/submissions", nil, requestOpts{vars: surveyVars("s1"), ownerID: "owner_1"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["respondents"], 1)

	rr = executeRequest(h.Submissions, http.MethodGet, "/v1/surveys/s2/submissions", nil, requestOpts{vars: surveyVars("s2"), ownerID: "owner_1"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExport(t *testing.T) {
	survey := &model.Survey{
		ID:      "s1",
		OwnerID: "owner_1",
		Title:   "Team/Pulse",
		Questions: []model.Question{{
			QuestionID:   "q1",
			QuestionText: "Anything else?",
			QuestionType: model.QuestionTypeFillIn,
			Answers: []model.Answer{
				{RespondentID: "u1", RespondentName: "Ann", Response: model.TextResponse("yes, please")},
			},
		}},
	}
	exporter := service.NewExportService(service.NewSurveyService(&surveyRepoStub{survey: survey}))
	h := NewInsightsHandler(new(MockInsightsReader), exporter)
	opts := requestOpts{vars: surveyVars("s1"), ownerID: "owner_1"}

	rr := executeRequest(h.Export, http.MethodGet, "/v1/surveys/s1/export?table="+string(export.TableIndividualResponses), nil, opts)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Team_Pulse-export.csv"`, rr.Header().Get("Content-Disposition"))
	assert.Contains(t, rr.Body.String(), `q1,Anything else?,fill_in,u1,Ann,,"yes, please"`)

	rr = executeRequest(h.Export, http.MethodGet, "/v1/surveys/s1/export", nil, opts)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, strings.Split(rr.Body.String(), "\n\n"), 3)

	rr = executeRequest(h.Export, http.MethodGet, "/v1/surveys/s1/export?table=bogus", nil, opts)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(h.Export, http.MethodGet, "/v1/surveys/s1/export", nil, requestOpts{vars: surveyVars("s1"), ownerID: "owner_2"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestExportWithoutQuestions(t *testing.T) {
	survey := &model.Survey{ID: "s1", OwnerID: "owner_1", Title: "Empty"}
	exporter := service.NewExportService(service.NewSurveyService(&surveyRepoStub{survey: survey}))
	h := NewInsightsHandler(new(MockInsightsReader), exporter)

	rr := executeRequest(h.Export, http.MethodGet, "/v1/surveys/s1/export", nil, requestOpts{vars: surveyVars("s1"), ownerID: "owner_1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
