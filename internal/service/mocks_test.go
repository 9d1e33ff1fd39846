package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"surveyinsights/internal/cache"
	"surveyinsights/internal/model"
)

// MockSurveyRepo is a mock type for the SurveyRepo interface
type MockSurveyRepo struct {
	mock.Mock
}

func (m *MockSurveyRepo) Create(ctx context.Context, survey *model.Survey) (string, error) {
	args := m.Called(ctx, survey)
	return args.String(0), args.Error(1)
}

func (m *MockSurveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Survey), args.Error(1)
}

func (m *MockSurveyRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Survey, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Survey), args.Error(1)
}

func (m *MockSurveyRepo) SaveAnalytics(ctx context.Context, surveyID string, analytics []model.QuestionAnalytics) error {
	args := m.Called(ctx, surveyID, analytics)
	return args.Error(0)
}

// MockSubmissionRepo is a mock type for the SubmissionRepo interface
type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Append(ctx context.Context, survey *model.Survey, sub *model.Submission) error {
	args := m.Called(ctx, survey, sub)
	return args.Error(0)
}

func (m *MockSubmissionRepo) HasSubmitted(ctx context.Context, surveyID, respondentID string) (bool, error) {
	args := m.Called(ctx, surveyID, respondentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionRepo) ListBySurvey(ctx context.Context, surveyID string) ([]model.Submission, error) {
	args := m.Called(ctx, surveyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockAnalyticsCache is a mock type for the AnalyticsCache interface
type MockAnalyticsCache struct {
	mock.Mock
}

func (m *MockAnalyticsCache) GetQuestionAnalytics(ctx context.Context, surveyID, questionID string, want cache.Stamp) (*model.QuestionAnalytics, error) {
	args := m.Called(ctx, surveyID, questionID, want)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.QuestionAnalytics), args.Error(1)
}

func (m *MockAnalyticsCache) SetQuestionAnalytics(ctx context.Context, surveyID string, stamp cache.Stamp, qa *model.QuestionAnalytics) error {
	args := m.Called(ctx, surveyID, stamp, qa)
	return args.Error(0)
}

func (m *MockAnalyticsCache) InvalidateSurvey(ctx context.Context, surveyID string) error {
	args := m.Called(ctx, surveyID)
	return args.Error(0)
}

type broadcast struct {
	surveyID string
	msgType  string
	payload  interface{}
}

// recordingBroadcaster keeps every event it is asked to send
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcast
}

func (b *recordingBroadcaster) BroadcastToOwners(surveyID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcast{surveyID: surveyID, msgType: msgType, payload: payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.msgType
	}
	return out
}
