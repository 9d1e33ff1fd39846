package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"surveyinsights/internal/cache"
	"surveyinsights/internal/logging"
	"surveyinsights/internal/model"
	"surveyinsights/internal/repository"
)

// Respondent identifies who is submitting, taken from the respondent token
type Respondent struct {
	ID   string
	Name string
}

// SubmissionService is the ingestion path for respondent answers
type SubmissionService struct {
	surveyRepo     repository.SurveyRepo
	submissionRepo repository.SubmissionRepo
	analyticsCache cache.AnalyticsCache
	broadcaster    Broadcaster
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(surveyRepo repository.SurveyRepo, submissionRepo repository.SubmissionRepo, analyticsCache cache.AnalyticsCache) *SubmissionService {
	return &SubmissionService{
		surveyRepo:     surveyRepo,
		submissionRepo: submissionRepo,
		analyticsCache: analyticsCache,
		broadcaster:    noopBroadcaster{},
	}
}

// SetBroadcaster sets the broadcaster for owner notifications
func (s *SubmissionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Submit validates every answer against its question and stores the whole
// submission atomically.
func (s *SubmissionService) Submit(ctx context.Context, surveyID string, who Respondent, req *model.SubmitRequest) (*model.Submission, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey %s: %w", surveyID, err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	if survey.IsFull() {
		return nil, repository.ErrSurveyFull
	}

	answers, err := normalizeAnswers(survey, req)
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		ID:             uuid.New().String(),
		SurveyID:       surveyID,
		RespondentID:   who.ID,
		RespondentName: who.Name,
		Answers:        answers,
		SubmittedAt:    time.Now().UTC(),
	}

	log := logging.WithSurvey(surveyID).WithFields(logrus.Fields{
		"submissionId": sub.ID,
		"respondentId": who.ID,
	})

	if err := s.submissionRepo.Append(ctx, survey, sub); err != nil {
		if errors.Is(err, repository.ErrSurveyFull) || errors.Is(err, repository.ErrDuplicateSubmission) {
			log.WithError(err).Info("submission rejected")
			return nil, err
		}
		return nil, fmt.Errorf("store submission: %w", err)
	}
	log.WithField("answers", len(answers)).Info("submission stored")

	if err := s.analyticsCache.InvalidateSurvey(ctx, surveyID); err != nil {
		log.WithError(err).Warn("failed to invalidate analytics cache")
	}

	filled := survey.ParticipantCounts.Filled + 1
	s.broadcaster.BroadcastToOwners(surveyID, EventSubmissionReceived, map[string]interface{}{
		"surveyId":       surveyID,
		"submissionId":   sub.ID,
		"respondentId":   who.ID,
		"respondentName": who.Name,
		"submittedAt":    sub.SubmittedAt,
		"filled":         filled,
	})
	s.broadcaster.BroadcastToOwners(surveyID, EventAnalyticsInvalidated, map[string]interface{}{
		"surveyId": surveyID,
	})
	return sub, nil
}

// normalizeAnswers rejects unknown or repeated questions and answers whose
// shape does not fit the question type.
func normalizeAnswers(survey *model.Survey, req *model.SubmitRequest) ([]model.SubmissionAnswer, error) {
	if req == nil {
		req = &model.SubmitRequest{}
	}
	if err := validateStruct(ErrInvalidSubmission, req); err != nil {
		return nil, err
	}

	ve := newValidationError(ErrInvalidSubmission)
	seen := make(map[string]bool, len(req.Answers))
	out := make([]model.SubmissionAnswer, 0, len(req.Answers))
	for i, a := range req.Answers {
		field := fmt.Sprintf("answers[%d]", i)
		q := survey.Question(a.QuestionID)
		switch {
		case q == nil:
			ve.Fields[field] = fmt.Sprintf("unknown question %q", a.QuestionID)
			continue
		case seen[a.QuestionID]:
			ve.Fields[field] = fmt.Sprintf("question %q answered twice", a.QuestionID)
			continue
		}
		seen[a.QuestionID] = true

		resp, err := q.NormalizeResponse(a.Response)
		if err != nil {
			ve.Fields[field] = err.Error()
			continue
		}
		out = append(out, model.SubmissionAnswer{QuestionID: a.QuestionID, Response: resp})
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}
	return out, nil
}

// HasSubmitted reports whether the respondent already submitted the survey
func (s *SubmissionService) HasSubmitted(ctx context.Context, surveyID, respondentID string) (bool, error) {
	return s.submissionRepo.HasSubmitted(ctx, surveyID, respondentID)
}

// Questions returns the survey's questions without answers or analytics
func (s *SubmissionService) Questions(ctx context.Context, surveyID string) ([]model.PublicQuestion, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey %s: %w", surveyID, err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	out := make([]model.PublicQuestion, 0, len(survey.Questions))
	for i := range survey.Questions {
		out = append(out, survey.Questions[i].Public())
	}
	return out, nil
}

// Capacity reports whether the survey can take more participants
func (s *SubmissionService) Capacity(ctx context.Context, surveyID string) (*model.Capacity, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey %s: %w", surveyID, err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	return capacityOf(survey), nil
}
