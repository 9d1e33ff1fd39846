package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"surveyinsights/internal/logging"
	"surveyinsights/internal/model"
	"surveyinsights/internal/repository"
)

// SurveyService handles survey creation and lookup
type SurveyService struct {
	surveyRepo repository.SurveyRepo
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo) *SurveyService {
	return &SurveyService{
		surveyRepo: surveyRepo,
	}
}

// Create validates and stores a new survey for ownerID
func (s *SurveyService) Create(ctx context.Context, ownerID string, req *model.CreateSurveyRequest) (*model.Survey, error) {
	if err := validateStruct(ErrInvalidSurvey, req); err != nil {
		return nil, err
	}

	questions := make([]model.Question, len(req.Questions))
	seen := make(map[string]bool, len(req.Questions))
	ve := newValidationError(ErrInvalidSurvey)
	for i, q := range req.Questions {
		if q.QuestionID == "" {
			q.QuestionID = uuid.New().String()[:8]
		}
		q.Answers = []model.Answer{}
		q.Analytics = nil
		if !q.QuestionType.NeedsOptions() && q.QuestionType != model.QuestionTypeFivePoint {
			q.Options = nil
		}
		field := fmt.Sprintf("questions[%d]", i)
		if err := q.Validate(); err != nil {
			ve.Fields[field] = err.Error()
		} else if seen[q.QuestionID] {
			ve.Fields[field] = fmt.Sprintf("duplicate question id %q", q.QuestionID)
		}
		seen[q.QuestionID] = true
		questions[i] = q
	}
	if len(ve.Fields) > 0 {
		return nil, ve
	}

	survey := &model.Survey{
		OwnerID:               ownerID,
		Title:                 req.Title,
		Description:           req.Description,
		NoOfParticipants:      req.NoOfParticipants,
		PreferredParticipants: req.PreferredParticipants,
		Questions:             questions,
	}
	if survey.PreferredParticipants == nil {
		survey.PreferredParticipants = []string{}
	}

	id, err := s.surveyRepo.Create(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	survey.ID = id
	logging.WithSurvey(id).WithField("questions", len(questions)).Info("survey created")
	return survey, nil
}

// Get returns a survey, or ErrSurveyNotFound
func (s *SurveyService) Get(ctx context.Context, surveyID string) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("load survey %s: %w", surveyID, err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	return survey, nil
}

// GetOwned returns a survey only when ownerID owns it
func (s *SurveyService) GetOwned(ctx context.Context, surveyID, ownerID string) (*model.Survey, error) {
	survey, err := s.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return survey, nil
}

// List returns the owner's surveys as summaries
func (s *SurveyService) List(ctx context.Context, ownerID string) ([]model.SurveySummary, error) {
	surveys, err := s.surveyRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	out := make([]model.SurveySummary, 0, len(surveys))
	for _, survey := range surveys {
		out = append(out, survey.Summary())
	}
	return out, nil
}

func capacityOf(survey *model.Survey) *model.Capacity {
	c := &model.Capacity{
		Filled: survey.ParticipantCounts.Filled,
		Limit:  survey.NoOfParticipants,
		Full:   survey.IsFull(),
	}
	if c.Limit > 0 {
		c.Remaining = c.Limit - c.Filled
		if c.Remaining < 0 {
			c.Remaining = 0
		}
	}
	return c
}
