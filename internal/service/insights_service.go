package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"surveyinsights/internal/analytics"
	"surveyinsights/internal/cache"
	"surveyinsights/internal/logging"
	"surveyinsights/internal/model"
	"surveyinsights/internal/repository"
)

// InsightsService serves computed analytics and respondent views to owners
type InsightsService struct {
	surveys        *SurveyService
	surveyRepo     repository.SurveyRepo
	submissionRepo repository.SubmissionRepo
	analyticsCache cache.AnalyticsCache
	workers        int
}

// NewInsightsService creates a new insights service. workers bounds how many
// questions are computed concurrently.
func NewInsightsService(surveys *SurveyService, surveyRepo repository.SurveyRepo, submissionRepo repository.SubmissionRepo, analyticsCache cache.AnalyticsCache, workers int) *InsightsService {
	if workers < 1 {
		workers = 1
	}
	return &InsightsService{
		surveys:        surveys,
		surveyRepo:     surveyRepo,
		submissionRepo: submissionRepo,
		analyticsCache: analyticsCache,
		workers:        workers,
	}
}

// SurveyInsights returns per-question analytics and respondent bundles.
// Cached analytics are used unless refresh is set; freshly computed ones are
// cached and stored back on the survey document.
func (s *InsightsService) SurveyInsights(ctx context.Context, surveyID, ownerID string, refresh bool) (*model.SurveyInsights, error) {
	survey, err := s.surveys.GetOwned(ctx, surveyID, ownerID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionAnalytics(ctx, survey, refresh)
	if err != nil {
		return nil, err
	}

	rec, err := analytics.Reconstruct(survey)
	if err != nil {
		return nil, err
	}

	return &model.SurveyInsights{
		Survey:      survey.Summary(),
		Questions:   questions,
		Respondents: rec.Bundles,
		Mode:        rec.Mode,
	}, nil
}

// Submissions returns respondent bundles built from stored submission records
func (s *InsightsService) Submissions(ctx context.Context, surveyID, ownerID string) ([]model.RespondentBundle, error) {
	survey, err := s.surveys.GetOwned(ctx, surveyID, ownerID)
	if err != nil {
		return nil, err
	}
	subs, err := s.submissionRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return analytics.BundlesFromSubmissions(survey, subs)
}

func (s *InsightsService) questionAnalytics(ctx context.Context, survey *model.Survey, refresh bool) ([]model.QuestionAnalytics, error) {
	if survey.Questions == nil {
		return nil, analytics.ErrNoQuestions
	}
	log := logging.WithSurvey(survey.ID)

	results := make([]model.QuestionAnalytics, len(survey.Questions))
	fresh := make([]bool, len(survey.Questions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, q := range survey.Questions {
		i, q := i, q
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stamp := cache.StampOf(survey, q)
			if !refresh {
				cached, err := s.analyticsCache.GetQuestionAnalytics(gctx, survey.ID, q.QuestionID, stamp)
				if err != nil {
					log.WithError(err).WithField("questionId", q.QuestionID).Warn("analytics cache read failed")
				} else if cached != nil {
					results[i] = *cached
					return nil
				}
			}

			qa := analytics.ComputeQuestionAnalytics(q, survey.ParticipantCounts.Filled)
			results[i] = qa
			fresh[i] = true
			if err := s.analyticsCache.SetQuestionAnalytics(gctx, survey.ID, stamp, &qa); err != nil {
				log.WithError(err).WithField("questionId", q.QuestionID).Warn("analytics cache write failed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var computed []model.QuestionAnalytics
	for i, ok := range fresh {
		if ok {
			computed = append(computed, results[i])
		}
	}
	if len(computed) > 0 {
		if err := s.surveyRepo.SaveAnalytics(ctx, survey.ID, computed); err != nil {
			log.WithError(err).Warn("failed to store analytics snapshot")
		} else {
			log.WithField("questions", len(computed)).Debug("analytics recomputed")
		}
	}
	return results, nil
}
