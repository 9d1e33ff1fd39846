package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"surveyinsights/internal/config"
	"surveyinsights/internal/model"
)

func TestCreateSurvey(t *testing.T) {
	repo := new(MockSurveyRepo)
	svc := NewSurveyService(repo)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(s *model.Survey) bool {
		return s.OwnerID == "owner_1" && len(s.Questions) == 2 && s.Questions[1].QuestionID != ""
	})).Return("65f000000000000000000009", nil)

	survey, err := svc.Create(ctx, "owner_1", &model.CreateSurveyRequest{
		Title:            "Pulse",
		NoOfParticipants: 10,
		Questions: []model.Question{
			{QuestionID: "q1", QuestionType: model.QuestionTypeFivePoint, Answers: []model.Answer{{RespondentID: "smuggled"}}},
			{QuestionType: model.QuestionTypeFillIn, Options: []model.Option{{Text: "ignored"}}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "65f000000000000000000009", survey.ID)
	assert.Empty(t, survey.Questions[0].Answers)
	assert.Nil(t, survey.Questions[1].Options)
	assert.Equal(t, []string{}, survey.PreferredParticipants)
	repo.AssertExpectations(t)
}

func TestCreateSurveyValidation(t *testing.T) {
	svc := NewSurveyService(new(MockSurveyRepo))
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner_1", &model.CreateSurveyRequest{})
	assert.ErrorIs(t, err, ErrInvalidSurvey)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "required", ve.Fields["CreateSurveyRequest.Title"])

	_, err = svc.Create(ctx, "owner_1", &model.CreateSurveyRequest{
		Title: "Pulse",
		Questions: []model.Question{
			{QuestionID: "q1", QuestionType: model.QuestionTypeMultipleChoice},
			{QuestionID: "q2", QuestionType: "slider"},
			{QuestionID: "q2", QuestionType: model.QuestionTypeFillIn},
		},
	})
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 3)
	assert.Contains(t, ve.Fields["questions[2]"], "duplicate")
}

func TestListSurveys(t *testing.T) {
	repo := new(MockSurveyRepo)
	svc := NewSurveyService(repo)
	ctx := context.Background()
	repo.On("GetByOwnerID", ctx, "owner_1").Return([]*model.Survey{{ID: "a", Title: "A", Questions: []model.Question{{}}}}, nil)

	list, err := svc.List(ctx, "owner_1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].QuestionCount)
}

func TestAuthOwnerLogin(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{JWTSecret: "s3cret", OwnerUsername: "admin", OwnerPassword: "pw", TokenTTL: time.Hour})

	_, err := auth.Login("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := auth.Login("admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, OwnerID("admin"), resp.OwnerID)

	claims, err := auth.ValidateOwnerToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.OwnerID, claims.OwnerID)

	again, err := auth.Login("admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, resp.OwnerID, again.OwnerID)
}

func TestAuthRespondentToken(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{JWTSecret: "s3cret", OwnerUsername: "admin", OwnerPassword: "pw"})

	join, err := auth.IssueRespondentToken("survey-1", "Ann")
	require.NoError(t, err)

	claims, err := auth.ValidateRespondentToken(join.Token)
	require.NoError(t, err)
	assert.Equal(t, "survey-1", claims.SurveyID)
	assert.Equal(t, join.RespondentID, claims.RespondentID)
	assert.Equal(t, "Ann", claims.RespondentName)

	// token kinds are not interchangeable
	_, err = auth.ValidateOwnerToken(join.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(config.AuthConfig{JWTSecret: "different"})
	_, err = other.ValidateRespondentToken(join.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthRespondentTokenPerJoin(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{JWTSecret: "s3cret"})

	first, err := auth.IssueRespondentToken("survey-1", "Ann")
	require.NoError(t, err)
	second, err := auth.IssueRespondentToken("survey-1", "Ann")
	require.NoError(t, err)

	assert.NotEqual(t, first.RespondentID, second.RespondentID)
}
