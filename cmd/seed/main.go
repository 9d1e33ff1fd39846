package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyinsights/internal/config"
	"surveyinsights/internal/logging"
	"surveyinsights/internal/model"
	"surveyinsights/internal/repository"
	"surveyinsights/internal/service"
)

// Seeds two demo surveys for the configured owner: one whose answers were
// stored positionally without submission ids, and one filled through
// transactional submissions.
func main() {
	cfg := config.Load()
	logging.Bootstrap(cfg.Level, cfg.Format)
	log := logging.Log

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)
	ownerID := service.OwnerID(cfg.OwnerUsername)

	legacy := legacySurvey(ownerID)
	res, err := db.Collection(repository.SurveysCollection).InsertOne(ctx, legacy)
	if err != nil {
		log.WithError(err).Fatal("failed to insert legacy survey")
	}
	log.WithField("id", res.InsertedID).Info("seeded positional survey")

	surveyRepo := repository.NewSurveyRepo(db)
	submissionRepo := repository.NewSubmissionRepo(db)
	if err := submissionRepo.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Fatal("failed to create submission indexes")
	}

	workshop := workshopSurvey(ownerID)
	id, err := surveyRepo.Create(ctx, workshop)
	if err != nil {
		log.WithError(err).Fatal("failed to create workshop survey")
	}
	log.WithField("id", id).Info("seeded submission survey")

	for i, answers := range workshopAnswers() {
		sub := &model.Submission{
			ID:             uuid.NewString(),
			SurveyID:       id,
			RespondentID:   uuid.NewString(),
			RespondentName: []string{"Ana", "Ben", "Chi"}[i],
			Answers:        answers,
			SubmittedAt:    time.Now().Add(time.Duration(i) * time.Minute),
		}
		if err := submissionRepo.Append(ctx, workshop, sub); err != nil {
			log.WithError(err).Warn("could not append submission; transactions need a replica set")
			break
		}
	}

	log.WithField("owner", ownerID).Info("seed complete")
}

func legacySurvey(ownerID string) *model.Survey {
	now := time.Now()
	return &model.Survey{
		OwnerID:               ownerID,
		Title:                 "Campus Cafeteria Pulse",
		Description:           "Answers collected before submissions were tracked.",
		NoOfParticipants:      0,
		ParticipantCounts:     model.ParticipantCounts{Filled: 3},
		PreferredParticipants: []string{"students"},
		Questions: []model.Question{
			{
				QuestionID:   "food",
				QuestionText: "How would you rate the food?",
				QuestionType: model.QuestionTypeFivePoint,
				Answers: []model.Answer{
					{RespondentID: "legacy-1", Response: model.NumberResponse(4)},
					{RespondentID: "legacy-2", Response: model.TextResponse("5")},
					{RespondentID: "legacy-3", Response: model.NumberResponse(2)},
				},
			},
			{
				QuestionID:   "meal",
				QuestionText: "Which meal do you eat here most?",
				QuestionType: model.QuestionTypeMultipleChoice,
				Options: []model.Option{
					{ID: "b", Text: "Breakfast"},
					{ID: "l", Text: "Lunch"},
					{ID: "o", Text: "Other"},
				},
				Answers: []model.Answer{
					{RespondentID: "legacy-1", Response: model.TextResponse("Lunch")},
					{RespondentID: "legacy-2", Response: model.ChoiceResponse("Other", "late snack")},
					{RespondentID: "legacy-3", Response: model.TextResponse("Lunch")},
				},
			},
			{
				QuestionID:   "comment",
				QuestionText: "Anything we should change?",
				QuestionType: model.QuestionTypeFillIn,
				Answers: []model.Answer{
					{RespondentID: "legacy-1", Response: model.TextResponse("More vegetarian options")},
					{RespondentID: "legacy-3", Response: model.TextResponse("Longer hours, please")},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func workshopSurvey(ownerID string) *model.Survey {
	return &model.Survey{
		OwnerID:               ownerID,
		Title:                 "Go Workshop Feedback",
		Description:           "Tell us how the session went.",
		NoOfParticipants:      25,
		PreferredParticipants: []string{"attendees", "speakers"},
		Questions: []model.Question{
			{
				QuestionID:   "pace",
				QuestionText: "How was the pace?",
				QuestionType: model.QuestionTypeFivePoint,
			},
			{
				QuestionID:   "topics",
				QuestionText: "Which topics were useful?",
				QuestionType: model.QuestionTypeMultipleSelection,
				Options: []model.Option{
					{ID: "c", Text: "Concurrency"},
					{ID: "t", Text: "Testing"},
					{ID: "g", Text: "Generics"},
					{ID: "o", Text: "Other"},
				},
			},
			{
				QuestionID:   "next",
				QuestionText: "What should the next session cover?",
				QuestionType: model.QuestionTypeFillIn,
			},
		},
	}
}

func workshopAnswers() [][]model.SubmissionAnswer {
	return [][]model.SubmissionAnswer{
		{
			{QuestionID: "pace", Response: model.NumberResponse(4)},
			{QuestionID: "topics", Response: model.ListResponse(
				model.Selection{SelectedOption: "Concurrency"},
				model.Selection{SelectedOption: "Testing"},
			)},
			{QuestionID: "next", Response: model.TextResponse("Profiling")},
		},
		{
			{QuestionID: "pace", Response: model.NumberResponse(5)},
			{QuestionID: "topics", Response: model.ListResponse(
				model.Selection{SelectedOption: "Other", CustomInput: "error wrapping"},
			)},
		},
		{
			{QuestionID: "pace", Response: model.NumberResponse(3)},
			{QuestionID: "topics", Response: model.ListResponse(model.Selection{SelectedOption: "Generics"})},
			{QuestionID: "next", Response: model.TextResponse("Fuzzing, and more generics")},
		},
	}
}
