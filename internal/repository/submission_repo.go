package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyinsights/internal/model"
)

const (
	SurveysCollection     = "surveys"
	SubmissionsCollection = "submissions"
)

var (
	ErrSurveyFull          = errors.New("survey has reached its participant limit")
	ErrDuplicateSubmission = errors.New("respondent has already submitted this survey")
)

// SubmissionRepo stores submissions and appends their answers to the survey
type SubmissionRepo interface {
	// Append records sub and pushes every answer into its question in one
	// transaction. Either all answers land or none do.
	Append(ctx context.Context, survey *model.Survey, sub *model.Submission) error
	HasSubmitted(ctx context.Context, surveyID, respondentID string) (bool, error)
	ListBySurvey(ctx context.Context, surveyID string) ([]model.Submission, error)
	EnsureIndexes(ctx context.Context) error
}

type submissionRepo struct {
	client      *mongo.Client
	surveys     *mongo.Collection
	submissions *mongo.Collection
}

// NewSubmissionRepo creates a submission repository. Append needs a replica
// set or sharded cluster for transactions.
func NewSubmissionRepo(db *mongo.Database) SubmissionRepo {
	return &submissionRepo{
		client:      db.Client(),
		surveys:     db.Collection(SurveysCollection),
		submissions: db.Collection(SubmissionsCollection),
	}
}

func (r *submissionRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.submissions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "surveyId", Value: 1}, {Key: "respondentId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("survey_respondent_unique"),
		},
		{
			Keys:    bson.D{{Key: "surveyId", Value: 1}, {Key: "submittedAt", Value: 1}},
			Options: options.Index().SetName("survey_submitted_at"),
		},
	})
	return err
}

func (r *submissionRepo) Append(ctx context.Context, survey *model.Survey, sub *model.Submission) error {
	oid, err := primitive.ObjectIDFromHex(survey.ID)
	if err != nil {
		return fmt.Errorf("survey id %q: %w", survey.ID, err)
	}
	filter, update, arrayFilters := appendUpdate(oid, survey.NoOfParticipants > 0, sub)

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := r.submissions.InsertOne(sc, sub); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, ErrDuplicateSubmission
			}
			return nil, err
		}

		opts := options.Update().SetArrayFilters(options.ArrayFilters{Filters: arrayFilters})
		res, err := r.surveys.UpdateOne(sc, filter, update, opts)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, ErrSurveyFull
		}
		return nil, nil
	})
	return err
}

// appendUpdate builds the single-document update that pushes each answer to
// its question and bumps the participant counters. The filter only matches
// while the survey is below its limit.
func appendUpdate(surveyID primitive.ObjectID, limited bool, sub *model.Submission) (bson.M, bson.M, []interface{}) {
	push := bson.M{}
	arrayFilters := make([]interface{}, 0, len(sub.Answers))
	for i, a := range sub.Answers {
		ident := fmt.Sprintf("q%d", i)
		push[fmt.Sprintf("questions.$[%s].answers", ident)] = model.Answer{
			RespondentID:   sub.RespondentID,
			RespondentName: sub.RespondentName,
			SubmissionID:   sub.ID,
			Response:       a.Response,
			AnsweredAt:     sub.SubmittedAt,
		}
		arrayFilters = append(arrayFilters, bson.M{ident + ".questionId": a.QuestionID})
	}

	inc := bson.M{"participantCounts.filled": 1}
	if limited {
		inc["participantCounts.remaining"] = -1
	}

	filter := bson.M{
		"_id": surveyID,
		"$or": bson.A{
			bson.M{"no_of_participants": bson.M{"$lte": 0}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$participantCounts.filled", "$no_of_participants"}}},
		},
	}
	update := bson.M{
		"$push": push,
		"$inc":  inc,
		"$set":  bson.M{"updatedAt": sub.SubmittedAt},
	}
	return filter, update, arrayFilters
}

func (r *submissionRepo) HasSubmitted(ctx context.Context, surveyID, respondentID string) (bool, error) {
	n, err := r.submissions.CountDocuments(ctx,
		bson.M{"surveyId": surveyID, "respondentId": respondentID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *submissionRepo) ListBySurvey(ctx context.Context, surveyID string) ([]model.Submission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.submissions.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []model.Submission{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
