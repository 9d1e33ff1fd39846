package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyinsights/internal/model"
)

// SurveyRepo handles MongoDB operations for surveys
type SurveyRepo interface {
	Create(ctx context.Context, survey *model.Survey) (string, error)
	GetByID(ctx context.Context, id string) (*model.Survey, error)
	GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Survey, error)
	SaveAnalytics(ctx context.Context, surveyID string, analytics []model.QuestionAnalytics) error
}

type surveyRepo struct {
	collection *mongo.Collection
}

// NewSurveyRepo creates a new survey repository
func NewSurveyRepo(db *mongo.Database) SurveyRepo {
	return &surveyRepo{
		collection: db.Collection(SurveysCollection),
	}
}

func (r *surveyRepo) Create(ctx context.Context, survey *model.Survey) (string, error) {
	now := time.Now()
	survey.ID = ""
	survey.CreatedAt = now
	survey.UpdatedAt = now
	survey.ParticipantCounts = model.ParticipantCounts{Remaining: survey.NoOfParticipants}
	for i := range survey.Questions {
		if survey.Questions[i].Answers == nil {
			survey.Questions[i].Answers = []model.Answer{}
		}
	}

	result, err := r.collection.InsertOne(ctx, survey)
	if err != nil {
		return "", err
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", nil
	}
	survey.ID = oid.Hex()
	return survey.ID, nil
}

// GetByID returns nil, nil when the survey does not exist or id is not an ObjectID
func (r *surveyRepo) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var survey model.Survey
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&survey)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	survey.ID = id
	return &survey, nil
}

// GetByOwnerID lists an owner's surveys, newest first, without answers
func (r *surveyRepo) GetByOwnerID(ctx context.Context, ownerID string) ([]*model.Survey, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"questions.answers": 0})

	cursor, err := r.collection.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	surveys := []*model.Survey{}
	if err := cursor.All(ctx, &surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

// SaveAnalytics stores each computed summary on its question as
// questions.$.analytics. The stored copy is a convenience snapshot only.
func (r *surveyRepo) SaveAnalytics(ctx context.Context, surveyID string, analytics []model.QuestionAnalytics) error {
	if len(analytics) == 0 {
		return nil
	}
	oid, err := primitive.ObjectIDFromHex(surveyID)
	if err != nil {
		return err
	}

	writes := make([]mongo.WriteModel, 0, len(analytics))
	for i := range analytics {
		qa := analytics[i]
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": oid, "questions.questionId": qa.QuestionID}).
			SetUpdate(bson.M{"$set": bson.M{"questions.$.analytics": qa}}))
	}

	_, err = r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	return err
}
