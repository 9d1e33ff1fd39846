package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveyinsights/internal/model"
)

// AnalyticsCache holds computed question analytics in Redis. Entries are a
// disposable projection of the stored answers.
type AnalyticsCache interface {
	// GetQuestionAnalytics returns nil on a miss or when the entry was
	// computed from a different answer set than want.
	GetQuestionAnalytics(ctx context.Context, surveyID, questionID string, want Stamp) (*model.QuestionAnalytics, error)
	SetQuestionAnalytics(ctx context.Context, surveyID string, stamp Stamp, qa *model.QuestionAnalytics) error
	InvalidateSurvey(ctx context.Context, surveyID string) error
}

// Stamp identifies the answer set an entry was computed from. Answers are
// append-only, so any difference means the entry is stale.
type Stamp struct {
	Answers int `json:"answers"`
	Filled  int `json:"filled"`
}

// StampOf is the stamp of q's current answers within survey
func StampOf(survey *model.Survey, q model.Question) Stamp {
	return Stamp{Answers: len(q.Answers), Filled: survey.ParticipantCounts.Filled}
}

type cachedAnalytics struct {
	Stamp     Stamp                   `json:"stamp"`
	Analytics model.QuestionAnalytics `json:"analytics"`
}

type analyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a new analytics cache
func NewAnalyticsCache(client *redis.Client, ttl time.Duration) AnalyticsCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &analyticsCache{
		client: client,
		ttl:    ttl,
	}
}

// Key helpers
func (c *analyticsCache) questionKey(surveyID, questionID string) string {
	return fmt.Sprintf("survey:%s:q:%s:analytics", surveyID, questionID)
}

func (c *analyticsCache) indexKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:analytics:keys", surveyID)
}

func (c *analyticsCache) GetQuestionAnalytics(ctx context.Context, surveyID, questionID string, want Stamp) (*model.QuestionAnalytics, error) {
	data, err := c.client.Get(ctx, c.questionKey(surveyID, questionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entry cachedAnalytics
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, err
	}
	if entry.Stamp != want {
		return nil, nil
	}
	return &entry.Analytics, nil
}

func (c *analyticsCache) SetQuestionAnalytics(ctx context.Context, surveyID string, stamp Stamp, qa *model.QuestionAnalytics) error {
	data, err := json.Marshal(cachedAnalytics{Stamp: stamp, Analytics: *qa})
	if err != nil {
		return err
	}
	key := c.questionKey(surveyID, qa.QuestionID)

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.SAdd(ctx, c.indexKey(surveyID), key)
	pipe.Expire(ctx, c.indexKey(surveyID), c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// InvalidateSurvey drops every cached question of the survey
func (c *analyticsCache) InvalidateSurvey(ctx context.Context, surveyID string) error {
	index := c.indexKey(surveyID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, append(keys, index)...).Err()
}
