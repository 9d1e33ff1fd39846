package model

import "time"

// ParticipantCounts tracks how many participants have filled the survey
type ParticipantCounts struct {
	Filled    int `json:"filled" bson:"filled"`
	Remaining int `json:"remaining" bson:"remaining"`
}

// Survey is a persistent survey document owned by a creator
type Survey struct {
	ID                    string            `json:"id" bson:"_id,omitempty"`
	OwnerID               string            `json:"ownerId" bson:"ownerId"`
	Title                 string            `json:"title" bson:"title"`
	Description           string            `json:"description" bson:"description"`
	NoOfParticipants      int               `json:"no_of_participants" bson:"no_of_participants"` // 0 means unlimited
	ParticipantCounts     ParticipantCounts `json:"participantCounts" bson:"participantCounts"`
	PreferredParticipants []string          `json:"preferred_participants" bson:"preferred_participants"`
	Questions             []Question        `json:"questions" bson:"questions"`
	CreatedAt             time.Time         `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// Question returns the question with the given id, or nil
func (s *Survey) Question(questionID string) *Question {
	for i := range s.Questions {
		if s.Questions[i].QuestionID == questionID {
			return &s.Questions[i]
		}
	}
	return nil
}

// IsFull reports whether the participant limit has been reached
func (s *Survey) IsFull() bool {
	return s.NoOfParticipants > 0 && s.ParticipantCounts.Filled >= s.NoOfParticipants
}

// SurveySummary is the survey header returned alongside insights
type SurveySummary struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	NoOfParticipants      int               `json:"no_of_participants"`
	ParticipantCounts     ParticipantCounts `json:"participantCounts"`
	PreferredParticipants []string          `json:"preferred_participants"`
	QuestionCount         int               `json:"questionCount"`
	CreatedAt             time.Time         `json:"createdAt"`
}

// Summary strips questions and answers from the survey
func (s *Survey) Summary() SurveySummary {
	return SurveySummary{
		ID:                    s.ID,
		Title:                 s.Title,
		Description:           s.Description,
		NoOfParticipants:      s.NoOfParticipants,
		ParticipantCounts:     s.ParticipantCounts,
		PreferredParticipants: s.PreferredParticipants,
		QuestionCount:         len(s.Questions),
		CreatedAt:             s.CreatedAt,
	}
}

// CreateSurveyRequest is the request body for creating a survey
type CreateSurveyRequest struct {
	Title                 string     `json:"title" validate:"required,max=200"`
	Description           string     `json:"description" validate:"max=2000"`
	NoOfParticipants      int        `json:"no_of_participants" validate:"min=0"`
	PreferredParticipants []string   `json:"preferred_participants" validate:"dive,required"`
	Questions             []Question `json:"questions" validate:"required,min=1"`
}
