package model

import "time"

// SubmissionAnswer is one {questionId, response} pair of a submission
type SubmissionAnswer struct {
	QuestionID string   `json:"questionId" bson:"questionId" validate:"required"`
	Response   Response `json:"response" bson:"response"`
}

// Submission is everything one respondent sent for a survey, stored once
type Submission struct {
	ID             string             `json:"id" bson:"_id"`
	SurveyID       string             `json:"surveyId" bson:"surveyId"`
	RespondentID   string             `json:"respondentId" bson:"respondentId"`
	RespondentName string             `json:"respondentName,omitempty" bson:"respondentName,omitempty"`
	Answers        []SubmissionAnswer `json:"answers" bson:"answers"`
	SubmittedAt    time.Time          `json:"submittedAt" bson:"submittedAt"`
}

// SubmitRequest is the request body for submitting answers
type SubmitRequest struct {
	Answers []SubmissionAnswer `json:"answers" validate:"required,min=1,dive"`
}

// ReconstructionMode says how respondent bundles were correlated
type ReconstructionMode string

const (
	ModeSubmission ReconstructionMode = "submission" // grouped by submission id
	ModePositional ReconstructionMode = "positional" // legacy array-index alignment
)

// BundleAnswer is one answer inside a respondent bundle
type BundleAnswer struct {
	QuestionID string   `json:"questionId"`
	Response   Response `json:"response"`
}

// RespondentBundle is the per-respondent view of a survey. Never persisted.
type RespondentBundle struct {
	RespondentID   string         `json:"respondentId"`
	SubmissionID   string         `json:"submissionId,omitempty"`
	RespondentName string         `json:"respondentName,omitempty"`
	SubmittedAt    *time.Time     `json:"submittedAt,omitempty"`
	Answers        []BundleAnswer `json:"answers"`
}

// Capacity reports how many participants a survey can still take
type Capacity struct {
	Filled    int  `json:"filled"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Full      bool `json:"full"`
}

// SurveyInsights is the insights payload for a survey owner
type SurveyInsights struct {
	Survey      SurveySummary       `json:"survey"`
	Questions   []QuestionAnalytics `json:"questions"`
	Respondents []RespondentBundle  `json:"respondents"`
	Mode        ReconstructionMode  `json:"mode"`
}
