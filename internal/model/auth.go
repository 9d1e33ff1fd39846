package model

import "github.com/golang-jwt/jwt/v5"

// OwnerClaims are JWT claims for survey owner authentication
type OwnerClaims struct {
	OwnerID string `json:"ownerId"`
	jwt.RegisteredClaims
}

// RespondentClaims are JWT claims for survey-scoped respondent tokens
type RespondentClaims struct {
	SurveyID       string `json:"surveyId"`
	RespondentID   string `json:"respondentId"`
	RespondentName string `json:"respondentName"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for owner login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token   string `json:"token"`
	OwnerID string `json:"ownerId"`
}

// JoinRequest is the request body for a respondent joining a survey
type JoinRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// JoinResponse carries the respondent token
type JoinResponse struct {
	Token        string `json:"token"`
	RespondentID string `json:"respondentId"`
	SurveyID     string `json:"surveyId"`
}
