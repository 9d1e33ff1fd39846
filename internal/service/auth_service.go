package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"surveyinsights/internal/config"
	"surveyinsights/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles owner and respondent authentication
type AuthService struct {
	ownerUsername string
	ownerPassword string
	jwtSecret     []byte
	tokenTTL      time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		ownerUsername: cfg.OwnerUsername,
		ownerPassword: cfg.OwnerPassword,
		jwtSecret:     []byte(cfg.JWTSecret),
		tokenTTL:      ttl,
	}
}

// OwnerID derives a stable owner id from the username, so surveys stay
// owned across logins.
func OwnerID(username string) string {
	return "owner_" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(username))).String()[:8]
}

// Login validates owner credentials and returns a signed token
func (s *AuthService) Login(username, password string) (*model.LoginResponse, error) {
	if username != s.ownerUsername || password != s.ownerPassword {
		return nil, ErrInvalidCredentials
	}

	ownerID := OwnerID(username)
	now := time.Now()
	claims := &model.OwnerClaims{
		OwnerID: ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:   tokenString,
		OwnerID: ownerID,
	}, nil
}

// ValidateOwnerToken validates an owner JWT and returns claims
func (s *AuthService) ValidateOwnerToken(tokenString string) (*model.OwnerClaims, error) {
	claims := &model.OwnerClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.OwnerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueRespondentToken creates a survey-scoped token for a new respondent.
// Every call mints a new respondent id; the duplicate-submission guard is
// per token, not per person.
func (s *AuthService) IssueRespondentToken(surveyID, name string) (*model.JoinResponse, error) {
	respondentID := uuid.New().String()
	now := time.Now()
	claims := &model.RespondentClaims{
		SurveyID:       surveyID,
		RespondentID:   respondentID,
		RespondentName: name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &model.JoinResponse{
		Token:        tokenString,
		RespondentID: respondentID,
		SurveyID:     surveyID,
	}, nil
}

// ValidateRespondentToken validates a respondent JWT and returns claims
func (s *AuthService) ValidateRespondentToken(tokenString string) (*model.RespondentClaims, error) {
	claims := &model.RespondentClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.SurveyID == "" || claims.RespondentID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
