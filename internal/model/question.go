package model

import (
	"fmt"
	"strings"
)

// QuestionType defines the type of question
type QuestionType string

const (
	QuestionTypeMultipleChoice    QuestionType = "multiple_choice"    // One option, optional custom input
	QuestionTypeFivePoint         QuestionType = "five_point"         // Integer rating 1-5
	QuestionTypeFillIn            QuestionType = "fill_in"            // Free text
	QuestionTypeMultipleSelection QuestionType = "multiple_selection" // Several options, each with optional custom input
)

const (
	RatingMin = 1
	RatingMax = 5
)

// Valid reports whether t is a known question type
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeFivePoint, QuestionTypeFillIn, QuestionTypeMultipleSelection:
		return true
	}
	return false
}

// NeedsOptions reports whether the type requires declared options
func (t QuestionType) NeedsOptions() bool {
	return t == QuestionTypeMultipleChoice || t == QuestionTypeMultipleSelection
}

// Option is a declared choice of a question
type Option struct {
	ID   string `json:"id" bson:"id"`
	Text string `json:"text" bson:"text"`
}

// Question belongs to a survey and holds its answer collection
type Question struct {
	QuestionID   string             `json:"questionId" bson:"questionId"`
	QuestionText string             `json:"questionText" bson:"questionText"`
	QuestionType QuestionType       `json:"questionType" bson:"questionType"`
	Options      []Option           `json:"options,omitempty" bson:"options,omitempty"`
	Answers      []Answer           `json:"answers" bson:"answers"`
	Analytics    *QuestionAnalytics `json:"analytics,omitempty" bson:"analytics,omitempty"`
}

// PublicQuestion is what a respondent sees of a question
type PublicQuestion struct {
	QuestionID   string       `json:"questionId"`
	QuestionText string       `json:"questionText"`
	QuestionType QuestionType `json:"questionType"`
	Options      []Option     `json:"options,omitempty"`
}

// Public strips answers and analytics from q
func (q *Question) Public() PublicQuestion {
	return PublicQuestion{
		QuestionID:   q.QuestionID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Options:      q.Options,
	}
}

// HasOption reports whether text matches a declared option
func (q *Question) HasOption(text string) bool {
	for _, opt := range q.Options {
		if opt.Text == text {
			return true
		}
	}
	return false
}

// Validate checks the question definition itself (not its answers)
func (q *Question) Validate() error {
	if strings.TrimSpace(q.QuestionID) == "" {
		return fmt.Errorf("question id is required")
	}
	if !q.QuestionType.Valid() {
		return fmt.Errorf("question %s: unknown type %q", q.QuestionID, q.QuestionType)
	}
	if q.QuestionType.NeedsOptions() && len(q.Options) == 0 {
		return fmt.Errorf("question %s: options are required for %s questions", q.QuestionID, q.QuestionType)
	}
	seen := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		if opt.Text == "" {
			return fmt.Errorf("question %s: option text is required", q.QuestionID)
		}
		if seen[opt.Text] {
			return fmt.Errorf("question %s: duplicate option %q", q.QuestionID, opt.Text)
		}
		seen[opt.Text] = true
	}
	return nil
}

// NormalizeResponse validates r against the question type and returns the
// canonical stored form. five_point numeric strings become numbers.
func (q *Question) NormalizeResponse(r Response) (Response, error) {
	switch q.QuestionType {
	case QuestionTypeMultipleChoice:
		switch r.Shape {
		case ShapeText:
			if !q.HasOption(r.Text) {
				return r, fmt.Errorf("unknown option %q", r.Text)
			}
			return r, nil
		case ShapeChoice:
			if !q.HasOption(r.Choice.SelectedOption) {
				return r, fmt.Errorf("unknown option %q", r.Choice.SelectedOption)
			}
			return r, nil
		}
		return r, fmt.Errorf("multiple_choice response must be an option or {selectedOption, customInput}")

	case QuestionTypeFivePoint:
		rating, ok := r.Rating()
		if !ok {
			return r, fmt.Errorf("five_point response must be an integer between %d and %d", RatingMin, RatingMax)
		}
		return NumberResponse(float64(rating)), nil

	case QuestionTypeFillIn:
		if r.Shape != ShapeText {
			return r, fmt.Errorf("fill_in response must be text")
		}
		return r, nil

	case QuestionTypeMultipleSelection:
		if r.Shape != ShapeList || len(r.Selections) == 0 {
			return r, fmt.Errorf("multiple_selection response must be a non-empty list of options")
		}
		seen := make(map[string]bool, len(r.Selections))
		for _, sel := range r.Selections {
			if !q.HasOption(sel.SelectedOption) {
				return r, fmt.Errorf("unknown option %q", sel.SelectedOption)
			}
			if seen[sel.SelectedOption] {
				return r, fmt.Errorf("option %q selected twice", sel.SelectedOption)
			}
			seen[sel.SelectedOption] = true
		}
		return r, nil
	}
	return r, fmt.Errorf("unknown question type %q", q.QuestionType)
}
