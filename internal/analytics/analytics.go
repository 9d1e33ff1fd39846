// Package analytics reduces survey answer collections into per-question
// statistics and rebuilds per-respondent views. Everything here is a pure
// function of its input; nothing is mutated and nothing blocks.
package analytics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"surveyinsights/internal/model"
)

// ErrNoQuestions is returned for a survey document without a questions array
var ErrNoQuestions = errors.New("survey has no questions array")

var now = time.Now

var ratingLabels = []string{"1", "2", "3", "4", "5"}

// ComputeQuestionAnalytics reduces one question's answers into its statistics.
// participantsFilled is the denominator for response rates and percentages.
// Malformed answers never fail the computation; they are counted as unmatched.
func ComputeQuestionAnalytics(q model.Question, participantsFilled int) model.QuestionAnalytics {
	qa := model.QuestionAnalytics{
		QuestionID:     q.QuestionID,
		QuestionType:   q.QuestionType,
		TotalResponses: len(q.Answers),
		ComputedAt:     now(),
	}

	switch q.QuestionType {
	case model.QuestionTypeMultipleChoice:
		computeChoice(&qa, q, false)
	case model.QuestionTypeMultipleSelection:
		computeChoice(&qa, q, true)
	case model.QuestionTypeFivePoint:
		computeRating(&qa, q)
	case model.QuestionTypeFillIn:
		computeText(&qa, q)
	default:
		for _, ans := range q.Answers {
			addUnmatched(&qa, ans, fmt.Sprintf("unknown question type %q", q.QuestionType))
		}
	}

	qa.ResponseRate = ResponseRate(qa.TotalResponses, participantsFilled)
	qa.Percentages = percentages(qa.Distribution, participantsFilled)
	return qa
}

// ComputeSurveyAnalytics computes analytics for every question in declaration order
func ComputeSurveyAnalytics(survey *model.Survey) ([]model.QuestionAnalytics, error) {
	if survey == nil || survey.Questions == nil {
		return nil, ErrNoQuestions
	}
	out := make([]model.QuestionAnalytics, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		out = append(out, ComputeQuestionAnalytics(q, survey.ParticipantCounts.Filled))
	}
	return out, nil
}

// tally counts into buckets keyed by label, keeping declaration order.
// Duplicate labels collapse into the first bucket.
type tally struct {
	labels []string
	index  map[string]int
	counts []int
	custom [][]string
}

func newTally(labels []string) *tally {
	t := &tally{index: make(map[string]int, len(labels))}
	for _, l := range labels {
		if _, dup := t.index[l]; dup {
			continue
		}
		t.index[l] = len(t.labels)
		t.labels = append(t.labels, l)
	}
	t.counts = make([]int, len(t.labels))
	t.custom = make([][]string, len(t.labels))
	return t
}

func (t *tally) add(label, customInput string) bool {
	i, ok := t.index[label]
	if !ok {
		return false
	}
	t.counts[i]++
	if customInput != "" {
		t.custom[i] = append(t.custom[i], customInput)
	}
	return true
}

func (t *tally) distribution() model.Distribution {
	d := make(model.Distribution, len(t.labels))
	for i, l := range t.labels {
		d[i] = model.Bucket{Label: l, Count: t.counts[i]}
	}
	return d
}

// mostCommon returns the first label with the highest non-zero count
func (t *tally) mostCommon() string {
	best, top := "", 0
	for i, l := range t.labels {
		if t.counts[i] > top {
			best, top = l, t.counts[i]
		}
	}
	return best
}

func (t *tally) customInputs() []model.CustomInputs {
	var out []model.CustomInputs
	for i, l := range t.labels {
		if len(t.custom[i]) > 0 {
			out = append(out, model.CustomInputs{Option: l, Inputs: t.custom[i]})
		}
	}
	return out
}

func computeChoice(qa *model.QuestionAnalytics, q model.Question, multi bool) {
	labels := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		labels = append(labels, opt.Text)
	}
	t := newTally(labels)

	for _, ans := range q.Answers {
		r := ans.Response
		if multi {
			if r.Shape != model.ShapeList {
				addUnmatched(qa, ans, "expected a list of selections")
				continue
			}
			// Each selection is counted on its own; unknown ones are unmatched individually.
			for _, sel := range r.Selections {
				if t.add(sel.SelectedOption, sel.CustomInput) {
					qa.SelectionCount++
				} else {
					addUnmatched(qa, ans, fmt.Sprintf("unknown option %q", sel.SelectedOption))
				}
			}
			continue
		}

		var sel model.Selection
		switch r.Shape {
		case model.ShapeText:
			sel.SelectedOption = r.Text
		case model.ShapeChoice:
			sel = r.Choice
		default:
			addUnmatched(qa, ans, "expected an option or {selectedOption, customInput}")
			continue
		}
		if !t.add(sel.SelectedOption, sel.CustomInput) {
			addUnmatched(qa, ans, fmt.Sprintf("unknown option %q", sel.SelectedOption))
		}
	}

	qa.Distribution = t.distribution()
	qa.MostCommonResponse = t.mostCommon()
	qa.CustomInputs = t.customInputs()
}

func computeRating(qa *model.QuestionAnalytics, q model.Question) {
	t := newTally(ratingLabels)
	var sum, count int64
	for _, ans := range q.Answers {
		rating, ok := ans.Response.Rating()
		if !ok {
			addUnmatched(qa, ans, fmt.Sprintf("not an integer between %d and %d", model.RatingMin, model.RatingMax))
			continue
		}
		t.add(strconv.Itoa(rating), "")
		sum += int64(rating)
		count++
	}
	avg := Average(sum, count)
	qa.AverageRating = &avg
	qa.Distribution = t.distribution()
	qa.MostCommonResponse = t.mostCommon()
}

func computeText(qa *model.QuestionAnalytics, q model.Question) {
	for _, ans := range q.Answers {
		if ans.Response.Shape != model.ShapeText {
			addUnmatched(qa, ans, "expected text")
			continue
		}
		qa.TextResponses = append(qa.TextResponses, model.TextAnswer{
			RespondentID:   ans.RespondentID,
			RespondentName: ans.RespondentName,
			Response:       ans.Response.Text,
		})
	}
}

func addUnmatched(qa *model.QuestionAnalytics, ans model.Answer, reason string) {
	qa.UnmatchedCount++
	qa.Unmatched = append(qa.Unmatched, model.UnmatchedAnswer{
		RespondentID: ans.RespondentID,
		Response:     ans.Response,
		Reason:       reason,
	})
}

// Average is sum/count rounded to two decimals, 0 when count is zero
func Average(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(2).Float64()
	return f
}

// ResponseRate formats total/denominator as a percentage string such as "66.67%".
// A zero denominator yields "0%".
func ResponseRate(total, denominator int) string {
	if denominator <= 0 {
		return "0%"
	}
	return percent(total, denominator).Round(2).String() + "%"
}

func percent(n, denominator int) decimal.Decimal {
	return decimal.NewFromInt(int64(n)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(denominator)))
}

func percentages(d model.Distribution, denominator int) model.Percentages {
	if len(d) == 0 {
		return nil
	}
	out := make(model.Percentages, len(d))
	for i, b := range d {
		pct := 0.0
		if denominator > 0 {
			pct, _ = percent(b.Count, denominator).Round(1).Float64()
		}
		out[i] = model.Share{Label: b.Label, Percentage: pct}
	}
	return out
}
