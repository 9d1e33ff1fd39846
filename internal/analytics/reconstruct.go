package analytics

import (
	"fmt"
	"sort"

	"surveyinsights/internal/model"
)

// Reconstruction is the per-respondent view of a survey and how it was built
type Reconstruction struct {
	Mode    model.ReconstructionMode
	Bundles []model.RespondentBundle
}

// ReconstructIndividualResponses rebuilds per-respondent bundles from the
// per-question answer collections. See Reconstruct.
func ReconstructIndividualResponses(survey *model.Survey) ([]model.RespondentBundle, error) {
	rec, err := Reconstruct(survey)
	if err != nil {
		return nil, err
	}
	return rec.Bundles, nil
}

// Reconstruct groups answers by submission id when every stored answer has
// one. Otherwise it falls back to positional alignment: the i-th answer of
// every question is assumed to belong to respondent i. Positional mode is
// only correct if the ingestion path appended each submission atomically.
func Reconstruct(survey *model.Survey) (Reconstruction, error) {
	if survey == nil || survey.Questions == nil {
		return Reconstruction{}, ErrNoQuestions
	}
	if submissionKeyed(survey) {
		return Reconstruction{Mode: model.ModeSubmission, Bundles: groupBySubmission(survey)}, nil
	}
	return Reconstruction{Mode: model.ModePositional, Bundles: groupByPosition(survey)}, nil
}

func submissionKeyed(survey *model.Survey) bool {
	found := false
	for _, q := range survey.Questions {
		for _, ans := range q.Answers {
			if ans.SubmissionID == "" {
				return false
			}
			found = true
		}
	}
	return found
}

// groupBySubmission orders bundles by first appearance, scanning questions in
// declaration order. A repeated answer to the same question is ignored.
func groupBySubmission(survey *model.Survey) []model.RespondentBundle {
	bundles := []model.RespondentBundle{}
	index := make(map[string]int)
	answered := make(map[string]map[string]bool)

	for _, q := range survey.Questions {
		for _, ans := range q.Answers {
			i, ok := index[ans.SubmissionID]
			if !ok {
				respondentID := ans.RespondentID
				if respondentID == "" {
					respondentID = ans.SubmissionID
				}
				i = len(bundles)
				index[ans.SubmissionID] = i
				answered[ans.SubmissionID] = make(map[string]bool)
				bundles = append(bundles, model.RespondentBundle{
					RespondentID:   respondentID,
					SubmissionID:   ans.SubmissionID,
					RespondentName: ans.RespondentName,
					Answers:        []model.BundleAnswer{},
				})
			}
			if answered[ans.SubmissionID][q.QuestionID] {
				continue
			}
			answered[ans.SubmissionID][q.QuestionID] = true
			if bundles[i].SubmittedAt == nil && !ans.AnsweredAt.IsZero() {
				at := ans.AnsweredAt
				bundles[i].SubmittedAt = &at
			}
			bundles[i].Answers = append(bundles[i].Answers, model.BundleAnswer{
				QuestionID: q.QuestionID,
				Response:   ans.Response,
			})
		}
	}
	return bundles
}

func groupByPosition(survey *model.Survey) []model.RespondentBundle {
	n := 0
	for _, q := range survey.Questions {
		if len(q.Answers) > 0 {
			n = len(q.Answers)
			break
		}
	}

	bundles := make([]model.RespondentBundle, 0, n)
	for i := 0; i < n; i++ {
		bundle := model.RespondentBundle{
			RespondentID: fmt.Sprintf("respondent_%d", i),
			Answers:      []model.BundleAnswer{},
		}
		for _, q := range survey.Questions {
			if i >= len(q.Answers) {
				continue
			}
			bundle.Answers = append(bundle.Answers, model.BundleAnswer{
				QuestionID: q.QuestionID,
				Response:   q.Answers[i].Response,
			})
		}
		bundles = append(bundles, bundle)
	}
	return bundles
}

// BundlesFromSubmissions builds bundles directly from submission records,
// ordered by submission time then id. Answers follow the survey's question
// order; answers to questions the survey does not declare are dropped.
func BundlesFromSubmissions(survey *model.Survey, submissions []model.Submission) ([]model.RespondentBundle, error) {
	if survey == nil || survey.Questions == nil {
		return nil, ErrNoQuestions
	}

	sorted := make([]model.Submission, len(submissions))
	copy(sorted, submissions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].SubmittedAt.Equal(sorted[j].SubmittedAt) {
			return sorted[i].SubmittedAt.Before(sorted[j].SubmittedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	bundles := make([]model.RespondentBundle, 0, len(sorted))
	for _, sub := range sorted {
		byQuestion := make(map[string]model.Response, len(sub.Answers))
		for _, a := range sub.Answers {
			if _, dup := byQuestion[a.QuestionID]; !dup {
				byQuestion[a.QuestionID] = a.Response
			}
		}

		submittedAt := sub.SubmittedAt
		bundle := model.RespondentBundle{
			RespondentID:   sub.RespondentID,
			SubmissionID:   sub.ID,
			RespondentName: sub.RespondentName,
			SubmittedAt:    &submittedAt,
			Answers:        []model.BundleAnswer{},
		}
		for _, q := range survey.Questions {
			if resp, ok := byQuestion[q.QuestionID]; ok {
				bundle.Answers = append(bundle.Answers, model.BundleAnswer{QuestionID: q.QuestionID, Response: resp})
			}
		}
		bundles = append(bundles, bundle)
	}
	return bundles, nil
}
