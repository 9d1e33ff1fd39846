// Package export flattens a survey into the three tables of the CSV export:
// survey info, per-question analytics and individual responses.
package export

import (
	"fmt"
	"io"
	"strings"

	"surveyinsights/internal/analytics"
	"surveyinsights/internal/csvutil"
	"surveyinsights/internal/model"
)

// Table names one of the exported row sets
type Table string

const (
	TableSurveyInfo          Table = "surveyInfo"
	TableQuestionResponses   Table = "questionResponses"
	TableIndividualResponses Table = "individualResponses"
)

// Tables lists every table in export order
var Tables = []Table{TableSurveyInfo, TableQuestionResponses, TableIndividualResponses}

// Valid reports whether t names a known table
func (t Table) Valid() bool {
	for _, known := range Tables {
		if t == known {
			return true
		}
	}
	return false
}

// SurveyExport holds the three row sets of a survey
type SurveyExport struct {
	SurveyInfo          []csvutil.Record
	QuestionResponses   []csvutil.Record
	IndividualResponses []csvutil.Record
}

// Rows returns the records of one table
func (e SurveyExport) Rows(t Table) []csvutil.Record {
	switch t {
	case TableSurveyInfo:
		return e.SurveyInfo
	case TableQuestionResponses:
		return e.QuestionResponses
	case TableIndividualResponses:
		return e.IndividualResponses
	}
	return nil
}

// SurveyCSV is the serialized form of each table
type SurveyCSV struct {
	SurveyInfo          string
	QuestionResponses   string
	IndividualResponses string
}

// FormatSurvey builds the row sets. A malformed answer degrades to its
// string form in its own cell; only a survey without questions fails.
func FormatSurvey(survey *model.Survey) (SurveyExport, error) {
	if survey == nil || survey.Questions == nil {
		return SurveyExport{}, analytics.ErrNoQuestions
	}

	export := SurveyExport{
		SurveyInfo:          []csvutil.Record{surveyInfo(survey)},
		QuestionResponses:   make([]csvutil.Record, 0, len(survey.Questions)),
		IndividualResponses: []csvutil.Record{},
	}

	for _, q := range survey.Questions {
		qa := analytics.ComputeQuestionAnalytics(q, survey.ParticipantCounts.Filled)
		export.QuestionResponses = append(export.QuestionResponses, questionRow(q, qa))

		for _, ans := range q.Answers {
			export.IndividualResponses = append(export.IndividualResponses, csvutil.Record{
				{Key: "questionId", Value: q.QuestionID},
				{Key: "questionText", Value: q.QuestionText},
				{Key: "questionType", Value: q.QuestionType},
				{Key: "respondentId", Value: ans.RespondentID},
				{Key: "respondentName", Value: ans.RespondentName},
				{Key: "submissionId", Value: ans.SubmissionID},
				{Key: "response", Value: responseCell(ans.Response)},
			})
		}
	}
	return export, nil
}

// ExportSurveyToCSV serializes every table of the survey
func ExportSurveyToCSV(survey *model.Survey) (SurveyCSV, error) {
	e, err := FormatSurvey(survey)
	if err != nil {
		return SurveyCSV{}, err
	}
	return SurveyCSV{
		SurveyInfo:          csvutil.String(e.SurveyInfo),
		QuestionResponses:   csvutil.String(e.QuestionResponses),
		IndividualResponses: csvutil.String(e.IndividualResponses),
	}, nil
}

// WriteTable streams one table to w
func WriteTable(w io.Writer, e SurveyExport, t Table) error {
	if !t.Valid() {
		return fmt.Errorf("unknown export table %q", t)
	}
	return csvutil.Write(w, e.Rows(t))
}

// WriteCombined streams all tables in export order, separated by a blank
// line. An empty table still takes its place as an empty section.
func WriteCombined(w io.Writer, e SurveyExport) error {
	for i, t := range Tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n\n"); err != nil {
				return err
			}
		}
		if err := csvutil.Write(w, e.Rows(t)); err != nil {
			return err
		}
	}
	return nil
}

// Filename is "{title}-export.csv" with path and quote characters replaced
func Filename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "survey"
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"' || r < 0x20:
			return '_'
		}
		return r
	}, title)
	return clean + "-export.csv"
}

func surveyInfo(s *model.Survey) csvutil.Record {
	return csvutil.Record{
		{Key: "title", Value: s.Title},
		{Key: "description", Value: s.Description},
		{Key: "createdAt", Value: s.CreatedAt},
		{Key: "totalParticipants", Value: s.ParticipantCounts.Filled},
		{Key: "maxParticipants", Value: s.NoOfParticipants},
		{Key: "remainingParticipants", Value: s.ParticipantCounts.Remaining},
		{Key: "preferred_participants", Value: strings.Join(s.PreferredParticipants, ", ")},
	}
}

// questionRow always carries the same columns so the header taken from the
// first question covers every type.
func questionRow(q model.Question, qa model.QuestionAnalytics) csvutil.Record {
	var mostCommon any
	if qa.MostCommonResponse != "" {
		mostCommon = qa.MostCommonResponse
	}
	var distribution any
	if qa.Distribution != nil {
		distribution = qa.Distribution
	}
	var textResponses any
	if q.QuestionType == model.QuestionTypeFillIn {
		textResponses = qa.TextResponses
	}

	return csvutil.Record{
		{Key: "questionId", Value: q.QuestionID},
		{Key: "questionText", Value: q.QuestionText},
		{Key: "questionType", Value: q.QuestionType},
		{Key: "totalResponses", Value: qa.TotalResponses},
		{Key: "responseRate", Value: qa.ResponseRate},
		{Key: "distribution", Value: distribution},
		{Key: "mostCommonResponse", Value: mostCommon},
		{Key: "averageRating", Value: qa.AverageRating},
		{Key: "customInputs", Value: qa.CustomInputs},
		{Key: "responses", Value: textResponses},
		{Key: "unmatched", Value: qa.UnmatchedCount},
	}
}

func responseCell(r model.Response) any {
	if r.Shape == model.ShapeOther {
		// arbitrary stored values render through their string form
		return r.String()
	}
	return r.Value()
}
