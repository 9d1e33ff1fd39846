package service

import (
	"context"
	"fmt"
	"io"

	"surveyinsights/internal/export"
	"surveyinsights/internal/logging"
)

// ExportService streams survey CSV exports to owners
type ExportService struct {
	surveys *SurveyService
}

// NewExportService creates a new export service
func NewExportService(surveys *SurveyService) *ExportService {
	return &ExportService{surveys: surveys}
}

// ExportFile is a prepared export waiting to be written
type ExportFile struct {
	Filename string
	write    func(io.Writer) error
}

// Stream writes the CSV to w
func (f *ExportFile) Stream(w io.Writer) error {
	return f.write(w)
}

// Export prepares the CSV for one table, or all three when table is empty.
// Rows are built before anything is written so failures surface before
// response headers go out.
func (s *ExportService) Export(ctx context.Context, surveyID, ownerID string, table export.Table) (*ExportFile, error) {
	if table != "" && !table.Valid() {
		return nil, fmt.Errorf("%w: unknown table %q", ErrInvalidExport, table)
	}

	survey, err := s.surveys.GetOwned(ctx, surveyID, ownerID)
	if err != nil {
		return nil, err
	}

	rows, err := export.FormatSurvey(survey)
	if err != nil {
		return nil, err
	}
	logging.WithSurvey(surveyID).WithField("table", string(table)).Info("survey exported")

	return &ExportFile{
		Filename: export.Filename(survey.Title),
		write: func(w io.Writer) error {
			if table == "" {
				return export.WriteCombined(w, rows)
			}
			return export.WriteTable(w, rows, table)
		},
	}, nil
}
