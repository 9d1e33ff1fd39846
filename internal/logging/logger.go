package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Bootstrap runs so
// packages can log from tests without setup.
var Log = logrus.New()

// Bootstrap configures Log. format is "json" or "text"; an unknown level
// falls back to info.
func Bootstrap(level, format string) {
	logger := &logrus.Logger{
		Out:   os.Stdout,
		Hooks: make(logrus.LevelHooks),
		Formatter: &logrus.TextFormatter{
			FullTimestamp: true,
		},
		Level:    logrus.InfoLevel,
		ExitFunc: os.Exit,
	}

	if strings.EqualFold(format, "json") {
		logger.Formatter = &logrus.JSONFormatter{}
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetReportCaller(lvl >= logrus.DebugLevel)

	Log = logger
	if err != nil && level != "" {
		Log.Warnf("unknown log level '%s', using info", level)
	}
}

// WithSurvey returns an entry tagged with the survey id
func WithSurvey(surveyID string) *logrus.Entry {
	return Log.WithField("surveyId", surveyID)
}
