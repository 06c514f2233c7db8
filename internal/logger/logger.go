package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is our abstract logging interface.
type Logger interface {
	Info(msg string)
	Error(err error)
	WithFields(fields map[string]any) Logger
}

// LogrusLogger implements Logger using logrus.
//
// Output goes to stderr, plus a log file when a path is given. Stdout
// is never written: in monitoring mode it carries exactly the status
// line the health-check system parses.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger creates a logrus logger. An empty filepath means
// stderr only.
func NewLogrusLogger(filepath string) (Logger, error) {
	var out io.Writer = os.Stderr
	if filepath != "" {
		file, err := os.OpenFile(filepath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(os.Stderr, file)
	}

	baseLogger := logrus.New()
	baseLogger.SetOutput(out)
	baseLogger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	baseLogger.SetLevel(logrus.InfoLevel)

	return &LogrusLogger{
		entry: logrus.NewEntry(baseLogger),
	}, nil
}

func (l *LogrusLogger) Info(msg string) {
	l.entry.Info(msg)
}

func (l *LogrusLogger) Error(err error) {
	l.entry.Error(err)
}

func (l *LogrusLogger) WithFields(fields map[string]any) Logger {
	return &LogrusLogger{
		entry: l.entry.WithFields(logrus.Fields(fields)),
	}
}
