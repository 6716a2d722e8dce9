package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logging contract used across the service
type Logger interface {
	Info(ctx context.Context, message string, fields map[string]interface{})
	Error(ctx context.Context, message string, err error, fields map[string]interface{})
	Warn(ctx context.Context, message string, fields map[string]interface{})
	Debug(ctx context.Context, message string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
}

type ctxKey string

// CorrelationIDKey is the context key the HTTP layer stores the request id under
const CorrelationIDKey ctxKey = "correlation_id"

// WithCorrelationID returns ctx carrying id
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// CorrelationID extracts the request id, or "" when absent
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

type structuredLogger struct {
	logger *logrus.Logger
	fields map[string]interface{}
}

// LogEntry is the JSON shape attached to each record as structured_data
type LogEntry struct {
	Timestamp     string                 `json:"timestamp"`
	Level         string                 `json:"level"`
	Message       string                 `json:"message"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Fields        map[string]interface{} `json:"fields,omitempty"`
}

type LoggerConfig struct {
	Level               string
	Format              string
	CorrelationIDHeader string
	EnableRequestLog    bool
	ServiceName         string
	Output              io.Writer
}

func NewStructuredLogger(config LoggerConfig) Logger {
	logrusLogger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrusLogger.SetLevel(level)

	if config.Format == "json" {
		logrusLogger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	} else {
		logrusLogger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339Nano,
			FullTimestamp:   true,
		})
	}

	if config.Output != nil {
		logrusLogger.SetOutput(config.Output)
	} else {
		logrusLogger.SetOutput(os.Stdout)
	}

	return &structuredLogger{
		logger: logrusLogger,
		fields: map[string]interface{}{
			"service": config.ServiceName,
		},
	}
}

// NewNopLogger discards everything
func NewNopLogger() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &structuredLogger{logger: l, fields: map[string]interface{}{}}
}

func (l *structuredLogger) Info(ctx context.Context, message string, fields map[string]interface{}) {
	l.log(l.createEntry(ctx, "INFO", message, nil, fields))
}

func (l *structuredLogger) Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	l.log(l.createEntry(ctx, "ERROR", message, err, fields))
}

func (l *structuredLogger) Warn(ctx context.Context, message string, fields map[string]interface{}) {
	l.log(l.createEntry(ctx, "WARN", message, nil, fields))
}

func (l *structuredLogger) Debug(ctx context.Context, message string, fields map[string]interface{}) {
	l.log(l.createEntry(ctx, "DEBUG", message, nil, fields))
}

func (l *structuredLogger) WithFields(fields map[string]interface{}) Logger {
	newFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &structuredLogger{
		logger: l.logger,
		fields: newFields,
	}
}

func (l *structuredLogger) createEntry(ctx context.Context, level, message string, err error, fields map[string]interface{}) LogEntry {
	entry := LogEntry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Level:         level,
		Message:       message,
		CorrelationID: CorrelationID(ctx),
		Fields:        make(map[string]interface{}),
	}

	if err != nil {
		entry.Error = err.Error()
	}

	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for k, v := range fields {
		entry.Fields[k] = v
	}

	// caller of Info/Error/...
	if pc, file, line, ok := runtime.Caller(2); ok {
		funcName := runtime.FuncForPC(pc).Name()
		entry.Fields["caller"] = fmt.Sprintf("%s:%d %s", file, line, funcName)
	}

	return entry
}

func (l *structuredLogger) log(entry LogEntry) {
	fields := logrus.Fields{}

	if entry.CorrelationID != "" {
		fields["correlation_id"] = entry.CorrelationID
	}
	if entry.Error != "" {
		fields["error"] = entry.Error
	}
	for k, v := range entry.Fields {
		fields[k] = v
	}

	if jsonData, err := json.Marshal(entry); err == nil {
		fields["structured_data"] = string(jsonData)
	}

	switch entry.Level {
	case "ERROR":
		l.logger.WithFields(fields).Error(entry.Message)
	case "WARN":
		l.logger.WithFields(fields).Warn(entry.Message)
	case "DEBUG":
		l.logger.WithFields(fields).Debug(entry.Message)
	default:
		l.logger.WithFields(fields).Info(entry.Message)
	}
}

// LogTransition records a lifecycle step. Failed attempts go out at WARN.
func LogTransition(ctx context.Context, logger Logger, subscriptionID, action, actorID, from, to string, err error) {
	fields := map[string]interface{}{
		"event_type":      "transition",
		"subscription_id": subscriptionID,
		"action":          action,
		"actor_id":        actorID,
		"from":            from,
	}
	if err != nil {
		fields["error"] = err.Error()
		logger.Warn(ctx, fmt.Sprintf("Transition rejected: %s", action), fields)
		return
	}
	fields["to"] = to
	logger.Info(ctx, fmt.Sprintf("Transition applied: %s", action), fields)
}

// LogPerformance records how long an operation took
func LogPerformance(ctx context.Context, logger Logger, operation string, duration time.Duration, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["event_type"] = "performance"
	fields["operation"] = operation
	fields["duration_ms"] = duration.Milliseconds()
	fields["duration_human"] = duration.String()

	logger.Info(ctx, fmt.Sprintf("Performance: %s took %s", operation, duration), fields)
}
