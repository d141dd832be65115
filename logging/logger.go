package logging

import (
	"log/slog"
	"time"
)

// Logger defines the minimal logging interface for Parley. Args are
// alternating key/value pairs as understood by slog and zap's sugared logger.
// This allows users to provide their own logger implementation or use the
// built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// ConversationLogger decorates a Logger with stable contextual attributes
// (component, user/session id) and domain convenience methods for the turn
// cycle. It is cheap to copy via the With* methods.
type ConversationLogger struct {
	logger    Logger
	component string
	userID    string
}

// NewConversationLogger wraps a Logger; nil falls back to NoOpLogger.
func NewConversationLogger(l Logger) *ConversationLogger {
	if l == nil {
		l = NoOpLogger{}
	}
	return &ConversationLogger{logger: l}
}

// WithComponent sets the logical component (orchestrator, server, worker, etc.).
func (l *ConversationLogger) WithComponent(c string) *ConversationLogger {
	nl := *l
	nl.component = c
	return &nl
}

// WithUser attaches the session's user identifier.
func (l *ConversationLogger) WithUser(userID string) *ConversationLogger {
	nl := *l
	nl.userID = userID
	return &nl
}

func (l *ConversationLogger) attrs(args []any) []any {
	out := make([]any, 0, len(args)+4)
	if l.component != "" {
		out = append(out, "component", l.component)
	}
	if l.userID != "" {
		out = append(out, "user_id", l.userID)
	}
	return append(out, args...)
}

// Debug logs at debug level with the attached context.
func (l *ConversationLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, l.attrs(args)...)
}

// Info logs at info level with the attached context.
func (l *ConversationLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.attrs(args)...)
}

// Warn logs at warn level with the attached context.
func (l *ConversationLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.attrs(args)...)
}

// Error logs at error level with the attached context.
func (l *ConversationLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, l.attrs(args)...)
}

// LogDecision records the verdict a decision agent produced for a turn.
func (l *ConversationLogger) LogDecision(agent string, decisionType, action string, turn int) {
	l.Info("decision resolved",
		"agent", agent,
		"decision_type", decisionType,
		"action", action,
		"turn", turn,
	)
}

// LogModelCall records model call latency and outcome.
func (l *ConversationLogger) LogModelCall(model string, dur time.Duration, err error) {
	if err != nil {
		l.Error("model call failed", "model", model, "duration", dur, "error", err.Error())
		return
	}
	l.Info("model call completed", "model", model, "duration", dur)
}

// LogActionCall records execution details for a dispatched action.
func (l *ConversationLogger) LogActionCall(action string, dur time.Duration, err error) {
	if err != nil {
		l.Error("action failed", "action", action, "duration", dur, "error", err.Error())
		return
	}
	l.Info("action completed", "action", action, "duration", dur)
}

// LogPhaseTransition records a phase change, including silent redirects to
// the error phase.
func (l *ConversationLogger) LogPhaseTransition(from, to string, redirected bool) {
	l.Info("phase transition", "from", from, "to", to, "redirected", redirected)
}
