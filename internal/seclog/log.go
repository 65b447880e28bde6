package seclog

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives redacted events. Implementations must tolerate concurrent
// Write calls; errors are swallowed by the Log so that recording can never
// fail the operation that raised the event.
type Sink interface {
	Write(Event) error
}

// Log is the process-wide security event recorder. All redaction happens
// here, before any sink sees the event.
type Log struct {
	sinks        []Sink
	logUserInput bool
	now          func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithSink attaches an additional sink (e.g. the SQLite audit store).
func WithSink(s Sink) Option {
	return func(l *Log) { l.sinks = append(l.sinks, s) }
}

// WithUserInputLogging allows raw user input to appear in event detail.
// Off by default: the "user_input" detail key is dropped entirely.
func WithUserInputLogging(enabled bool) Option {
	return func(l *Log) { l.logUserInput = enabled }
}

// New creates a Log that writes to the given zap logger, plus any sinks
// added via options. A nil logger yields a log that only feeds the extra
// sinks (useful in tests).
func New(logger *zap.Logger, opts ...Option) *Log {
	l := &Log{now: time.Now}
	if logger != nil {
		l.sinks = append(l.sinks, &zapSink{logger: logger})
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record redacts the event and appends it to every sink. It never returns
// an error and never panics into the caller.
func (l *Log) Record(e Event) {
	if l == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = l.now()
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	if !l.logUserInput && e.Detail != nil {
		delete(e.Detail, "user_input")
	}
	e.Detail = redactDetail(e.Detail)

	for _, s := range l.sinks {
		l.write(s, e)
	}
}

func (l *Log) write(s Sink, e Event) {
	defer func() {
		_ = recover()
	}()
	_ = s.Write(e)
}

// zapSink emits events as structured zap entries on stderr.
type zapSink struct {
	logger *zap.Logger
}

func (z *zapSink) Write(e Event) error {
	fields := []zap.Field{
		zap.String("event_id", e.ID),
		zap.String("event_type", e.Type),
		zap.Time("event_time", e.Time),
		zap.Any("detail", e.Detail),
	}
	switch e.Severity {
	case SeverityError:
		z.logger.Error("security event", fields...)
	case SeverityWarn:
		z.logger.Warn("security event", fields...)
	default:
		z.logger.Info("security event", fields...)
	}
	return nil
}
