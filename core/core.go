package core

import "github.com/hupe1980/tutormesh/logging"

// callLogger prefixes every record with the attributes identifying one tool
// invocation so tool authors only pass what is specific to their event.
type callLogger struct {
	logger logging.Logger
	attrs  []any
}

func newCallLogger(l logging.Logger, attrs ...any) *callLogger {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &callLogger{logger: l, attrs: attrs}
}

func (l *callLogger) with(args []any) []any {
	if len(l.attrs) == 0 {
		return args
	}
	out := make([]any, 0, len(l.attrs)+len(args))
	out = append(out, l.attrs...)
	return append(out, args...)
}

// LogDebug logs at debug level with the invocation attributes attached.
func (l *callLogger) LogDebug(msg string, args ...any) { l.logger.Debug(msg, l.with(args)...) }

// LogInfo logs at info level with the invocation attributes attached.
func (l *callLogger) LogInfo(msg string, args ...any) { l.logger.Info(msg, l.with(args)...) }

// LogWarn logs at warn level with the invocation attributes attached.
func (l *callLogger) LogWarn(msg string, args ...any) { l.logger.Warn(msg, l.with(args)...) }

// LogError logs at error level with the invocation attributes attached.
func (l *callLogger) LogError(msg string, args ...any) { l.logger.Error(msg, l.with(args)...) }
