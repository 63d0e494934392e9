package logging

// Logger is the leveled logging surface shared by all packages. The concrete
// backend is pluggable; see NewZapLogger for the standard one.
type Logger interface {
	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
}

type prefixLogger struct {
	prefix string
	next   Logger
}

// NewPrefixLogger returns a Logger that prepends a fixed prefix to every
// message before delegating to the next logger.
func NewPrefixLogger(prefix string, next Logger) Logger {
	return &prefixLogger{
		prefix: prefix,
		next:   next,
	}
}

func (l *prefixLogger) Debugf(msg string, args ...interface{}) {
	l.next.Debugf(l.prefix+msg, args...)
}

func (l *prefixLogger) Infof(msg string, args ...interface{}) {
	l.next.Infof(l.prefix+msg, args...)
}

func (l *prefixLogger) Warnf(msg string, args ...interface{}) {
	l.next.Warnf(l.prefix+msg, args...)
}

func (l *prefixLogger) Errorf(msg string, args ...interface{}) {
	l.next.Errorf(l.prefix+msg, args...)
}
