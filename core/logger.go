package core

// Logger reports messages and errors.
// Extra args may be errors, maps of extra data or the user.User responsible for the event.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
