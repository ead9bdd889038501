package core

// Logger is implemented by every logging backend of the application.
//
// args may carry an error, a map[string]interface{} of extra fields or the user.CurrentUser the log is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
