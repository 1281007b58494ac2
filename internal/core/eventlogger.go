package core

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(level, eventType, message string, data map[string]any) error
}

// nopEventLogger discards events; used when no event log is wired.
type nopEventLogger struct{}

func (nopEventLogger) LogEvent(string, string, string, map[string]any) error { return nil }
