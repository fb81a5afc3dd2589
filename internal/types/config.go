package types

type RunMode string

const (
	// ModeLocal is the mode for running the API server with an in-process tracker
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running the API server against shared infrastructure (redis, kafka)
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
