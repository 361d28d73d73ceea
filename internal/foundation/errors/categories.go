package errors

import "maps"

// ErrorCategory groups errors by the part of the system that produced them.
// The category decides the CLI exit code and the default handling of errors
// created through the category constructors.
type ErrorCategory string

const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"
	CategoryNotFound   ErrorCategory = "not_found"

	// Remote API and transport failures.
	CategoryNetwork ErrorCategory = "network"
	CategoryForge   ErrorCategory = "forge"

	// Local document store and activity store failures.
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryStore      ErrorCategory = "store"

	// CategoryDaemon represents watcher and scheduler failures.
	CategoryDaemon   ErrorCategory = "daemon"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// RetryStrategy tells callers whether repeating the operation can help.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user"
)

type traits struct {
	severity ErrorSeverity
	retry    RetryStrategy
	exitCode int
}

var categoryTraits = map[ErrorCategory]traits{
	CategoryValidation: {SeverityFatal, RetryNever, 2},
	CategoryNotFound:   {SeverityError, RetryNever, 4},
	CategoryAuth:       {SeverityError, RetryUserAction, 5},
	CategoryConfig:     {SeverityFatal, RetryNever, 7},
	CategoryNetwork:    {SeverityError, RetryBackoff, 8},
	CategoryForge:      {SeverityError, RetryBackoff, 8},
	CategoryInternal:   {SeverityFatal, RetryNever, 10},
	CategoryFileSystem: {SeverityError, RetryBackoff, 11},
	CategoryStore:      {SeverityError, RetryNever, 11},
	CategoryDaemon:     {SeverityFatal, RetryNever, 12},
}

// ExitCode is the process exit status for errors of this category. Unknown
// categories exit with 1.
func (c ErrorCategory) ExitCode() int {
	if t, ok := categoryTraits[c]; ok {
		return t.exitCode
	}
	return 1
}

// ErrorContext carries structured key/value details alongside an error.
type ErrorContext map[string]any

// Set stores value under key, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = ErrorContext{}
	}
	c[key] = value
	return c
}

// Get looks up key.
func (c ErrorContext) Get(key string) (any, bool) {
	value, ok := c[key]
	return value, ok
}

func (c ErrorContext) clone() ErrorContext {
	if len(c) == 0 {
		return ErrorContext{}
	}
	return maps.Clone(c)
}
