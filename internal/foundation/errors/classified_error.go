package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is an error tagged with a category, a severity and a retry
// strategy. Its Error text has the form "[category:severity] message: cause".
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

func (e *ClassifiedError) Error() string {
	tag := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if e.cause == nil {
		return tag
	}
	return tag + ": " + e.cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// WithContext returns a copy of e with key set; e itself is not modified.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	out := *e
	out.context = e.context.clone().Set(key, value)
	return &out
}

// Is reports whether target is a ClassifiedError with the same category and
// message, so package-level sentinels match through wrapping.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

func (e *ClassifiedError) IsCategory(category ErrorCategory) bool { return e.category == category }

// CanRetry reports whether repeating the operation unchanged may succeed.
func (e *ClassifiedError) CanRetry() bool { return e.retry == RetryBackoff }

func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// AsClassified returns the outermost ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory reports whether the outermost ClassifiedError in err's chain
// has the given category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}

// UserMessage renders err without category tags, for result records and
// terminal output.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return err.Error()
	}
	if classified.cause == nil {
		return classified.message
	}
	return classified.message + ": " + UserMessage(classified.cause)
}
