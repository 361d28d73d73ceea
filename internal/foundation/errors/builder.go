package errors

// ErrorBuilder assembles a ClassifiedError step by step.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with error severity and no
// retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  ErrorContext{},
	}}
}

// categoryError starts an error using the category's default severity and
// retry strategy.
func categoryError(category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	if t, ok := categoryTraits[category]; ok {
		b.err.severity = t.severity
		b.err.retry = t.retry
	}
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

// WithCause records the underlying error; it is reachable through
// errors.Is and errors.As on the built error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused; later changes do not
// affect errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = b.err.context.clone()
	return &out
}

func ConfigError(message string) *ErrorBuilder     { return categoryError(CategoryConfig, message) }
func ValidationError(message string) *ErrorBuilder { return categoryError(CategoryValidation, message) }
func AuthError(message string) *ErrorBuilder       { return categoryError(CategoryAuth, message) }
func NetworkError(message string) *ErrorBuilder    { return categoryError(CategoryNetwork, message) }

// ForgeError reports a failed GitHub API call.
func ForgeError(message string) *ErrorBuilder    { return categoryError(CategoryForge, message) }
func NotFoundError(message string) *ErrorBuilder { return categoryError(CategoryNotFound, message) }

// FileSystemError reports a failure reading or moving notes on disk.
func FileSystemError(message string) *ErrorBuilder { return categoryError(CategoryFileSystem, message) }

// StoreError reports a failure of the activity store.
func StoreError(message string) *ErrorBuilder    { return categoryError(CategoryStore, message) }
func DaemonError(message string) *ErrorBuilder   { return categoryError(CategoryDaemon, message) }
func InternalError(message string) *ErrorBuilder { return categoryError(CategoryInternal, message) }
