// Package errors classifies notebridge failures.
//
// Every failure that crosses a package boundary is a *ClassifiedError built
// with the fluent ErrorBuilder. The category selects the CLI exit code and
// the workflow failure kind; the retry strategy tells the remote client
// whether an attempt may be repeated.
//
//	err := errors.ForgeError("create branch failed").
//		WithContext("branch", branch).
//		WithCause(apiErr).
//		Build()
package errors
