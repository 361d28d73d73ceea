package auth

import (
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

var (
	// ErrLoginCancelled signals that the user or caller abandoned the device flow.
	ErrLoginCancelled = errors.AuthError("login cancelled").WithSeverity(errors.SeverityWarning).Build()

	// ErrDeviceCodeExpired signals that the user did not authorize in time.
	ErrDeviceCodeExpired = errors.AuthError("device code expired before authorization").UserAction().Build()

	// ErrAccessDenied signals that the user declined the authorization request.
	ErrAccessDenied = errors.AuthError("authorization was denied").UserAction().Build()

	// ErrClientIDMissing signals that no OAuth client id is configured.
	ErrClientIDMissing = errors.ConfigError("github.oauth_client_id is required for login").Build()
)

func errFileStore(msg, path string, cause error) error {
	b := errors.FileSystemError(msg)
	if path != "" {
		b = b.WithContext("path", path)
	}
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}
