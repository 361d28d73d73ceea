package forge

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	Status  int
	Message string
	// Details holds the per-field messages from the response's errors array.
	Details []string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

// Retryable reports whether the status is worth retrying: 429 or any 5xx.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type apiErrorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Resource string `json:"resource"`
		Field    string `json:"field"`
		Code     string `json:"code"`
		Message  string `json:"message"`
	} `json:"errors"`
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Message = parsed.Message
		for _, fe := range parsed.Errors {
			switch {
			case fe.Message != "":
				apiErr.Details = append(apiErr.Details, fe.Message)
			case fe.Field != "" && fe.Code != "":
				apiErr.Details = append(apiErr.Details, fmt.Sprintf("%s %s", fe.Field, fe.Code))
			case fe.Code != "":
				apiErr.Details = append(apiErr.Details, fe.Code)
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}
	return apiErr
}

// transientSignatures are lowercase fragments of transport errors that are
// worth retrying.
var transientSignatures = []string{
	"timeout",
	"timed out",
	"econnreset",
	"connection reset",
	"econnrefused",
	"connection refused",
	"unreachable",
	"enotfound",
	"no such host",
	"name resolution",
	"eai_again",
	"network error",
	"fetch failed",
	"unexpected eof",
}

// IsRetryable classifies err for the retry runner.
func IsRetryable(err error) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound
	}
	return errors.HasCategory(err, errors.CategoryNotFound)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
