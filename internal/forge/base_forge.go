package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// maxErrorBody bounds how much of a failed response is read for decoding.
const maxErrorBody = 64 << 10

// BaseForge holds the HTTP plumbing shared by every API call.
type BaseForge struct {
	httpClient *http.Client
	apiURL     string
	token      string
	headers    http.Header
}

// NewBaseForge creates a BaseForge that authenticates with a Bearer token
// when token is non-empty.
func NewBaseForge(httpClient *http.Client, apiURL, token string) *BaseForge {
	return &BaseForge{httpClient: httpClient, apiURL: apiURL, token: token, headers: http.Header{}}
}

// SetCustomHeader sets a header sent with every request.
func (b *BaseForge) SetCustomHeader(key, value string) {
	b.headers.Set(key, value)
}

// resolve joins endpoint onto the API URL. The endpoint is relative to the
// API root and may carry an already encoded query string.
func (b *BaseForge) resolve(endpoint string) (*url.URL, error) {
	u, err := url.Parse(b.apiURL)
	if err != nil {
		return nil, errors.ConfigError("invalid API URL").
			WithCause(err).
			WithContext("api_url", b.apiURL).
			Build()
	}
	p, query, _ := strings.Cut(strings.TrimPrefix(endpoint, "/"), "?")
	u.Path = path.Join("/", u.Path, p)
	u.RawQuery = query
	return u, nil
}

// NewRequest builds a request for endpoint. A non-nil body is sent as JSON.
func (b *BaseForge) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	u, err := b.resolve(endpoint)
	if err != nil {
		return nil, err
	}

	payload := io.Reader(http.NoBody)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, errors.InternalError("encode request body").WithCause(err).Build()
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return nil, errors.InternalError("create request").
			WithCause(err).
			WithContext("method", method).
			Build()
	}
	req.Header = b.headers.Clone()
	req.Header.Set("User-Agent", userAgent)
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// DoRequest sends req and decodes a JSON response into result when result is
// non-nil. Transport failures are network errors. Error statuses carry an
// *APIError cause and are categorised by status: 401 and 403 as auth, 404 as
// not found, everything else as forge.
func (b *BaseForge) DoRequest(req *http.Request, result any) error {
	op := req.Method + " " + req.URL.Path

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError(op).
			WithCause(err).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(op, req.URL.String(), decodeAPIError(resp.StatusCode, raw))
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NetworkError(op + ": read response").WithCause(err).Build()
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return errors.ForgeError(op + ": decode response").WithCause(err).Build()
	}
	return nil
}

func statusError(op, rawURL string, apiErr *APIError) error {
	var b *errors.ErrorBuilder
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		b = errors.NewError(errors.CategoryAuth, op)
	case http.StatusNotFound:
		b = errors.NewError(errors.CategoryNotFound, op)
	default:
		b = errors.NewError(errors.CategoryForge, op)
	}
	if apiErr.Retryable() {
		b = b.Retryable()
	}
	return b.WithCause(apiErr).
		WithContext("status", apiErr.Status).
		WithContext("url", rawURL).
		Build()
}
