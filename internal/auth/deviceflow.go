package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/retry"
)

const (
	defaultPollInterval = 5 * time.Second
	slowDownIncrement   = 5 * time.Second
	deviceGrantType     = "urn:ietf:params:oauth:grant-type:device_code"
)

// DeviceCode is the first leg of the OAuth device flow. The user enters
// UserCode at VerificationURI while the caller polls.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// Token is an access token issued by the device flow.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

type tokenResponse struct {
	Token
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Interval         int    `json:"interval"`
}

// DeviceFlow runs GitHub's OAuth device authorization flow.
type DeviceFlow struct {
	WebURL     string
	ClientID   string
	Scopes     []string
	HTTPClient *http.Client
	// Sleep and Now are replaced in tests.
	Sleep  func(ctx context.Context, d time.Duration) error
	Now    func() time.Time
	Logger *slog.Logger
}

// Start requests a device and user code.
func (f *DeviceFlow) Start(ctx context.Context) (DeviceCode, error) {
	if f.ClientID == "" {
		return DeviceCode{}, ErrClientIDMissing
	}
	form := url.Values{}
	form.Set("client_id", f.ClientID)
	form.Set("scope", strings.Join(f.Scopes, " "))

	var code DeviceCode
	if err := f.post(ctx, "/login/device/code", form, &code); err != nil {
		return DeviceCode{}, err
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return DeviceCode{}, errors.AuthError("device code response is incomplete").Build()
	}
	return code, nil
}

// Poll waits for the user to authorize code. It stops when ctx is done or
// cancelled returns true; cancelled is checked before and after every wait.
func (f *DeviceFlow) Poll(ctx context.Context, code DeviceCode, cancelled func() bool) (Token, error) {
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	interval := time.Duration(code.Interval) * time.Second
	if interval <= 0 {
		interval = defaultPollInterval
	}
	var deadline time.Time
	if code.ExpiresIn > 0 {
		deadline = f.now().Add(time.Duration(code.ExpiresIn) * time.Second)
	}

	form := url.Values{}
	form.Set("client_id", f.ClientID)
	form.Set("device_code", code.DeviceCode)
	form.Set("grant_type", deviceGrantType)

	for {
		if cancelled() {
			return Token{}, ErrLoginCancelled
		}
		if err := f.sleep(ctx, interval); err != nil {
			return Token{}, ErrLoginCancelled
		}
		if cancelled() {
			return Token{}, ErrLoginCancelled
		}

		var resp tokenResponse
		if err := f.post(ctx, "/login/oauth/access_token", form, &resp); err != nil {
			return Token{}, err
		}

		switch resp.Error {
		case "":
			if resp.AccessToken == "" {
				return Token{}, errors.AuthError("token response has no access token").Build()
			}
			return resp.Token, nil
		case "authorization_pending":
		case "slow_down":
			if resp.Interval > 0 {
				interval = time.Duration(resp.Interval) * time.Second
			} else {
				interval += slowDownIncrement
			}
			f.logger().Debug("Device flow asked to slow down", slog.Duration("interval", interval))
		case "expired_token":
			return Token{}, ErrDeviceCodeExpired
		case "access_denied":
			return Token{}, ErrAccessDenied
		default:
			msg := resp.ErrorDescription
			if msg == "" {
				msg = resp.Error
			}
			return Token{}, errors.AuthError(fmt.Sprintf("device flow failed: %s", msg)).Build()
		}

		if !deadline.IsZero() && f.now().After(deadline) {
			return Token{}, ErrDeviceCodeExpired
		}
	}
}

func (f *DeviceFlow) post(ctx context.Context, endpoint string, form url.Values, result any) error {
	target := strings.TrimSuffix(f.WebURL, "/") + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.ConfigError("invalid GitHub web URL").WithCause(err).WithContext("url", target).Build()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient().Do(req)
	if err != nil {
		return errors.NetworkError("POST " + endpoint).WithCause(err).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode >= 400 {
		return errors.AuthError(fmt.Sprintf("POST %s: HTTP %d", endpoint, resp.StatusCode)).
			WithContext("response", strings.TrimSpace(string(body))).
			Build()
	}
	if err := json.Unmarshal(body, result); err != nil {
		return errors.AuthError("failed to decode device flow response").WithCause(err).Build()
	}
	return nil
}

func (f *DeviceFlow) httpClient() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (f *DeviceFlow) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, d)
	}
	return retry.SleepContext(ctx, d)
}

func (f *DeviceFlow) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *DeviceFlow) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
