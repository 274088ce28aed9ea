package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	appI18n "github.com/55onurisik/lmsmobile/internal/i18n"
)

// TokenSource supplies the current bearer token, or empty when the student
// is not logged in.
type TokenSource interface {
	Token() (string, error)
}

// Config holds gateway settings.
type Config struct {
	// BaseURL is the API root, e.g. https://host/api/studentAPI.
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	// OnUnauthorized runs when the backend answers 401 on a non-chat
	// endpoint, so the caller can tear the session down.
	OnUnauthorized func()
}

// Client wraps outbound requests with bearer-token attachment and error
// normalization. All failures surface as *Error with a localized message.
type Client struct {
	http           *http.Client
	base           *url.URL
	tokens         TokenSource
	onUnauthorized func()
}

const defaultTimeout = 10 * time.Second

// New creates a gateway client for the given base URL.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:           &http.Client{Timeout: timeout},
		base:           base,
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// ResolveMediaURL resolves a review media reference against the API host
// using the backend's /storage/ convention. Absolute URLs pass through.
func (c *Client) ResolveMediaURL(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return ref
	}
	return c.base.Scheme + "://" + c.base.Host + "/storage/" + strings.TrimLeft(ref, "/")
}

// chatExempt reports whether the path belongs to the chat API, whose 401
// responses intentionally do not tear the session down.
func chatExempt(path string) bool {
	return strings.Contains(path, "/chat")
}

// do issues one request and decodes a 2xx JSON body into out (when non-nil).
// Transport and status failures are normalized into *Error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			slog.Warn("read session token", "error", err)
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	slog.Debug("api request", "method", method, "url", u.String())
	res, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer res.Body.Close()
	slog.Debug("api response", "method", method, "path", path, "status", res.StatusCode)

	if res.StatusCode/100 != 2 {
		return c.statusError(ctx, path, res)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &Error{Kind: KindUnknown, Message: appI18n.T(ctx, "ErrUnknown"), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) transportError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: appI18n.T(ctx, "ErrTimeout"), Err: err}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return &Error{Kind: KindTimeout, Message: appI18n.T(ctx, "ErrTimeout"), Err: err}
	}
	return &Error{Kind: KindNetworkUnavailable, Message: appI18n.T(ctx, "ErrNetwork"), Err: err}
}

func (c *Client) statusError(ctx context.Context, path string, res *http.Response) *Error {
	payload := decodeErrorBody(res.Body)

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		if !chatExempt(path) && c.onUnauthorized != nil {
			slog.Info("unauthorized response, clearing session", "path", path)
			c.onUnauthorized()
		}
		return &Error{Kind: KindUnauthorized, Status: res.StatusCode, Message: appI18n.T(ctx, "ErrSessionExpired")}
	case res.StatusCode == http.StatusForbidden:
		msg := payload.Message
		if msg == "" {
			msg = appI18n.T(ctx, "ErrForbidden")
		}
		return &Error{Kind: KindForbidden, Status: res.StatusCode, Message: msg}
	case res.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: res.StatusCode, Message: appI18n.T(ctx, "ErrNotFound")}
	case res.StatusCode == http.StatusUnprocessableEntity:
		msg := payload.fieldMessages()
		if msg == "" {
			msg = payload.Message
		}
		if msg == "" {
			msg = appI18n.T(ctx, "ErrValidation")
		}
		return &Error{Kind: KindValidation, Status: res.StatusCode, Message: msg}
	case res.StatusCode >= 500:
		return &Error{Kind: KindServer, Status: res.StatusCode, Message: appI18n.T(ctx, "ErrServer")}
	default:
		msg := payload.Message
		if msg == "" {
			msg = appI18n.T(ctx, "ErrUnknown")
		}
		return &Error{Kind: KindUnknown, Status: res.StatusCode, Message: msg}
	}
}

// errorBody is the backend's error envelope. Laravel-style validation
// errors arrive as a field -> messages map.
type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

func (b errorBody) fieldMessages() string {
	if len(b.Errors) == 0 {
		return ""
	}
	fields := make([]string, 0, len(b.Errors))
	for f := range b.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var msgs []string
	for _, f := range fields {
		msgs = append(msgs, b.Errors[f]...)
	}
	return strings.Join(msgs, "\n")
}

func decodeErrorBody(r io.Reader) errorBody {
	var b errorBody
	data, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return b
	}
	_ = json.Unmarshal(data, &b)
	return b
}
