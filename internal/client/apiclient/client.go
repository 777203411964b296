// Package apiclient is the single HTTP chokepoint between clients and the
// auth backend. It attaches the bearer credential, decodes and validates
// responses, and turns every failure into an *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/starterkit/webapp/internal/pkg/validation"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 10 * time.Second
	// RefreshPath is exempt from the login-required signal on 401.
	RefreshPath = "/auth/refresh-token"
)

// Credentials is the view of the credential store the gateway needs.
type Credentials interface {
	Token(ctx context.Context) (string, bool, error)
	ClearToken(ctx context.Context) error
	Clear(ctx context.Context) error
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// HTTPClient overrides the transport. Its Timeout is left untouched.
	HTTPClient *http.Client
	Log        zerolog.Logger
	// OnUnauthorized runs after any 401 has cleared the stored credential,
	// typically to sign the session out.
	OnUnauthorized func()
}

type Client struct {
	baseURL  string
	http     *http.Client
	creds    Credentials
	validate *validator.Validate
	log      zerolog.Logger
	onUnauth func()
}

func New(opts Options, creds Credentials) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     hc,
		creds:    creds,
		validate: validation.New(),
		log:      opts.Log,
		onUnauth: opts.OnUnauthorized,
	}
}

// Request describes one gateway call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil.
	Body any
	// Out receives the decoded 2xx body. Nil discards it.
	Out any
	// Validate checks Out against its validate tags after decoding.
	Validate bool
}

// Do performs r. Every returned error is an *Error.
func (c *Client) Do(ctx context.Context, r Request) error {
	start := time.Now()
	status, err := c.do(ctx, r)

	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	requestsTotal.WithLabelValues(r.Method, label).Inc()

	ev := c.log.Debug().
		Str("method", r.Method).
		Str("path", r.Path).
		Int("status", status).
		Dur("latency", time.Since(start))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("api request")
	return err
}

func (c *Client) do(ctx context.Context, r Request) (int, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &Error{Status: http.StatusInternalServerError, Message: transportMessage(err), Code: CodeNetwork, err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &Error{Status: http.StatusInternalServerError, Message: transportMessage(err), Code: CodeNetwork, err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, c.failure(ctx, r.Path, resp.StatusCode, raw)
	}

	if r.Out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, r.Out); err != nil {
		return resp.StatusCode, shapeMismatch(err)
	}
	if r.Validate {
		if err := c.validateShape(r.Out); err != nil {
			return resp.StatusCode, shapeMismatch(err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, Local(CodeValidation, fmt.Sprintf("encode request body: %v", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, Local(CodeNetwork, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.creds != nil {
		token, ok, err := c.creds.Token(ctx)
		if err != nil {
			return nil, Local(CodeNetwork, fmt.Sprintf("read credential: %v", err))
		}
		if ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// failure builds the Error for a non-2xx response. A 401 drops the bearer
// token; on the refresh endpoint it drops the refresh token too and does
// not ask for a new sign-in, so the caller's refresh attempt fails cleanly.
func (c *Client) failure(ctx context.Context, path string, status int, raw []byte) *Error {
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)

	apiErr := &Error{Status: status, Message: messageFrom(body)}
	if code, ok := body["code"].(string); ok {
		apiErr.Code = code
	}

	if status != http.StatusUnauthorized {
		return apiErr
	}
	if c.onUnauth != nil {
		defer c.onUnauth()
	}
	if c.creds == nil {
		return apiErr
	}

	if strings.Contains(path, RefreshPath) {
		if err := c.creds.Clear(ctx); err != nil {
			c.log.Warn().Err(err).Msg("clear credentials after rejected refresh")
		}
		return apiErr
	}
	if err := c.creds.ClearToken(ctx); err != nil {
		c.log.Warn().Err(err).Msg("clear bearer token after 401")
	}
	apiErr.LoginRequired = true
	return apiErr
}

// validateShape runs struct validation on v, or on each struct element
// when v is a slice.
func (c *Client) validateShape(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		return c.validate.Struct(rv.Addr().Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := c.validateShape(rv.Index(i).Addr().Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}

func shapeMismatch(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: "shape mismatch", Code: CodeShapeMismatch, err: err}
}

func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
