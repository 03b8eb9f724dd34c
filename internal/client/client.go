package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourdesk/internal/config"
	console "tourdesk/internal/utils/logger"
)

var log = console.New("CLIENT")

// TokenSource yields the bearer token for the current session, or "" when
// there is none.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client talks to the REST backend. It owns the cookie jar and the CSRF token
// cache; it never touches list state.
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	tokens     TokenSource
	csrf       *csrfCache
	csrfPath   string
	csrfCookie string
	csrfHeader string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithCSRF overrides the handshake path, the cookie the token is read from and
// the header it is echoed in.
func WithCSRF(path, cookie, header string) Option {
	return func(c *Client) {
		if path != "" {
			c.csrfPath = path
		}
		if cookie != "" {
			c.csrfCookie = cookie
		}
		if header != "" {
			c.csrfHeader = header
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: 30 * time.Second},
		csrfPath:   "/sanctum/csrf-cookie",
		csrfCookie: "XSRF-TOKEN",
		csrfHeader: "X-XSRF-TOKEN",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	c.csrf = &csrfCache{fetch: c.handshake}

	return c, nil
}

// NewFromConfig builds a client from the API section of the configuration
func NewFromConfig(cfg config.APIConfig, opts ...Option) (*Client, error) {
	base := []Option{
		WithTimeout(cfg.Timeout),
		WithCSRF(cfg.CSRFPath, cfg.CSRFCookie, cfg.CSRFHeader),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Response is a successful (2xx) backend answer
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into v; an empty body leaves v untouched
func (r *Response) Decode(v interface{}) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Call issues one request. body is nil, a *Form for multipart payloads, or
// anything encoding/json accepts. Non-2xx answers come back as *RequestError,
// everything that prevented an answer as *TransportError.
func (c *Client) Call(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("unsupported method")}
	}

	token, err := c.csrf.get(ctx)
	if err != nil {
		var te *TransportError
		var re *RequestError
		if !errors.As(err, &te) && !errors.As(err, &re) {
			err = &TransportError{Method: method, Path: path, Err: err}
		}
		return nil, err
	}

	resp, err := c.do(ctx, method, path, body, token)
	if err != nil {
		var re *RequestError
		if errors.As(err, &re) && isCSRFFailure(re) {
			log.Warn("CSRF token rejected with %d, next call re-handshakes", re.Status)
			c.csrf.invalidate()
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Call(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Call(ctx, http.MethodPut, path, body)
}

func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Call(ctx, http.MethodPatch, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Call(ctx, http.MethodDelete, path, nil)
}

// handshake asks the backend to set the CSRF cookie and reads it back out of the jar
func (c *Client) handshake(ctx context.Context) (string, error) {
	log.Debug("Fetching CSRF cookie from %s", c.csrfPath)
	if _, err := c.do(ctx, http.MethodGet, c.csrfPath, nil, ""); err != nil {
		return "", err
	}

	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name != c.csrfCookie {
			continue
		}
		value, err := url.QueryUnescape(cookie.Value)
		if err != nil {
			return cookie.Value, nil
		}
		return value, nil
	}

	log.Warn("CSRF handshake did not set %s cookie", c.csrfCookie)
	return "", nil
}

func (c *Client) resolve(path string) (*url.URL, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawQuery = rel.RawQuery
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, csrfToken string) (*Response, error) {
	u, err := c.resolve(path)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case *Form:
		reader, contentType, err = b.encode()
	default:
		var data []byte
		data, err = json.Marshal(b)
		reader, contentType = bytes.NewReader(data), "application/json"
	}
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if csrfToken != "" {
		req.Header.Set(c.csrfHeader, csrfToken)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("session token: %w", err)}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}
	log.Debug("%s %s -> %d (%s)", method, u.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newRequestError(resp.StatusCode, data)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}
