// Package client is a typed REST client for the bloodlink API and the
// submission driver that runs the sign-up forms against it.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/account"
	"github.com/bloodlink/bloodlink/internal/domain/event"
	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/domain/volunteer"
	"github.com/bloodlink/bloodlink/internal/platform/apiresp"
)

// DefaultTimeout bounds one request when the caller's context has no
// deadline.
const DefaultTimeout = 30 * time.Second

// APIError is a failed API call. Message is the server's message, or the
// generic fallback when the server sent none.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return e.Message
}

type envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

type Client struct {
	http   *resty.Client
	logger zerolog.Logger
}

type Option func(*Client)

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.http.SetAuthToken(token) }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a client for the API at baseURL (scheme and host, without
// the /api prefix). Requests are never retried.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(DefaultTimeout).
			SetRetryCount(0).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after Login.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("latency", resp.Time()).
		Msg("api call")

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.IsError() || (decodeErr == nil && !env.IsSuccess) {
		apiErr := &APIError{Status: resp.StatusCode(), Message: env.Message}
		if apiErr.Message == "" {
			apiErr.Message = apiresp.FallbackMessage
		}
		if len(env.Data) > 0 {
			_ = json.Unmarshal(env.Data, &apiErr.Fields)
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, decodeErr)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s %s data: %w", method, path, err)
		}
	}
	return nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*account.LoginResult, error) {
	var out account.LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", account.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Event(ctx context.Context, id uuid.UUID) (*event.Event, error) {
	var out event.Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterForEvent(ctx context.Context, eventID uuid.UUID, req registration.CreateRequest) (*registration.Registration, error) {
	var out registration.Registration
	if err := c.do(ctx, http.MethodPost, "/api/events/"+eventID.String()+"/blood-registrations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Volunteer(ctx context.Context, req volunteer.CreateRequest) (*volunteer.Volunteer, error) {
	var out volunteer.Volunteer
	if err := c.do(ctx, http.MethodPost, "/api/Volunteers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
