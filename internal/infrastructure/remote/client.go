// Package remote is the HTTP client for the werk REST API.
//
// One Client is shared by the whole process. Calls on behalf of a signed-in
// user go through ForToken, which returns per-type clients that send the
// user's bearer token. Every call is a single request: there is
// no retry, batching or optimistic concurrency.
package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/hardwerkerz/werk/internal/api/metrics"
	"github.com/hardwerkerz/werk/internal/core/domain"
	"github.com/hardwerkerz/werk/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// Client talks to the API rooted at baseURL. Token-bound copies made by
// ForToken share the underlying resty client and its connection pool.
type Client struct {
	rc    *resty.Client
	token string
	log   zerolog.Logger
}

// New constructs a Client. baseURL must be absolute, e.g. "https://api.werk.dev".
func New(baseURL string, log zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("remote: base URL cannot be empty")
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(defaultTimeout).
		SetLogger(restyLogger{log: log})

	c := &Client{rc: rc, log: log}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ForToken returns API clients that authenticate every call with token.
func (c *Client) ForToken(token string) ports.APIClients {
	bound := c.withToken(token)
	return ports.APIClients{
		Events:    &resourceClient[domain.Event]{c: bound, resource: "events"},
		Jobs:      &resourceClient[domain.Job]{c: bound, resource: "jobs"},
		Resources: &resourceClient[domain.Resource]{c: bound, resource: "resources"},
		Profiles:  &profileClient{c: bound},
	}
}

// Ping checks that the API answers at all; any HTTP response counts.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.rc.R().SetContext(ctx).Get("/"); err != nil {
		return fmt.Errorf("remote ping: %w", err)
	}
	return nil
}

// withToken returns a copy that sends token as the bearer credential.
func (c *Client) withToken(token string) *Client {
	return &Client{rc: c.rc, token: token, log: c.log}
}

// call describes one API request.
type call struct {
	resource string // metric label
	op       string // metric label and error prefix
	method   string
	path     string
	body     any
	out      any // decoded from a 2xx body when non-nil
}

// do sends the request, records metrics, and maps failures onto CallError.
func (c *Client) do(ctx context.Context, cl call) error {
	start := time.Now()
	err := c.send(ctx, cl)

	metrics.RemoteCallDuration.WithLabelValues(cl.resource, cl.op).Observe(time.Since(start).Seconds())
	metrics.RemoteCallsTotal.WithLabelValues(cl.resource, cl.op, outcome(err)).Inc()

	if err != nil {
		c.log.Warn().Err(err).
			Str("resource", cl.resource).
			Str("op", cl.op).
			Dur("elapsed", time.Since(start)).
			Msg("api call failed")
	}
	return err
}

func (c *Client) send(ctx context.Context, cl call) error {
	opName := cl.resource + " " + cl.op

	req := c.rc.R().
		SetContext(ctx).
		SetError(&apiError{}).
		ForceContentType("application/json")
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	if cl.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}
	if cl.out != nil {
		req.SetResult(cl.out)
	}

	resp, err := req.Execute(cl.method, cl.path)
	switch {
	case err != nil && resp != nil && resp.IsSuccess():
		// The body arrived but did not decode. An empty body is left to the
		// caller, which knows whether it needed one.
		if len(resp.Body()) == 0 {
			return nil
		}
		return &CallError{Op: opName, StatusCode: resp.StatusCode(), Kind: domain.ErrNetwork, Err: fmt.Errorf("decode response: %w", err)}
	case err != nil:
		return &CallError{Op: opName, Kind: domain.ErrNetwork, Err: err}
	case !resp.IsSuccess():
		msg := ""
		if body, ok := resp.Error().(*apiError); ok {
			msg = body.message()
		}
		return &CallError{
			Op:         opName,
			StatusCode: resp.StatusCode(),
			Message:    msg,
			Kind:       classify(resp.StatusCode()),
		}
	}
	return nil
}

// apiError matches error bodies shaped like {"err": "..."}, {"error": "..."}
// or {"message": "..."}.
type apiError struct {
	Err     string `json:"err"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) message() string {
	for _, m := range []string{e.Err, e.Error, e.Message} {
		if m != "" {
			return m
		}
	}
	return ""
}

// missingID reports a 2xx answer that should have carried a stored record.
func missingID(opName string) error {
	return &CallError{Op: opName, Kind: domain.ErrNetwork, Err: errors.New("response carried no record id")}
}
