package remote

import (
	"fmt"
	"time"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout bounds the total time of a single request. Request contexts
// may impose a shorter deadline.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("remote: http timeout must be > 0")
		}
		c.rc.SetTimeout(d)
		return nil
	}
}

// WithDebugLogging makes resty dump each request and response at debug
// level. Dumps include bearer tokens; never enable in production.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.rc.SetDebug(enabled)
		return nil
	}
}
