// Package gateway is the boundary to the external message-sending service.
package gateway

import (
	"context"
	"time"
)

// Gateway transmits one personalized message and reports the provider's
// message identifier. Implementations must be safe for concurrent use; the
// dispatch worker pool calls Send from several goroutines.
type Gateway interface {
	Send(ctx context.Context, msg *Message) (*Result, error)
	Name() string
}

// Message is one outbound email, already personalized and instrumented.
type Message struct {
	AttemptID string
	From      string
	To        string
	ToName    string
	Subject   string
	HTMLBody  string
}

// Result is the outcome of a successful transmission.
type Result struct {
	ProviderMessageID string
	Timestamp         time.Time
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *HTTPRequest) (*HTTPResponse, error)
}

// HTTPRequest represents an outgoing HTTP request.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse represents an HTTP response from the gateway API.
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}
