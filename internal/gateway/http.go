package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPGateway sends messages through a JSON-over-HTTP email gateway.
type HTTPGateway struct {
	url    string
	apiKey string
	client HTTPClient
}

// NewHTTPGateway creates an HTTPGateway posting to the given endpoint.
func NewHTTPGateway(url, apiKey string, client HTTPClient) *HTTPGateway {
	return &HTTPGateway{url: url, apiKey: apiKey, client: client}
}

// Name implements Gateway.
func (g *HTTPGateway) Name() string {
	return "http"
}

type sendRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	ToName   string `json:"to_name,omitempty"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	Ref      string `json:"ref,omitempty"`
}

type sendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// Send posts the message to the gateway endpoint. Any non-2xx response is
// an error carrying the gateway's error text when one was returned.
func (g *HTTPGateway) Send(ctx context.Context, msg *Message) (*Result, error) {
	payload, err := json.Marshal(sendRequest{
		From:     msg.From,
		To:       msg.To,
		ToName:   msg.ToName,
		Subject:  msg.Subject,
		HTMLBody: msg.HTMLBody,
		Ref:      msg.AttemptID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal send request: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := g.client.Do(&HTTPRequest{
		Method: http.MethodPost,
		URL:    g.url,
		Headers: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + g.apiKey,
		},
		Body: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}

	var body sendResponse
	// A non-JSON body is tolerated; status code decides the outcome.
	_ = json.Unmarshal(resp.Body, &body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if body.Error != "" {
			return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, body.Error)
		}
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	return &Result{
		ProviderMessageID: body.MessageID,
		Timestamp:         time.Now(),
	}, nil
}
