package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dtapi/booking-engine/internal/domain/model"
)

// PushConfig captures the subset of the push provider API we use.
type PushConfig struct {
	URL        string
	AuthToken  string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// PushClient delivers push notifications through the provider's HTTP API.
type PushClient struct {
	url        string
	authToken  string
	retryLimit int
	client     *http.Client
}

// NewPushClient builds a push provider client. Callers should pass a validated config.
func NewPushClient(cfg PushConfig) (*PushClient, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("push provider url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &PushClient{
		url:        url,
		authToken:  strings.TrimSpace(cfg.AuthToken),
		retryLimit: retries,
		client:     hc,
	}, nil
}

// Send pushes a message to the recipient's registered devices. A nil error
// means the provider accepted the message.
func (c *PushClient) Send(ctx context.Context, req *model.PushRequest) error {
	if req == nil {
		return errors.New("push request is required")
	}

	body, err := json.Marshal(map[string]any{
		"recipient": req.RecipientID,
		"title":     req.Title,
		"body":      req.Body,
		"data": map[string]string{
			"job_id": req.JobID,
		},
	})
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	return postJSON(ctx, c.client, postTarget{
		name:       "push",
		url:        c.url,
		authToken:  c.authToken,
		retryLimit: c.retryLimit,
	}, body)
}
