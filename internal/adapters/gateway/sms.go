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

// SMSConfig captures the subset of the SMS provider API we use.
type SMSConfig struct {
	URL        string
	AuthToken  string
	Sender     string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// SMSClient delivers text messages through the provider's HTTP API.
type SMSClient struct {
	url        string
	authToken  string
	sender     string
	retryLimit int
	client     *http.Client
}

// NewSMSClient builds an SMS provider client. Callers should pass a validated config.
func NewSMSClient(cfg SMSConfig) (*SMSClient, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("sms provider url is required")
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

	sender := strings.TrimSpace(cfg.Sender)
	if sender == "" {
		sender = "Booking"
	}

	return &SMSClient{
		url:        url,
		authToken:  strings.TrimSpace(cfg.AuthToken),
		sender:     sender,
		retryLimit: retries,
		client:     hc,
	}, nil
}

// Send delivers a text message to the recipient.
func (c *SMSClient) Send(ctx context.Context, req *model.SMSRequest) error {
	if req == nil {
		return errors.New("sms request is required")
	}

	body, err := json.Marshal(map[string]string{
		"recipient": req.RecipientID,
		"sender":    c.sender,
		"body":      req.Body,
		"reference": req.JobID,
	})
	if err != nil {
		return fmt.Errorf("encode sms payload: %w", err)
	}

	return postJSON(ctx, c.client, postTarget{
		name:       "sms",
		url:        c.url,
		authToken:  c.authToken,
		retryLimit: c.retryLimit,
	}, body)
}
