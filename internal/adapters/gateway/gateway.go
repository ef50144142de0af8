// Package gateway holds the outbound HTTP clients for the push and SMS
// notification providers.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 5 * time.Second

// postJSON delivers a JSON body to the provider endpoint, retrying with a
// simple linear backoff to avoid thundering retries.
func postJSON(ctx context.Context, client *http.Client, target postTarget, body []byte) error {
	attempts := target.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err := doPost(ctx, client, target, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < attempts-1 {
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

type postTarget struct {
	name       string
	url        string
	authToken  string
	retryLimit int
}

func doPost(ctx context.Context, client *http.Client, target postTarget, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", target.name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if target.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+target.authToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", target.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(target.name, resp)
	}

	return drainSuccess(target.name, resp)
}

func drainSuccess(name string, resp *http.Response) error {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return errors.Join(
				fmt.Errorf("drain %s response body: %w", name, err),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("drain %s response body: %w", name, err)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}
	return nil
}

func handleErrorResponse(name string, resp *http.Response) error {
	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return errors.Join(
				fmt.Errorf("read %s error response: %w", name, readErr),
				fmt.Errorf("close response body: %w", closeErr),
			)
		}
		return fmt.Errorf("read %s error response: %w", name, readErr)
	}
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	return fmt.Errorf("%s provider %s: %s", name, resp.Status, strings.TrimSpace(string(respBody)))
}
