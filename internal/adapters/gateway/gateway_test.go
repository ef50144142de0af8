package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtapi/booking-engine/internal/domain/model"
)

func TestNewPushClient(t *testing.T) {
	t.Run("requires a url", func(t *testing.T) {
		_, err := NewPushClient(PushConfig{})
		assert.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		client, err := NewPushClient(PushConfig{URL: "https://push.example.com/send"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestPushClientSend(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the payload with bearer auth", func(t *testing.T) {
		var gotAuth string
		var gotPayload map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		client, err := NewPushClient(PushConfig{URL: srv.URL, AuthToken: "push-token"})
		require.NoError(t, err)

		err = client.Send(ctx, &model.PushRequest{
			RecipientID: "tr-1",
			Title:       "New interpreting job",
			Body:        "A de-ar job is available.",
			JobID:       "job-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "Bearer push-token", gotAuth)
		assert.Equal(t, "tr-1", gotPayload["recipient"])
		data, ok := gotPayload["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "job-1", data["job_id"])
	})

	t.Run("retries a failing provider then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client, err := NewPushClient(PushConfig{URL: srv.URL, RetryLimit: 1})
		require.NoError(t, err)

		err = client.Send(ctx, &model.PushRequest{RecipientID: "tr-1", JobID: "job-1"})

		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("reports the provider status after retries are spent", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			http.Error(w, "token rejected", http.StatusUnauthorized)
		}))
		defer srv.Close()

		client, err := NewPushClient(PushConfig{URL: srv.URL, RetryLimit: 1})
		require.NoError(t, err)

		err = client.Send(ctx, &model.PushRequest{RecipientID: "tr-1", JobID: "job-1"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Contains(t, err.Error(), "token rejected")
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("honors context cancellation between retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client, err := NewPushClient(PushConfig{URL: srv.URL, RetryLimit: 5})
		require.NoError(t, err)

		cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err = client.Send(cancelCtx, &model.PushRequest{RecipientID: "tr-1", JobID: "job-1"})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("nil request is rejected", func(t *testing.T) {
		client, err := NewPushClient(PushConfig{URL: "https://push.example.com"})
		require.NoError(t, err)

		assert.Error(t, client.Send(ctx, nil))
	})
}

func TestSMSClientSend(t *testing.T) {
	ctx := context.Background()

	t.Run("posts the payload with the configured sender", func(t *testing.T) {
		var gotPayload map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client, err := NewSMSClient(SMSConfig{URL: srv.URL, Sender: "Tolken"})
		require.NoError(t, err)

		err = client.Send(ctx, &model.SMSRequest{
			RecipientID: "tr-1",
			Body:        "A de-ar interpreting job is available.",
			JobID:       "job-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "tr-1", gotPayload["recipient"])
		assert.Equal(t, "Tolken", gotPayload["sender"])
		assert.Equal(t, "job-1", gotPayload["reference"])
	})

	t.Run("defaults the sender", func(t *testing.T) {
		var gotPayload map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client, err := NewSMSClient(SMSConfig{URL: srv.URL})
		require.NoError(t, err)

		require.NoError(t, client.Send(ctx, &model.SMSRequest{RecipientID: "tr-1", JobID: "job-1"}))
		assert.Equal(t, "Booking", gotPayload["sender"])
	})

	t.Run("requires a url", func(t *testing.T) {
		_, err := NewSMSClient(SMSConfig{})
		assert.Error(t, err)
	})
}
