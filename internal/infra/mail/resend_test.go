package mail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainMail "groona_alerts/internal/domain/mail"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendSend(t *testing.T) {
	var got resendSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"49a3999c-0ce1-4ea6-ab68-afcd6dc2e794"}`))
	}))
	defer srv.Close()

	c := NewResendClient(srv.URL+"/", "re_test")
	id, err := c.Send(context.Background(), domainMail.Message{
		From:    "Groona <noreply@groona.app>",
		To:      []string{"ana@groona.app"},
		Subject: "Test",
		HTML:    "<p>hi</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "49a3999c-0ce1-4ea6-ab68-afcd6dc2e794", id)
	assert.Equal(t, []string{"ana@groona.app"}, got.To)
	assert.Equal(t, "<p>hi</p>", got.HTML)
	assert.Empty(t, got.Text)
}

func TestResendSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field."}`))
	}))
	defer srv.Close()

	_, err := NewResendClient(srv.URL, "re_test").Send(context.Background(), domainMail.Message{To: []string{"a@b.c"}})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Name)
	assert.Contains(t, err.Error(), "Invalid from field.")
}

func TestResendSendRequiresRecipients(t *testing.T) {
	_, err := NewResendClient("http://unused", "k").Send(context.Background(), domainMail.Message{})
	assert.Error(t, err)
}

func TestResendStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/emails/abc-123", r.URL.Path)
		_, _ = w.Write([]byte(`{"object":"email","id":"abc-123","to":["ana@groona.app"],"subject":"Test","last_event":"delivered","created_at":"2026-04-08T10:00:00Z"}`))
	}))
	defer srv.Close()

	d, err := NewResendClient(srv.URL, "re_test").Status(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "delivered", d.LastEvent)
	assert.Equal(t, []string{"ana@groona.app"}, d.To)
	assert.Equal(t, time.Date(2026, 4, 8, 10, 0, 0, 0, time.UTC), d.CreatedAt.UTC())
}

func TestResendStatusNotFoundPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewResendClient(srv.URL, "re_test").Status(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not found", apiErr.Message)
}
