package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostmarkClientSend(t *testing.T) {
	var gotToken string
	var gotPayload map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/email", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ErrorCode": 0, "Message": "OK"})
	}))
	defer srv.Close()

	c := NewPostmarkClient("server-token", "no-reply@example.com")
	c.SetBaseURL(srv.URL)

	err := c.Send(context.Background(), "a@b.com", "Password Reset Request", "<p>hi</p>")
	require.NoError(t, err)

	assert.Equal(t, "server-token", gotToken)
	assert.Equal(t, "no-reply@example.com", gotPayload["From"])
	assert.Equal(t, "a@b.com", gotPayload["To"])
	assert.Equal(t, "Password Reset Request", gotPayload["Subject"])
	assert.Equal(t, "<p>hi</p>", gotPayload["HtmlBody"])
	assert.Equal(t, "outbound", gotPayload["MessageStream"])
}

func TestPostmarkClientSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"ErrorCode":300,"Message":"Invalid email request"}`))
	}))
	defer srv.Close()

	c := NewPostmarkClient("server-token", "no-reply@example.com")
	c.SetBaseURL(srv.URL)

	err := c.Send(context.Background(), "a@b.com", "subject", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=422")
}

func TestPostmarkClientRequiresToken(t *testing.T) {
	c := NewPostmarkClient("", "no-reply@example.com")
	err := c.Send(context.Background(), "a@b.com", "subject", "<p>hi</p>")
	require.Error(t, err)
}
