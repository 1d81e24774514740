package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":"ok"}`))
	}))
	defer srv.Close()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-1", TokenType: "Bearer"})
	c := NewClient(5*time.Second, ts)

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, map[string]string{"X-Test": "yes"}, &out))
	assert.Equal(t, "ok", out.Value)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTemporary bool
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "throttled", status: http.StatusTooManyRequests, wantTemporary: true},
		{name: "server error", status: http.StatusBadGateway, wantTemporary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("nope"))
			}))
			defer srv.Close()

			err := NewClient(time.Second, nil).Delete(context.Background(), srv.URL+"/messages/1")

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, http.MethodDelete, statusErr.Method)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, "nope", statusErr.Body)
			assert.Equal(t, tt.wantTemporary, statusErr.Temporary())
		})
	}
}

func TestClient_DeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, NewClientWith(srv.Client()).Delete(context.Background(), srv.URL))
}
