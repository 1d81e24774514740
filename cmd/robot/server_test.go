package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eflyt-phone-lookup/internal/common/config"
	"eflyt-phone-lookup/internal/common/logger"
	"eflyt-phone-lookup/internal/common/observability"
)

func TestRouter(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		readyErr   error
		wantCode   int
		wantStatus string
	}{
		{name: "health", path: "/health", wantCode: http.StatusOK, wantStatus: "healthy"},
		{name: "ready", path: "/ready", wantCode: http.StatusOK, wantStatus: "ready"},
		{name: "not ready", path: "/ready", readyErr: errors.New("gateway down"), wantCode: http.StatusServiceUnavailable, wantStatus: "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(func(context.Context) error { return tt.readyErr })

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	router := newRouter(func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		transport string
		wantName  string
		wantErr   bool
	}{
		{transport: "", wantName: "smtp"},
		{transport: "smtp", wantName: "smtp"},
		{transport: "carrier-pigeon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			cfg := &config.Config{
				Notification: config.NotificationConfig{Transport: tt.transport},
				SMTP:         config.SMTPConfig{Host: "localhost", Port: 25},
			}
			got, err := newTransport(context.Background(), cfg, newLogger(cfg))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, got.Name())
		})
	}
}

func TestBuildRobot_RequiresMailboxCredentials(t *testing.T) {
	cfg := &config.Config{}
	_, err := buildRobot(context.Background(), cfg, newLogger(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox credentials")
}

func TestBuildRobot_RedisDownShutsDownMetrics(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	var built *observability.Observability
	orig := newObservability
	newObservability = func(name string, log logger.Logger) *observability.Observability {
		built = orig(name, log)
		return built
	}
	t.Cleanup(func() { newObservability = orig })

	cfg := &config.Config{
		App:          config.AppConfig{Name: "eflyt-phone-lookup-test"},
		Mailbox:      config.MailboxConfig{TenantID: "tenant", ClientID: "client", Username: "robot", Password: "secret"},
		Notification: config.NotificationConfig{Transport: "smtp"},
		SMTP:         config.SMTPConfig{Host: "localhost", Port: 25},
		Redis:        config.RedisConfig{Address: addr, LockKey: "lock"},
	}

	_, err := buildRobot(context.Background(), cfg, newLogger(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")

	require.NotNil(t, built)
	assert.Error(t, built.Shutdown(context.Background()), "meter provider was already shut down")
}
