package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	deps := map[string]Pinger{
		"db":     pingerFunc(func(context.Context) error { return nil }),
		"pubsub": nil,
	}

	resp := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), deps)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var data struct {
		Checks map[string]string `json:"checks"`
	}
	decodeData(t, resp, &data)
	if data.Checks["db"] != "up" || data.Checks["pubsub"] != "skipped" {
		t.Fatalf("unexpected checks %v", data.Checks)
	}
	if resp.Header().Get("X-Fleet-Env") != "test" {
		t.Fatal("expected env header")
	}

	deps["db"] = pingerFunc(func(context.Context) error { return errors.New("refused") })
	resp = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), deps)(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
