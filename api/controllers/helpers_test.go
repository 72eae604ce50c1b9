package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kwakusharp7/fleet-managment/api/middleware"
	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

var testActor = uuid.MustParse("6f1c2a8e-4d1b-4f0a-9a57-0d8e1f2b3c4d")

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// newActorRequest builds a request carrying an authenticated loader and the
// given chi URL params.
func newActorRequest(method, target, body string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithActor(req.Context(), testActor.String(), enums.RoleLoader))
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, resp.Body.String())
	}
	return env
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dst any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dst); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(envelope.Data))
	}
}
