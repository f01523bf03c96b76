package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"djagency/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newRouter(p Pinger) *httprouter.Router {
	router := httprouter.New()
	NewHandler(p, "mongo", "test", logger.Discard()).RegisterRoutes(router)
	return router
}

func TestHealth_DoesNotPing(t *testing.T) {
	called := false
	router := newRouter(pingFunc(func(ctx context.Context) error {
		called = true
		return errors.New("down")
	}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if called {
		t.Error("health must not ping the store")
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name         string
		pingErr      error
		expectStatus int
		expectBody   string
	}{
		{name: "store up", expectStatus: http.StatusOK, expectBody: "ready"},
		{name: "store down", pingErr: errors.New("connection refused"), expectStatus: http.StatusServiceUnavailable, expectBody: "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(pingFunc(func(ctx context.Context) error {
				if _, ok := ctx.Deadline(); !ok {
					t.Error("ping should run with a deadline")
				}
				return tt.pingErr
			}))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if w.Code != tt.expectStatus {
				t.Fatalf("expected %d, got %d", tt.expectStatus, w.Code)
			}
			var resp Response
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tt.expectBody {
				t.Errorf("expected status %q, got %q", tt.expectBody, resp.Status)
			}
			if resp.Driver != "mongo" {
				t.Errorf("expected driver mongo, got %q", resp.Driver)
			}
		})
	}
}
