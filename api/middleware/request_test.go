package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ooprato/ooprato-backend/pkg/logger"
	"github.com/ooprato/ooprato-backend/pkg/types"
)

func TestRequestIDKeepsValidHeader(t *testing.T) {
	var seen string
	h := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" {
		t.Fatalf("expected request id propagated, got %q", seen)
	}
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Fatalf("expected response header echoed, got %q", got)
	}
}

func TestRequestIDReplacesUnusableHeader(t *testing.T) {
	for name, value := range map[string]string{
		"empty":    "",
		"too long": strings.Repeat("a", maxRequestIDLength+1),
		"spaces":   "a b",
	} {
		t.Run(name, func(t *testing.T) {
			h := RequestID(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(requestIDHeader, value)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(requestIDHeader)
			if got == "" || got == value {
				t.Fatalf("expected a minted request id, got %q", got)
			}
		})
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	h := RequestID(nil)(Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.RequestID == "" {
		t.Fatalf("expected request id on panic response")
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestLoggingRecordsRoutePatternAndStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "api-test", Output: &buf})

	r := chi.NewRouter()
	r.Use(Logging(logg))
	r.Get("/orders/{orderID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/123", nil))

	out := buf.String()
	if !strings.Contains(out, `"route":"/orders/{orderID}"`) {
		t.Fatalf("expected route pattern in log, got %s", out)
	}
	if !strings.Contains(out, `"status":202`) {
		t.Fatalf("expected status in log, got %s", out)
	}
}
