package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"playdash/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	var hasLogger bool
	h := NewMiddleware(nil, log.Discard()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		hasLogger = log.FromContext(r.Context()).Component() == log.ComponentHTTP
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/recent", nil))

	if rr.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rr.Code)
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a uuid", seen)
	}
	if rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header %q does not match context id %q", rr.Header().Get(HeaderRequestID), seen)
	}
	if !hasLogger {
		t.Fatalf("handler should receive the request logger")
	}
}

func TestMiddlewareHonorsIncomingID(t *testing.T) {
	incoming := uuid.NewString()
	var seen string
	h := NewMiddleware(nil, nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Fatalf("got %q, want %q", seen, incoming)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not-a-uuid\n" {
		t.Fatalf("malformed incoming id must be replaced")
	}
}
