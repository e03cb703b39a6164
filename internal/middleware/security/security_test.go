package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"direct", "203.0.113.7:5000", nil, "203.0.113.7"},
		{"untrusted peer ignores xff", "203.0.113.7:5000", map[string]string{"X-Forwarded-For": "1.1.1.1"}, "203.0.113.7"},
		{"trusted proxy xff", "10.0.0.2:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"trusted proxy real ip", "127.0.0.1:5000", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"invalid forwarded value", "192.168.1.1:80", map[string]string{"X-Forwarded-For": "nonsense"}, "192.168.1.1"},
		{"no port", "198.51.100.3", nil, "198.51.100.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Fatalf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing headers: %v", rr.Header())
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must only be sent over TLS")
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.TLS = &tls.ConnectionState{}
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Strict-Transport-Security") != "max-age=31536000; includeSubDomains" {
		t.Fatalf("HSTS = %q", rr.Header().Get("Strict-Transport-Security"))
	}
}
