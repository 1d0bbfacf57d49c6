package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		trustProxy bool
		remote     string
		xff        string
		want       int
	}{
		{"empty list passes", nil, false, "192.168.1.1:1", "", http.StatusOK},
		{"cidr match", []string{"10.0.0.0/8"}, false, "10.2.3.4:1", "", http.StatusOK},
		{"single ip", []string{"127.0.0.1"}, false, "127.0.0.1:80", "", http.StatusOK},
		{"ipv6", []string{"::1"}, false, "[::1]:80", "", http.StatusOK},
		{"outside", []string{"10.0.0.0/8"}, false, "192.168.1.1:1", "", http.StatusForbidden},
		{"xff ignored without trust", []string{"10.0.0.0/8"}, false, "192.168.1.1:1", "10.1.1.1", http.StatusForbidden},
		{"xff trusted", []string{"10.0.0.0/8"}, true, "192.168.1.1:1", "10.1.1.1, 192.168.1.1", http.StatusOK},
		{"invalid entries ignored", []string{"nope", "10.0.0.0/8"}, false, "10.0.0.1:1", "", http.StatusOK},
		{"unparsable remote", []string{"10.0.0.0/8"}, false, "pipe", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/state", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.NewNop())(okHandler).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestEnforceHost(t *testing.T) {
	tests := []struct {
		host    string
		allowed []string
		want    int
	}{
		{"anything", nil, http.StatusOK},
		{"kie.example.com", []string{"kie.example.com"}, http.StatusOK},
		{"KIE.example.com:8443", []string{"kie.example.com"}, http.StatusOK},
		{"apps.kie.example.com", []string{"*.example.com"}, http.StatusOK},
		{"example.com", []string{"*.example.com"}, http.StatusForbidden},
		{"evil.com", []string{"kie.example.com", "*.example.com"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/state", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			EnforceHost(tt.allowed, logger.NewNop())(okHandler).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
