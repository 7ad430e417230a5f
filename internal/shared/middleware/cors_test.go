package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsOriginAllowed(t *testing.T) {
	allowed := []string{"app.poupa.dev", "localhost:5173", " Admin.Poupa.dev "}

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.poupa.dev", true},
		{"https://app.poupa.dev:8443", true},
		{"http://localhost:5173", true},
		{"http://localhost:3000", false},
		{"https://ADMIN.poupa.dev", true},
		{"https://app.poupa.dev.attacker.io", false},
		{"https://poupa.dev", false},
		{"null", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			if got := isOriginAllowed(tt.origin, allowed); got != tt.want {
				t.Errorf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestIsOriginAllowed_SkipsBlankEntries(t *testing.T) {
	if isOriginAllowed("https://app.poupa.dev", []string{"", "  "}) {
		t.Error("blank allowed hosts should not match any origin")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowedHosts    []string
		method          string
		origin          string
		wantStatus      int
		wantNextCalled  bool
		wantAllowOrigin string
		wantCredentials string
		wantVary        string
	}{
		{
			name:            "open when no hosts configured",
			method:          http.MethodPost,
			origin:          "https://anywhere.example",
			wantStatus:      http.StatusOK,
			wantNextCalled:  true,
			wantAllowOrigin: "*",
		},
		{
			name:            "allowed origin is echoed with credentials",
			allowedHosts:    []string{"app.poupa.dev"},
			method:          http.MethodPost,
			origin:          "https://app.poupa.dev",
			wantStatus:      http.StatusOK,
			wantNextCalled:  true,
			wantAllowOrigin: "https://app.poupa.dev",
			wantCredentials: "true",
			wantVary:        "Origin",
		},
		{
			name:         "disallowed origin is rejected before the handler",
			allowedHosts: []string{"app.poupa.dev"},
			method:       http.MethodPost,
			origin:       "https://attacker.io",
			wantStatus:   http.StatusForbidden,
		},
		{
			name:           "request without origin passes untouched",
			allowedHosts:   []string{"app.poupa.dev"},
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantNextCalled: true,
		},
		{
			name:            "allowed preflight answers itself",
			allowedHosts:    []string{"app.poupa.dev"},
			method:          http.MethodOptions,
			origin:          "https://app.poupa.dev",
			wantStatus:      http.StatusNoContent,
			wantAllowOrigin: "https://app.poupa.dev",
			wantCredentials: "true",
			wantVary:        "Origin",
		},
		{
			name:         "disallowed preflight is rejected",
			allowedHosts: []string{"app.poupa.dev"},
			method:       http.MethodOptions,
			origin:       "https://attacker.io",
			wantStatus:   http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := CORS(tt.allowedHosts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/functions/pluggy", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if called != tt.wantNextCalled {
				t.Errorf("next handler called = %v, want %v", called, tt.wantNextCalled)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllowOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredentials)
			}
			if got := rr.Header().Get("Vary"); got != tt.wantVary {
				t.Errorf("Vary = %q, want %q", got, tt.wantVary)
			}
			if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Authorization" {
				t.Errorf("Allow-Headers = %q", got)
			}
		})
	}
}
