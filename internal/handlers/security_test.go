package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luxeshopapp/luxeshop/internal/config"
)

func newSecurityTestHandlers() *Handlers {
	return &Handlers{
		config: &config.Config{BaseURL: "https://shop.example.com"},
		logger: slog.New(slog.DiscardHandler),
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := newSecurityTestHandlers()
	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()

	h.SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, r)

	want := map[string]string{
		"X-Content-Type-Options":       "nosniff",
		"X-Frame-Options":              "DENY",
		"Referrer-Policy":              "strict-origin-when-cross-origin",
		"Cross-Origin-Opener-Policy":   "same-origin",
		"Cross-Origin-Resource-Policy": "same-origin",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Fatalf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestRequireSameOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		origin     string
		referer    string
		host       string
		wantStatus int
	}{
		{name: "get passes without origin", method: http.MethodGet, host: "shop.example.com", wantStatus: http.StatusOK},
		{name: "post without origin or referer blocked", method: http.MethodPost, host: "shop.example.com", wantStatus: http.StatusForbidden},
		{name: "post with matching origin", method: http.MethodPost, origin: "https://shop.example.com", host: "shop.example.com", wantStatus: http.StatusOK},
		{name: "post with matching request host", method: http.MethodPost, origin: "https://other.example.com", host: "other.example.com", wantStatus: http.StatusOK},
		{name: "post with foreign origin blocked", method: http.MethodPost, origin: "https://evil.example.net", host: "shop.example.com", wantStatus: http.StatusForbidden},
		{name: "post with foreign referer blocked", method: http.MethodPost, referer: "https://evil.example.net/form", host: "shop.example.com", wantStatus: http.StatusForbidden},
		{name: "post with matching referer", method: http.MethodPost, referer: "https://shop.example.com/admin", host: "shop.example.com", wantStatus: http.StatusOK},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newSecurityTestHandlers()
			r := httptest.NewRequest(tc.method, "/admin/api/orders", nil)
			r.Host = tc.host
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if tc.referer != "" {
				r.Header.Set("Referer", tc.referer)
			}
			w := httptest.NewRecorder()

			h.RequireSameOrigin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, r)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}
