package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/luxeshopapp/luxeshop/internal/auth"
)

func newAuthTestHandlers(t *testing.T) (*Handlers, *auth.TokenService) {
	t.Helper()

	tokens, err := auth.NewTokenService("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("failed to build token service: %v", err)
	}
	return &Handlers{
		tokens: tokens,
		logger: slog.New(slog.DiscardHandler),
	}, tokens
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	h, tokens := newAuthTestHandlers(t)
	userID := uuid.New()
	token, err := tokens.Issue(auth.Principal{UserID: userID})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	var seen *auth.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = principalFromContext(r.Context())
	})

	tests := []struct {
		name          string
		authorization string
		wantStatus    int
	}{
		{name: "valid bearer token", authorization: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", authorization: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authorization: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authorization: "Bearer not-a-token", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tc.authorization != "" {
				r.Header.Set("Authorization", tc.authorization)
			}
			w := httptest.NewRecorder()

			h.RequireAuth(next).ServeHTTP(w, r)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if tc.wantStatus == http.StatusOK {
				if seen == nil || seen.UserID != userID {
					t.Fatalf("principal not propagated: %+v", seen)
				}
			} else if seen != nil {
				t.Fatal("next handler ran for rejected request")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	h, tokens := newAuthTestHandlers(t)
	chain := h.RequireAuth(h.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	customerToken, err := tokens.Issue(auth.Principal{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	adminToken, err := tokens.Issue(auth.Principal{UserID: uuid.New(), Admin: true})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "admin token passes", token: adminToken, wantStatus: http.StatusOK},
		{name: "customer token forbidden", token: customerToken, wantStatus: http.StatusForbidden},
		{name: "no token unauthorized", token: "", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
			if tc.token != "" {
				r.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()

			chain.ServeHTTP(w, r)

			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}
