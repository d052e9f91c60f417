package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/calview/internal/model"
)

type mockUserResolver struct {
	getCurrentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockUserResolver) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.getCurrentUserFn != nil {
		return m.getCurrentUserFn(ctx, sessionID)
	}
	return nil, nil
}

type mockHealthChecker struct {
	pingErr error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error { return m.pingErr }

func newTestRouter(t *testing.T, health *mockHealthChecker) http.Handler {
	t.Helper()

	resolver := &mockUserResolver{
		getCurrentUserFn: func(ctx context.Context, sessionID string) (*model.User, error) {
			if sessionID == "valid-session" {
				return &model.User{ID: "user-1", Email: "test@example.com", Name: "Test", AccessToken: "token"}, nil
			}
			return nil, nil
		},
	}

	return NewRouter(&RouterDeps{
		UserResolver:  resolver,
		AuthService:   &mockAuthService{},
		AuthConfig:    testAuthConfig(),
		EventService:  &mockEventService{},
		HealthChecker: health,
	})
}

func get(router http.Handler, target string, sessionID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_IndexIsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(router, "/", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
}

func TestRouter_LoginStartIsPublic(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(router, "/auth/google", "")
	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
}

func TestRouter_EventsPage_RequiresSession(t *testing.T) {
	router := newTestRouter(t, nil)

	// 未認証はスタートページへリダイレクト
	rec := get(router, "/events", "")
	if rec.Code != http.StatusSeeOther {
		t.Errorf("unauthenticated: status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want %q", loc, "/")
	}

	// 認証済みはページを返す
	rec = get(router, "/events", "valid-session")
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_EventsAPI_RequiresSession(t *testing.T) {
	router := newTestRouter(t, nil)

	// APIの未認証は401（リダイレクトではない）
	rec := get(router, "/api/events", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = get(router, "/api/events", "valid-session")
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_MeAPI_RequiresSession(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(router, "/api/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = get(router, "/api/me", "valid-session")
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, &mockHealthChecker{})

	rec := get(router, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRouter_Health_Unhealthy(t *testing.T) {
	router := newTestRouter(t, &mockHealthChecker{pingErr: errors.New("connection refused")})

	rec := get(router, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestRouter_SecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := get(router, "/", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want %q", got, "nosniff")
	}
	if got := rec.Header().Get("X-Frame-Options"); got == "" {
		t.Error("expected X-Frame-Options header")
	}
}

var _ EventServiceInterface = (*mockEventService)(nil)
var _ AuthServiceInterface = (*mockAuthService)(nil)
