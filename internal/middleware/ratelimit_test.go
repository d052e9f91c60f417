package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/calview/internal/model"
)

func testRateLimiterConfig(burst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0), // テスト中に補充されないよう遅くする
		GeneralBurst:    burst,
		CalendarRate:    rate.Limit(1.0 / 60.0),
		CalendarBurst:   burst,
		CleanupInterval: 1 * time.Hour,
	}
}

func doRequest(handler http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: userID}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestGeneralMiddleware_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(3))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 3; i++ {
		rec := doRequest(handler, "user-1")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}
}

func TestGeneralMiddleware_RejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(2))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	doRequest(handler, "user-1")
	doRequest(handler, "user-1")

	rec := doRequest(handler, "user-1")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}

func TestGeneralMiddleware_LimitsPerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	// user-1が上限に達してもuser-2は影響を受けないこと
	doRequest(handler, "user-1")
	if rec := doRequest(handler, "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("user-1 second request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec := doRequest(handler, "user-2"); rec.Code != http.StatusOK {
		t.Errorf("user-2 first request: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCalendarMiddleware_IndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	general := rl.GeneralMiddleware()(okHandler())
	calendar := rl.CalendarMiddleware()(okHandler())

	// API全般の上限消費はカレンダー取得の上限に影響しないこと
	doRequest(general, "user-1")
	if rec := doRequest(general, "user-1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("general second request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec := doRequest(calendar, "user-1"); rec.Code != http.StatusOK {
		t.Errorf("calendar first request: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_NoUserInContext_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRateLimiter_CleanupRemovesStaleEntries(t *testing.T) {
	config := testRateLimiterConfig(1)
	config.CleanupInterval = 10 * time.Millisecond
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	doRequest(handler, "user-1")

	if count := rl.GeneralLimiterCount(); count != 1 {
		t.Fatalf("limiter count = %d, want 1", count)
	}

	// TTL（CleanupInterval*2）経過後にエントリが削除されること
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rl.GeneralLimiterCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("limiter count = %d, want 0 after cleanup", rl.GeneralLimiterCount())
}
