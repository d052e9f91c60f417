package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/calview/internal/calendar"
	"github.com/hitoshi/calview/internal/middleware"
	"github.com/hitoshi/calview/internal/model"
)

type mockEventService struct {
	upcomingEventsFn func(ctx context.Context, accessToken, filterDate string) ([]calendar.Event, error)
}

func (m *mockEventService) UpcomingEvents(ctx context.Context, accessToken, filterDate string) ([]calendar.Event, error) {
	if m.upcomingEventsFn != nil {
		return m.upcomingEventsFn(ctx, accessToken, filterDate)
	}
	return []calendar.Event{}, nil
}

func authedEventRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	user := &model.User{ID: "user-1", AccessToken: "user-access-token"}
	return req.WithContext(middleware.ContextWithUser(req.Context(), user))
}

func TestListEvents_Success_ReturnsFormattedEvents(t *testing.T) {
	var gotToken, gotDate string
	service := &mockEventService{
		upcomingEventsFn: func(ctx context.Context, accessToken, filterDate string) ([]calendar.Event, error) {
			gotToken = accessToken
			gotDate = filterDate
			return []calendar.Event{
				{Name: "Team meeting", Date: "2026-08-29T10:00:00Z", Time: "10:00:00 AM", Location: "Room A"},
				{Name: "Holiday", Date: "2026-08-30", Time: "All day", Location: "No location specified"},
			}, nil
		},
	}
	h := NewEventHandler(service)

	rec := httptest.NewRecorder()
	h.ListEvents(rec, authedEventRequest("/api/events"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	// コンテキストのユーザーのトークンが使われること
	if gotToken != "user-access-token" {
		t.Errorf("access token = %q, want %q", gotToken, "user-access-token")
	}
	if gotDate != "" {
		t.Errorf("filter date = %q, want empty", gotDate)
	}

	var events []map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events count = %d, want 2", len(events))
	}
	if events[0]["name"] != "Team meeting" {
		t.Errorf("name = %q, want %q", events[0]["name"], "Team meeting")
	}
	if events[1]["time"] != "All day" {
		t.Errorf("time = %q, want %q", events[1]["time"], "All day")
	}
	if events[1]["location"] != "No location specified" {
		t.Errorf("location = %q, want %q", events[1]["location"], "No location specified")
	}
}

func TestListEvents_PassesDateFilter(t *testing.T) {
	var gotDate string
	service := &mockEventService{
		upcomingEventsFn: func(ctx context.Context, accessToken, filterDate string) ([]calendar.Event, error) {
			gotDate = filterDate
			return []calendar.Event{}, nil
		},
	}
	h := NewEventHandler(service)

	rec := httptest.NewRecorder()
	h.ListEvents(rec, authedEventRequest("/api/events?date=2026-09-01"))

	if gotDate != "2026-09-01" {
		t.Errorf("filter date = %q, want %q", gotDate, "2026-09-01")
	}
}

func TestListEvents_NoUser_Returns401WithErrorBody(t *testing.T) {
	h := NewEventHandler(&mockEventService{})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()

	h.ListEvents(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if body["error"] != "Unauthorized" {
		t.Errorf(`body["error"] = %q, want %q`, body["error"], "Unauthorized")
	}
}

func TestListEvents_UpstreamError_Returns500WithErrorBody(t *testing.T) {
	service := &mockEventService{
		upcomingEventsFn: func(ctx context.Context, accessToken, filterDate string) ([]calendar.Event, error) {
			return nil, fmt.Errorf("%w: calendar API returned status 503", model.ErrUpstreamFetch)
		},
	}
	h := NewEventHandler(service)

	rec := httptest.NewRecorder()
	h.ListEvents(rec, authedEventRequest("/api/events"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	// 上流エラーの詳細はレスポンスに含めない
	if body["error"] != "Error fetching calendar events" {
		t.Errorf(`body["error"] = %q, want %q`, body["error"], "Error fetching calendar events")
	}
}

func TestListEvents_InvalidDate_Returns400(t *testing.T) {
	service := &mockEventService{
		upcomingEventsFn: func(ctx context.Context, accessToken, filterDate string) ([]calendar.Event, error) {
			return nil, fmt.Errorf("invalid date %q", filterDate)
		},
	}
	h := NewEventHandler(service)

	rec := httptest.NewRecorder()
	h.ListEvents(rec, authedEventRequest("/api/events?date=not-a-date"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	if body["code"] != "INVALID_DATE" {
		t.Errorf(`body["code"] = %v, want %q`, body["code"], "INVALID_DATE")
	}
}

func TestListEvents_EmptyResult_ReturnsEmptyArray(t *testing.T) {
	h := NewEventHandler(&mockEventService{})

	rec := httptest.NewRecorder()
	h.ListEvents(rec, authedEventRequest("/api/events"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	// nullではなく[]として返すこと
	if got := rec.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want %q", got, "[]\n")
	}
}
