package notifapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeData(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New("", Options{}); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := New("not a url", Options{}); err == nil {
		t.Fatal("expected error for unparsable base url")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	client, err := New("http://localhost:8080/", Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.baseURL != "http://localhost:8080" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
	if client.httpClient.Timeout != defaultTimeout {
		t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, defaultTimeout)
	}
	if client.pageSize != defaultPageSize {
		t.Errorf("pageSize = %d, want %d", client.pageSize, defaultPageSize)
	}
}

func TestListPageForwardsTokenAndQuery(t *testing.T) {
	t.Parallel()

	var (
		gotAuth   string
		gotLimit  string
		gotCursor string
	)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/notifications" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		gotCursor = r.URL.Query().Get("cursor")
		writeData(t, w, http.StatusOK, Page{
			Items:  []Notification{{ID: "n1", Category: "payment", Priority: "high", Status: "unread", Title: "Payout successful", CreatedAt: created}},
			Cursor: "next",
		})
	}))
	defer srv.Close()

	client, err := New(srv.URL, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := ContextWithToken(context.Background(), "tok-123")
	page, err := client.ListPage(ctx, "abc", 25)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotLimit != "25" || gotCursor != "abc" {
		t.Errorf("query limit=%q cursor=%q", gotLimit, gotCursor)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "n1" || !page.Items[0].CreatedAt.Equal(created) {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Cursor != "next" {
		t.Errorf("cursor = %q", page.Cursor)
	}
}

func TestListPageOmitsAuthWithoutToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected Authorization %q", auth)
		}
		writeData(t, w, http.StatusOK, Page{})
	}))
	defer srv.Close()

	client, _ := New(srv.URL, Options{})
	if _, err := client.ListPage(context.Background(), "", 0); err != nil {
		t.Fatalf("ListPage: %v", err)
	}
}

func TestListAllFollowsCursors(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		cursors []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		mu.Lock()
		cursors = append(cursors, cursor)
		mu.Unlock()

		switch cursor {
		case "":
			writeData(t, w, http.StatusOK, Page{Items: []Notification{{ID: "a"}, {ID: "b"}}, Cursor: "c1"})
		case "c1":
			writeData(t, w, http.StatusOK, Page{Items: []Notification{{ID: "c"}}, Cursor: ""})
		default:
			t.Errorf("unexpected cursor %q", cursor)
		}
	}))
	defer srv.Close()

	client, _ := New(srv.URL, Options{PageSize: 2})
	items, err := client.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(items) != 3 || items[0].ID != "a" || items[2].ID != "c" {
		t.Fatalf("unexpected items %+v", items)
	}
	if strings.Join(cursors, ",") != ",c1" {
		t.Errorf("cursors = %v", cursors)
	}
}

func TestListAllStopsOnRepeatedCursor(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeData(t, w, http.StatusOK, Page{Items: []Notification{{ID: "x"}}, Cursor: "same"})
	}))
	defer srv.Close()

	client, _ := New(srv.URL, Options{})
	items, err := client.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if calls != 2 || len(items) != 2 {
		t.Fatalf("calls=%d items=%d", calls, len(items))
	}
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	t.Parallel()

	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/read-all") {
			writeData(t, w, http.StatusOK, map[string]int64{"updated": 4})
			return
		}
		writeData(t, w, http.StatusOK, map[string]bool{"read": true})
	}))
	defer srv.Close()

	client, _ := New(srv.URL, Options{})
	if err := client.MarkRead(context.Background(), "n-1"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	updated, err := client.MarkAllRead(context.Background())
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if updated != 4 {
		t.Errorf("updated = %d", updated)
	}
	want := []string{"/api/v1/notifications/n-1/read", "/api/v1/notifications/read-all"}
	if strings.Join(paths, " ") != strings.Join(want, " ") {
		t.Errorf("paths = %v", paths)
	}

	if err := client.MarkRead(context.Background(), " "); err == nil {
		t.Fatal("expected error for blank id")
	}
}

func TestErrorEnvelopeDecoded(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"notification not found"}}`))
	}))
	defer srv.Close()

	client, _ := New(srv.URL, Options{})
	err := client.MarkRead(context.Background(), "missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "NOT_FOUND" || apiErr.Message != "notification not found" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}

func TestErrorWithoutEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := New(srv.URL, Options{})
	_, err := client.ListPage(context.Background(), "", 10)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Code != "" || apiErr.Message != "bad gateway" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}
