package checker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestCheckWebsiteOnline(t *testing.T) {
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	e := newTestEngine(t, 2*time.Second)
	got := e.CheckWebsite(context.Background(), srv.URL)

	if got.StatusCode == nil || *got.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %+v", got)
	}
	if got.Message != MessageOnline {
		t.Fatalf("expected Online, got %q", got.Message)
	}
	if got.Error != nil {
		t.Fatalf("expected no error, got %q", *got.Error)
	}
	if ua, _ := userAgent.Load().(string); ua != "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" {
		t.Fatalf("unexpected User-Agent %q", ua)
	}
}

func TestCheckWebsiteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	e := newTestEngine(t, 2*time.Second)
	got := e.CheckWebsite(context.Background(), srv.URL+"/missing")

	if got.StatusCode == nil || *got.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %+v", got)
	}
	if got.Message != "Response: 404" {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if got.Error != nil {
		t.Fatalf("expected no error, got %q", *got.Error)
	}
}

func TestCheckWebsiteDoesNotFollowRedirects(t *testing.T) {
	var followed atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		followed.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := newTestEngine(t, 2*time.Second)
	got := e.CheckWebsite(context.Background(), srv.URL+"/start")

	if got.StatusCode == nil || *got.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("expected first-hop 301, got %+v", got)
	}
	if got.Message != "Response: 301" {
		t.Fatalf("unexpected message %q", got.Message)
	}
	if followed.Load() != 0 {
		t.Fatal("redirect target must not be requested")
	}
}

func TestCheckWebsiteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer srv.Close()

	e := newTestEngine(t, 200*time.Millisecond)
	got := e.CheckWebsite(context.Background(), srv.URL)

	if got.Message != MessageTimeout {
		t.Fatalf("expected Timeout, got %q (%v)", got.Message, derefStr(got.Error))
	}
	if got.Error == nil || *got.Error != ErrTextRequestTimedOut {
		t.Fatalf("unexpected error %v", derefStr(got.Error))
	}
	if got.StatusCode != nil {
		t.Fatalf("expected no status code, got %d", *got.StatusCode)
	}
}

func TestCheckWebsiteConnectionError(t *testing.T) {
	e := newTestEngine(t, 2*time.Second)
	got := e.CheckWebsite(context.Background(), fmt.Sprintf("http://127.0.0.1:%d/", closedPort(t)))

	if got.Message != MessageConnectionError {
		t.Fatalf("expected Connection Error, got %q (%v)", got.Message, derefStr(got.Error))
	}
	if got.Error == nil || *got.Error != ErrTextUnableToConnect {
		t.Fatalf("unexpected error %v", derefStr(got.Error))
	}
}

func TestCheckWebsiteMalformedURL(t *testing.T) {
	e := newTestEngine(t, time.Second)
	got := e.CheckWebsite(context.Background(), "http://%zz")

	if got.Message != MessageRequestError {
		t.Fatalf("expected Request Error, got %q", got.Message)
	}
	if got.Error == nil || *got.Error == "" {
		t.Fatal("expected underlying message")
	}
}

func TestCheckWebsiteDestinationGuard(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	e := NewEngine(Config{HTTPTimeout: time.Second, BlockPrivate: true, Logger: zaptest.NewLogger(t)})
	got := e.CheckWebsite(context.Background(), srv.URL)

	if got.Message != MessageRequestError {
		t.Fatalf("expected Request Error, got %q", got.Message)
	}
	if got.Error == nil || *got.Error != "destination address is not allowed" {
		t.Fatalf("unexpected error %v", derefStr(got.Error))
	}
	if hits.Load() != 0 {
		t.Fatal("guarded request reached the server")
	}
}

func TestCheckWebsiteIsRepeatable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	e := newTestEngine(t, 2*time.Second)
	first := e.CheckWebsite(context.Background(), srv.URL)
	second := e.CheckWebsite(context.Background(), srv.URL)

	if first.Message != second.Message || *first.StatusCode != *second.StatusCode {
		t.Fatalf("classification changed between calls: %+v vs %+v", first, second)
	}
}
