package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(200)
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	c := &Client{UserAgent: "postcheck-test", MaxAttempts: 2, PerRequestTimeout: 2 * time.Second}
	body, ct, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct != "image/png" || len(body) != 4 {
		t.Fatalf("got ct=%q len=%d", ct, len(body))
	}
}

func TestGet_RetryOn5xx(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(502)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("jpegish"))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 2, PerRequestTimeout: 2 * time.Second}
	if _, _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestGet_NoRetryOn404(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(404)
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 3, PerRequestTimeout: 2 * time.Second}
	if _, _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("404 must not be retried, got %d attempts", calls)
	}
}

func TestGet_RejectsNonHTTPScheme(t *testing.T) {
	c := &Client{MaxAttempts: 1}
	if _, _, err := c.Get(context.Background(), "ftp://example.com/a.png"); err == nil ||
		!strings.Contains(err.Error(), "scheme") {
		t.Fatalf("expected scheme rejection, got %v", err)
	}
}

func TestGet_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, PerRequestTimeout: 50 * time.Millisecond}
	start := time.Now()
	if _, _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout did not bound the request")
	}
}

func TestGet_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 4096))
	}))
	defer srv.Close()

	c := &Client{MaxAttempts: 1, MaxBodyBytes: 128}
	body, _, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(body) != 128 {
		t.Fatalf("body must be capped at 128 bytes, got %d", len(body))
	}
}
