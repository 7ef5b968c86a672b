package studio

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFetcherDownloads(t *testing.T) {
	payload := []byte("RIFF....WAVE")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{}, nil)
	got, err := f.Fetch(context.Background(), srv.URL+"/pop.wav")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload mangled: %q", got)
	}
}

func TestFetcherRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{}, nil)
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.wav"); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestFetcherEnforcesSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 4096))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{MaxBytes: 1024}, nil)
	_, err := f.Fetch(context.Background(), srv.URL+"/huge.wav")
	if err == nil || !strings.Contains(err.Error(), "byte limit") {
		t.Fatalf("expected size limit error, got %v", err)
	}
}

func TestFetcherRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{MaxRetries: 2}, nil)
	got, err := f.Fetch(context.Background(), srv.URL+"/flaky.wav")
	if err != nil {
		t.Fatalf("Fetch failed after retry: %v", err)
	}
	if string(got) != "ok" {
		t.Errorf("unexpected payload %q", got)
	}
	if calls.Load() < 2 {
		t.Errorf("server hit %d times, expected a retry", calls.Load())
	}
}
