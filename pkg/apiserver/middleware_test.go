package apiserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServerWithHandler(t *testing.T, pattern string, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	s := New("test", DefaultOptions())
	s.Mux.HandleFunc(pattern, h)
	return httptest.NewServer(s.Handler())
}

func TestApplyStandardSetsRequestID(t *testing.T) {
	ts := newTestServerWithHandler(t, "/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header to be set")
	}
}

func TestApplyStandardRecordsMetrics(t *testing.T) {
	var srv *Server
	handler := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	srv = New("test", DefaultOptions())
	srv.Mux.HandleFunc("/ping", handler)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	snap := srv.Metrics.GetMetrics()
	if snap["request_count"] < 1 {
		t.Fatalf("expected request_count >= 1, got %d", snap["request_count"])
	}
}

func TestApplyStandardCountsServerErrors(t *testing.T) {
	srv := New("test", DefaultOptions())
	srv.Mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, _ := http.Get(ts.URL + "/boom")
	resp.Body.Close()

	snap := srv.Metrics.GetMetrics()
	if snap["error_count"] < 1 {
		t.Fatalf("expected error_count >= 1, got %d", snap["error_count"])
	}
}

func TestRecoveryMiddlewareCatchesPanic(t *testing.T) {
	ts := newTestServerWithHandler(t, "/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/panic")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestCORSPreflightNoWildcard(t *testing.T) {
	ts := newTestServerWithHandler(t, "/api/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/x", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if v := resp.Header.Get("Access-Control-Allow-Origin"); v == "*" {
		t.Fatal("wildcard origin must not be set by default")
	}
	if v := resp.Header.Get("Access-Control-Allow-Methods"); v == "" {
		t.Fatal("expected Access-Control-Allow-Methods header")
	}
}

func TestRequestBodyTooLarge(t *testing.T) {
	ts := newTestServerWithHandler(t, "/api/upload", func(w http.ResponseWriter, r *http.Request) {
		_, err := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes).Read(make([]byte, 1))
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	defer ts.Close()

	big := make([]byte, maxRequestBodyBytes+1)
	resp, err := http.Post(ts.URL+"/api/upload", "application/octet-stream", bytes.NewReader(big))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge && resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 413 or 400, got %d", resp.StatusCode)
	}
}

func TestTokenBucketAllowsBurstThenLimits(t *testing.T) {
	tb := newTokenBucket(1, 3)
	allowed := 0
	for i := 0; i < 5; i++ {
		if tb.allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("expected exactly 3 tokens consumed from burst of 3, got %d", allowed)
	}
}
