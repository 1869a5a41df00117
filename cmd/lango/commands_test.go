package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found_error"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

var ctx = context.Background()

func TestChatRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /chat": `{"reply":"안녕하세요! Let's practice greetings."}`,
	})

	client := ts.client()

	resp, err := client.post(ctx, "/chat", map[string]string{
		"language": "korean",
		"message":  "hello",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result struct {
		Reply string `json:"reply"`
	}
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result.Reply == "" {
		t.Fatal("empty reply")
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/chat" {
		t.Errorf("request = %s %s, want POST /chat", r.Method, r.Path)
	}
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["language"] != "korean" || body["message"] != "hello" {
		t.Errorf("body = %v", body)
	}
}

func TestBootstrapRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /languages": `{"language":"korean"}`,
	})

	client := ts.client()

	resp, err := client.post(ctx, "/languages", map[string]string{"language": "Korean"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result map[string]string
	if err := decodeJSON(resp, &result); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if result["language"] != "korean" {
		t.Errorf("language = %q, want korean", result["language"])
	}
}

func TestDeleteRequest(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"DELETE /languages/german": `{}`,
	})

	client := ts.client()

	resp, err := client.delete(ctx, "/languages/german")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Method != "DELETE" {
		t.Errorf("method = %q, want DELETE", ts.requests[0].Method)
	}
}

func TestDecodeJSONServerError(t *testing.T) {
	ts := newTestServer(t, nil)

	client := ts.client()

	resp, err := client.get(ctx, "/languages/french/vocabulary")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v any
	err = decodeJSON(resp, &v)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if got := err.Error(); !bytes.Contains([]byte(got), []byte("404")) {
		t.Errorf("error %q does not mention status code", got)
	}
}

func TestActivityQuery(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /activity": `{"exchanges":[]}`,
	})

	client := ts.client()

	resp, err := client.get(ctx, "/activity?limit=5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if ts.requests[0].Path != "/activity?limit=5" {
		t.Errorf("path = %q, want /activity?limit=5", ts.requests[0].Path)
	}
}

func TestPIDFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := pidFilePath(dir)

	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}

	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("pid = %d, want %d", pid, os.Getpid())
	}

	removePIDFile(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("PID file still exists after removal")
	}
}

func TestReadPIDFileGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lango.pid")
	if err := os.WriteFile(path, []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readPIDFile(path); err == nil {
		t.Fatal("expected error for non-numeric PID file")
	}
}

func TestTurnLabel(t *testing.T) {
	cases := []struct {
		role      string
		wantLabel string
		wantColor string
	}{
		{"user", "you", colorCyan},
		{"assistant", "tutor", colorGreen},
		{"system", "system", colorBold},
	}
	for _, tc := range cases {
		label, color := turnLabel(tc.role)
		if label != tc.wantLabel || color != tc.wantColor {
			t.Errorf("turnLabel(%q) = (%q, %q), want (%q, %q)", tc.role, label, color, tc.wantLabel, tc.wantColor)
		}
	}
}

func TestLanguagesLabel(t *testing.T) {
	if got := languagesLabel(nil); got != "none" {
		t.Errorf("empty label = %q, want none", got)
	}
	if got := languagesLabel([]string{"Korean", "German"}); got != "Korean, German" {
		t.Errorf("label = %q", got)
	}
}
