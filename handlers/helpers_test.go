// ABOUTME: Shared helpers for handler tests
// ABOUTME: Builds handlers against mock backends and decodes captured audit lines

package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vocalswap/vocalswap-web/config"
	"github.com/vocalswap/vocalswap-web/logger"
	"github.com/vocalswap/vocalswap-web/models"
	"github.com/vocalswap/vocalswap-web/services"
)

// backendCall is one request observed by the mock backend.
type backendCall struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          []byte
}

// mockBackend records every call and delegates the answer to respond.
type mockBackend struct {
	*httptest.Server
	mu      sync.Mutex
	calls   []backendCall
	respond func(w http.ResponseWriter, r *http.Request, body []byte)
}

func newMockBackend(t *testing.T, respond func(w http.ResponseWriter, r *http.Request, body []byte)) *mockBackend {
	t.Helper()
	m := &mockBackend{respond: respond}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		m.mu.Lock()
		m.calls = append(m.calls, backendCall{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		m.mu.Unlock()
		m.respond(w, r, body)
	}))
	t.Cleanup(m.Close)
	return m
}

// callsTo returns the recorded calls for path.
func (m *mockBackend) callsTo(path string) []backendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []backendCall
	for _, c := range m.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// newTestHandler builds a Handler talking to backendURL whose audit lines go to the returned buffer.
func newTestHandler(t *testing.T, backendURL string) (*Handler, *syncBuffer) {
	t.Helper()
	cfg := &config.Config{AppEnv: "development", APIURL: backendURL, HealthCacheTTL: 10 * time.Second}
	audit := &syncBuffer{}
	h := NewHandler(cfg, services.NewBackendClient(backendURL, nil), services.NewRefreshCoordinator(), logger.NewAuditor(audit))
	return h, audit
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// auditEntries decodes every captured audit line.
func auditEntries(t *testing.T, b *syncBuffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	sc := bufio.NewScanner(strings.NewReader(b.String()))
	for sc.Scan() {
		var e map[string]any
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("Audit line is not JSON: %q", sc.Text())
		}
		entries = append(entries, e)
	}
	return entries
}

// terminalEntries drops "initiated" entries.
func terminalEntries(t *testing.T, b *syncBuffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, e := range auditEntries(t, b) {
		if e["status"] != logger.StatusInitiated {
			out = append(out, e)
		}
	}
	return out
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeDetail(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body.Detail
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func writeBackendJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
