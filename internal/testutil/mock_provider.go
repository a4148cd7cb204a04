// Package testutil provides testing utilities for the mail connector.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// MockResponse defines one scripted provider response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request received by the mock provider.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Body          string
	Authorization string
	ContentType   string
}

// MockProvider is a scriptable stand-in for the provider's REST API.
// Responses are queued per path; the last response for a path repeats once
// the queue is drained.
type MockProvider struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[string][]MockResponse
	apiKey    string
	requests  []RecordedRequest
}

// NewMockProvider starts a mock provider.
func NewMockProvider() *MockProvider {
	mock := &MockProvider{
		responses: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Body:          string(body),
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		apiKey := mock.apiKey
		resp, ok := mock.next(r.URL.Path)
		mock.mu.Unlock()

		if apiKey != "" && r.Header.Get("Authorization") != "Bearer "+apiKey {
			write(w, NewErrorResponse(http.StatusUnauthorized, "invalid api key"))
			return
		}
		if !ok {
			write(w, NewErrorResponse(http.StatusNotFound, "not found"))
			return
		}
		write(w, resp)
	}))

	return mock
}

// URL returns the mock server URL, usable as the client base URL.
func (m *MockProvider) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockProvider) Close() {
	m.server.Close()
}

// RequireAPIKey makes every request without "Bearer <key>" fail with 401.
func (m *MockProvider) RequireAPIKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKey = key
}

// SetResponses queues responses for a path, replacing earlier ones.
func (m *MockProvider) SetResponses(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = responses
}

// Requests returns a copy of the recorded requests.
func (m *MockProvider) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// RequestCount returns the number of requests received.
func (m *MockProvider) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// Reset clears recorded requests.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// next pops the next response for path. Caller holds mu.
func (m *MockProvider) next(path string) (MockResponse, bool) {
	queue := m.responses[path]
	if len(queue) == 0 {
		return MockResponse{}, false
	}
	resp := queue[0]
	if len(queue) > 1 {
		m.responses[path] = queue[1:]
	}
	return resp, true
}

func write(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewJSONResponse creates a 200 OK response carrying v encoded as JSON.
func NewJSONResponse(v any) MockResponse {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(data),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewErrorResponse creates a provider error response.
func NewErrorResponse(status int, message string) MockResponse {
	data, _ := json.Marshal(map[string]string{"message": message})
	return MockResponse{
		StatusCode: status,
		Body:       string(data),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewListResponse creates a list envelope {"data": {field: entries, "pagination": pagination}}.
// A nil pagination is omitted.
func NewListResponse(field string, entries []map[string]any, pagination map[string]any) MockResponse {
	data := map[string]any{field: entries}
	if pagination != nil {
		data["pagination"] = pagination
	}
	return NewJSONResponse(map[string]any{"data": data})
}

// Entries builds list entries {"id": id} for the given ids.
func Entries(ids ...string) []map[string]any {
	entries := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, map[string]any{"id": id})
	}
	return entries
}
