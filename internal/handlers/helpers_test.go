package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

// envelope is the decoded JSON response wrapper
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("Failed to decode data %s: %v", env.Data, err)
	}
}

// newTestRequest creates a request with a JSON body
func newTestRequest(method, path string, body any) *http.Request {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// serve routes req through a router with the handler mounted at prefix
func serve(register func(*mux.Router), prefix string, req *http.Request) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	register(r.PathPrefix(prefix).Subrouter())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		data   any
		want   string
	}{
		{"object", http.StatusOK, map[string]string{"message": "hello"}, `{"message":"hello"}`},
		{"nil data", http.StatusCreated, nil, `null`},
		{"array", http.StatusOK, []string{"a", "b"}, `["a","b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}
			env := decodeEnvelope(t, w)
			if !env.Success {
				t.Error("Expected success to be true")
			}
			if string(env.Data) != tt.want {
				t.Errorf("data = %s, want %s", env.Data, tt.want)
			}
			if _, err := time.Parse(time.RFC3339, env.Timestamp); err != nil {
				t.Errorf("Timestamp '%s' is not valid RFC3339: %v", env.Timestamp, err)
			}
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusBadRequest, "Bad Request", strings.Repeat("x", 500))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Success {
		t.Error("Expected success to be false")
	}
	if env.Error != "Bad Request" {
		t.Errorf("Expected error 'Bad Request', got %q", env.Error)
	}
	if len(env.Message) != maxErrorMessageLength+3 || !strings.HasSuffix(env.Message, "...") {
		t.Errorf("Expected message to be truncated, got length %d", len(env.Message))
	}
}

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		limit      int64
		wantOK     bool
		wantStatus int
	}{
		{"valid", `{"value_name":"Health"}`, 0, true, http.StatusOK},
		{"malformed", `{"value_name":`, 0, false, http.StatusBadRequest},
		{"missing field", `{}`, 0, false, http.StatusBadRequest},
		{"too large", `{"value_name":"` + strings.Repeat("a", 64) + `"}`, 16, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := newTestRequest(http.MethodPost, "/api/v1/values", tt.body)
			if tt.limit > 0 {
				req.Body = http.MaxBytesReader(w, req.Body, tt.limit)
			}

			var dst CreateValueRequest
			ok := decodeAndValidate(w, req, &dst)
			if ok != tt.wantOK {
				t.Fatalf("decodeAndValidate() = %v, want %v", ok, tt.wantOK)
			}
			if !ok && w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
