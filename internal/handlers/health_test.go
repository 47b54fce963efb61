package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checker    *HealthChecker
		mode       string
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "basic mode skips dependency checks",
			checker:    NewHealthChecker(mockChecker{err: errors.New("down")}),
			wantStatus: http.StatusOK,
		},
		{
			name:       "extended all healthy",
			checker:    NewHealthCheckerWithDeps(mockChecker{}, mockChecker{}, mockChecker{}).WithModel(staticModel(true)),
			mode:       "extended",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "healthy", "redis": "healthy", "rabbitmq": "healthy", "model": "trained"},
		},
		{
			name:       "optional deps disabled",
			checker:    NewHealthCheckerWithDeps(mockChecker{}, nil, nil).WithModel(staticModel(false)),
			mode:       "extended",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"database": "healthy", "redis": "disabled", "rabbitmq": "disabled", "model": "untrained"},
		},
		{
			name:       "database down",
			checker:    NewHealthCheckerWithDeps(mockChecker{err: errors.New("connection refused")}, mockChecker{}, nil),
			mode:       "extended",
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "unhealthy: connection refused", "redis": "healthy", "rabbitmq": "disabled"},
		},
		{
			name:       "queue down",
			checker:    NewHealthCheckerWithDeps(mockChecker{}, nil, mockChecker{err: errors.New("channel closed")}),
			mode:       "extended",
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"database": "healthy", "redis": "disabled", "rabbitmq": "unhealthy: channel closed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := "/healthz"
			if tt.mode != "" {
				target += "?mode=" + tt.mode
			}
			w := httptest.NewRecorder()
			tt.checker.HealthCheck(w, httptest.NewRequest(http.MethodGet, target, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			wantStatus := "healthy"
			if tt.wantStatus != http.StatusOK {
				wantStatus = "unhealthy"
			}
			if resp.Status != wantStatus {
				t.Errorf("status = %q, want %q", resp.Status, wantStatus)
			}
			if len(resp.Checks) != len(tt.wantChecks) {
				t.Fatalf("checks = %v, want %v", resp.Checks, tt.wantChecks)
			}
			for k, v := range tt.wantChecks {
				if !strings.EqualFold(resp.Checks[k], v) {
					t.Errorf("checks[%s] = %q, want %q", k, resp.Checks[k], v)
				}
			}
		})
	}
}
