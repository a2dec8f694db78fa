package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowedOrigins := []string{"https://example.com", "http://localhost:5173"}

	testCases := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"Allowed origin", "https://example.com", true},
		{"Another allowed origin", "http://localhost:5173", true},
		{"Disallowed origin", "https://evil.com", false},
		{"Empty origin", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if result := isAllowedOrigin(tc.origin, allowedOrigins); result != tc.expected {
				t.Errorf("Expected %v, got %v for origin %s", tc.expected, result, tc.origin)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	allowed := []string{"https://app.example"}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name           string
		development    bool
		method         string
		origin         string
		expectedStatus int
		expectedOrigin string
	}{
		{"Allowed origin", false, "GET", "https://app.example", http.StatusTeapot, "https://app.example"},
		{"Preflight short-circuits", false, "OPTIONS", "https://app.example", http.StatusOK, "https://app.example"},
		{"Foreign origin in production", false, "GET", "https://evil.com", http.StatusTeapot, "https://app.example"},
		{"Foreign origin in development", true, "GET", "http://localhost:4000", http.StatusTeapot, "http://localhost:4000"},
		{"No origin", true, "GET", "", http.StatusTeapot, "https://app.example"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/projects", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()

			CORS(allowed, tc.development)(ok).ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("Expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.expectedOrigin {
				t.Errorf("Expected allowed origin %s, got %s", tc.expectedOrigin, got)
			}
			if rr.Header().Get("Access-Control-Allow-Methods") == "" {
				t.Error("Expected Access-Control-Allow-Methods header to be set")
			}
		})
	}
}
