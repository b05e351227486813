package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/courseguardian/backend/libs/auth/service"
	"github.com/stretchr/testify/assert"
)

// mockValidator is a mock implementation of AccessTokenValidator
type mockValidator struct {
	identities map[string]service.Identity
}

func (m *mockValidator) ValidateAccessToken(token string) (service.Identity, error) {
	identity, ok := m.identities[token]
	if !ok {
		return service.Identity{}, errors.New("invalid token")
	}
	return identity, nil
}

func newMockValidator() *mockValidator {
	return &mockValidator{identities: map[string]service.Identity{
		"student-token": {UserID: 42, Role: service.RoleStudent},
		"admin-token":   {UserID: 1, Role: service.RoleAdmin},
	}}
}

// echoIdentity writes the user ID found in the context
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	if userID == 42 {
		w.Write([]byte("42"))
	} else {
		w.Write([]byte("other"))
	}
})

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(newMockValidator())(echoIdentity)

	tests := []struct {
		name           string
		setup          func(r *http.Request)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "bearer header",
			setup:          func(r *http.Request) { r.Header.Set("Authorization", "Bearer student-token") },
			expectedStatus: http.StatusOK,
			expectedBody:   "42",
		},
		{
			name:           "lowercase scheme",
			setup:          func(r *http.Request) { r.Header.Set("Authorization", "bearer student-token") },
			expectedStatus: http.StatusOK,
			expectedBody:   "42",
		},
		{
			name:           "cookie",
			setup:          func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: "student-token"}) },
			expectedStatus: http.StatusOK,
			expectedBody:   "42",
		},
		{
			name:           "missing token",
			setup:          func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"authentication required"}`,
		},
		{
			name:           "invalid token",
			setup:          func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") },
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"invalid or expired token"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/content/1/access", nil)
			tt.setup(req)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	handler := RoleMiddleware(newMockValidator(), service.RoleAdmin)(echoIdentity)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "admin allowed", token: "admin-token", expectedStatus: http.StatusOK},
		{name: "student forbidden", token: "student-token", expectedStatus: http.StatusForbidden},
		{name: "invalid token", token: "forged", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/content/1/file", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name           string
		configuredKey  string
		providedKey    string
		expectedStatus int
	}{
		{name: "matching key", configuredKey: "k1", providedKey: "k1", expectedStatus: http.StatusOK},
		{name: "wrong key", configuredKey: "k1", providedKey: "k2", expectedStatus: http.StatusUnauthorized},
		{name: "missing key", configuredKey: "k1", providedKey: "", expectedStatus: http.StatusUnauthorized},
		{name: "unconfigured key", configuredKey: "", providedKey: "", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.providedKey != "" {
				req.Header.Set("X-API-Key", tt.providedKey)
			}
			w := httptest.NewRecorder()

			APIKeyMiddleware(tt.configuredKey)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
