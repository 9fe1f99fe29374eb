package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signed(t *testing.T, sub string, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid token", header: "Bearer " + signed(t, "64f1c0ffee", secret), status: http.StatusOK, body: "64f1c0ffee"},
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token abc", status: http.StatusUnauthorized},
		{name: "bad signature", header: "Bearer " + signed(t, "u1", "other"), status: http.StatusUnauthorized},
		{name: "empty subject", header: "Bearer " + signed(t, "", secret), status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Auth(secret)(echoUser()).ServeHTTP(w, r)

			req.Equal(tt.status, w.Code)
			if tt.body != "" {
				req.Equal(tt.body, w.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	req := require.New(t)
	h := CORS([]string{"http://localhost:3000"})(echoUser())

	r := httptest.NewRequest(http.MethodOptions, "/", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	req.Equal(http.StatusNoContent, w.Code)
	req.Equal("http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	req.Equal(http.StatusOK, w.Code)
	req.Empty(w.Header().Get("Access-Control-Allow-Origin"))
}
