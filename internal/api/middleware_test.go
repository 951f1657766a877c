package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tcases := []struct {
		name    string
		handler http.HandlerFunc
		code    int
	}{
		{
			name:    "no panic",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) },
			code:    http.StatusNoContent,
		},
		{
			name:    "panic with string",
			handler: func(w http.ResponseWriter, r *http.Request) { panic("boom") },
			code:    http.StatusInternalServerError,
		},
		{
			name:    "panic with error",
			handler: func(w http.ResponseWriter, r *http.Request) { panic(http.ErrAbortHandler) },
			code:    http.StatusInternalServerError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := newTestApp(t, nil, nil)

			rr := httptest.NewRecorder()
			app.errorHandler(tc.handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, tc.code, rr.Code)
			if tc.code != http.StatusInternalServerError {
				return
			}

			var apiErr ApiError
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
			assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
			assert.Equal(t, "internal server error", apiErr.Message)
			assert.Equal(t, "close", rr.Header().Get("Connection"))
		})
	}
}

func TestCORS(t *testing.T) {
	_, h := newTestApp(t, nil, nil)

	tcases := []struct {
		name        string
		origin      string
		expectAllow string
	}{
		{name: "allowed origin", origin: "http://localhost:3000", expectAllow: "http://localhost:3000"},
		{name: "unknown origin", origin: "http://evil.example", expectAllow: ""},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/rooms", nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectAllow, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
