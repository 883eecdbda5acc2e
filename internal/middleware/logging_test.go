package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func TestLoggingSetsRequestID(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Use(Logging)
	router.Get("/chatrooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chatrooms/{id}", routePattern(r))
		w.WriteHeader(http.StatusTeapot)
	})

	t.Run("generates one", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chatrooms/5", nil))

		require.Equal(t, http.StatusTeapot, rr.Code)
		require.Len(t, rr.Header().Get(requestIDHeader), 36)
	})

	t.Run("propagates the caller's", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/chatrooms/5", nil)
		req.Header.Set(requestIDHeader, "req-123")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, "req-123", rr.Header().Get(requestIDHeader))
	})
}

func TestErrorAttrs(t *testing.T) {
	t.Parallel()

	attrs := errorAttrs([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"chatroom not found","details":"9"}}`))
	require.Equal(t, []slog.Attr{
		slog.String("error_code", "NOT_FOUND"),
		slog.String("error_message", "chatroom not found"),
		slog.String("error_details", "9"),
	}, attrs)

	require.Len(t, errorAttrs([]byte(`{"success":false,"error":{"code":"CONFLICT","message":"exists"}}`)), 2)
	require.Empty(t, errorAttrs([]byte(`{"success":true,"data":{}}`)))
	require.Empty(t, errorAttrs([]byte("404 page not found")))
	require.Empty(t, errorAttrs(nil))
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelInfo, levelFor(http.StatusOK))
	require.Equal(t, slog.LevelWarn, levelFor(http.StatusUnauthorized))
	require.Equal(t, slog.LevelError, levelFor(http.StatusBadGateway))
}

func TestStatusRecorderCapturesOnlyFailures(t *testing.T) {
	t.Parallel()

	t.Run("success is not captured", func(t *testing.T) {
		rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
		_, err := rec.Write([]byte(`{"success":true}`))
		require.NoError(t, err)
		require.Empty(t, rec.captured)
	})

	t.Run("failure capture is bounded", func(t *testing.T) {
		inner := httptest.NewRecorder()
		rec := &statusRecorder{ResponseWriter: inner, status: http.StatusOK}
		rec.WriteHeader(http.StatusBadRequest)
		rec.WriteHeader(http.StatusOK)

		big := strings.Repeat("x", maxCapturedBody+100)
		_, err := rec.Write([]byte(big))
		require.NoError(t, err)
		_, err = rec.Write([]byte("tail"))
		require.NoError(t, err)

		require.Equal(t, http.StatusBadRequest, rec.status)
		require.Len(t, rec.captured, maxCapturedBody)
		require.Equal(t, big+"tail", inner.Body.String())
	})
}

func TestRecoveryTurnsPanicIntoEnvelope(t *testing.T) {
	t.Parallel()

	handler := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"success":false,"error":{"code":"INTERNAL_ERROR","message":"Unexpected server error"}}`, rr.Body.String())
}
