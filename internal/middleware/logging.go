package middleware

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"go-live-chatroom/internal/metrics"
	"go-live-chatroom/internal/model"
)

const requestIDHeader = "X-Request-ID"

// maxCapturedBody bounds how much of an error envelope is kept for logging.
const maxCapturedBody = 4 << 10

// Logging tags every request with an id, records it in the request metrics
// and writes one log line per request. Failed requests carry the envelope's
// error code and message.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(started)

		metrics.ObserveRequest(r.Method, routePattern(r), rec.status, elapsed)

		attrs := []slog.Attr{
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Int64("duration_ms", elapsed.Milliseconds()),
			slog.String("client_ip", r.RemoteAddr),
		}
		if rec.status >= http.StatusBadRequest {
			if r.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", r.URL.RawQuery))
			}
			attrs = append(attrs, errorAttrs(rec.captured)...)
		}

		slog.LogAttrs(context.Background(), levelFor(rec.status), "request", attrs...)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// errorAttrs pulls the error out of a captured response envelope. Bodies
// that are not an envelope yield nothing.
func errorAttrs(body []byte) []slog.Attr {
	if len(body) == 0 {
		return nil
	}

	var resp model.APIResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == nil {
		return nil
	}

	attrs := []slog.Attr{
		slog.String("error_code", resp.Error.Code),
		slog.String("error_message", resp.Error.Message),
	}
	if resp.Error.Details != "" {
		attrs = append(attrs, slog.String("error_details", resp.Error.Details))
	}
	return attrs
}

// routePattern keeps metric labels bounded: /chatrooms/{id} rather than
// one series per chatroom.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// statusRecorder remembers the response status and, for failed requests,
// the head of the body.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	captured    []byte
}

func (rec *statusRecorder) WriteHeader(status int) {
	if rec.wroteHeader {
		return
	}
	rec.status = status
	rec.wroteHeader = true
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status >= http.StatusBadRequest {
		if room := maxCapturedBody - len(rec.captured); room > 0 {
			rec.captured = append(rec.captured, b[:min(room, len(b))]...)
		}
	}
	return rec.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrade pass through the logger.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
