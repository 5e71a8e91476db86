package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the correlation id back to the client.
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey = contextKey("requestID")

// GetRequestID returns the correlation id assigned to this request.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID assigns a random correlation id to every request, binds it to the
// request-scoped logger and echoes it in the response headers. Concurrent
// requests never share state: everything lives on the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		reqLogger := log.With().Str("request_id", id).Logger()
		ctx = reqLogger.WithContext(ctx)

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger emits one structured access-log line per request with method,
// path, client address, status and elapsed time. The deferred emit runs on
// every exit path; if the inner handler panics past the recoverer (e.g.
// http.ErrAbortHandler on a cancelled connection) the failure is still logged
// before the panic continues.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			elapsed := time.Since(start)
			logger := zerolog.Ctx(r.Context())

			if rec := recover(); rec != nil {
				logger.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("client", r.RemoteAddr).
					Dur("elapsed", elapsed).
					Interface("panic", rec).
					Msg("request failed")
				panic(rec)
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("client", r.RemoteAddr).
				Int("status", status).
				Dur("elapsed", elapsed).
				Msg("request completed")
		}()

		next.ServeHTTP(ww, r)
	})
}

// Recoverer translates an unhandled panic into a generic 500 response. The
// panic value and stack are logged server-side; the body never leaks them.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				zerolog.Ctx(r.Context()).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic while handling request")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
