package admin

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

// statusWriter captures the status code and byte count of a response so
// CoreMiddleware can log them; http.ResponseWriter itself exposes neither.
type statusWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytesWritten += n
	return n, err
}

func requestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// CoreMiddleware recovers panics into a 500, assigns a request ID (reusing
// an inbound one if the caller already set it), and logs each request's
// method, path, status, duration, and byte count. The admin surface serves
// a handful of small JSON/HTML endpoints, not high request volumes, so
// there's no pooled writer or buffer here — just enough to observe what
// poolmond's own operators would want out of the access log.
func CoreMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()

			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = requestID()
			}
			w.Header().Set("X-Request-ID", id)

			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.statusCode,
				"duration", time.Since(start),
				"bytes", sw.bytesWritten,
				"request_id", id,
			)
		})
	}
}
