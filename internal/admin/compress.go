package admin

import (
	"compress/gzip"
	"net/http"
	"strings"
)

// CompressionMiddleware gzip-compresses eligible admin responses (the
// dashboard HTML, JSON stats, the Prometheus text) when the client sends
// Accept-Encoding: gzip. Unlike a general-purpose server fronting large,
// unpredictable payloads, nothing behind the admin surface is big enough to
// need size-threshold buffering — compression is decided purely from the
// handler's declared Content-Type.
func CompressionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipResponseWriter{ResponseWriter: w}
			defer gw.Close()

			next.ServeHTTP(gw, r)
		})
	}
}

type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	wroteHeader bool
}

func (gw *gzipResponseWriter) shouldCompress() bool {
	ct := strings.ToLower(gw.Header().Get("Content-Type"))
	if ct == "" || gw.Header().Get("Content-Encoding") != "" {
		return false
	}
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "application/json") ||
		strings.Contains(ct, "application/javascript")
}

func (gw *gzipResponseWriter) WriteHeader(code int) {
	if gw.wroteHeader {
		return
	}
	gw.wroteHeader = true

	if gw.shouldCompress() {
		gw.Header().Set("Content-Encoding", "gzip")
		gw.Header().Set("Vary", "Accept-Encoding")
		gw.Header().Del("Content-Length")
		gw.gz = gzip.NewWriter(gw.ResponseWriter)
	}

	gw.ResponseWriter.WriteHeader(code)
}

func (gw *gzipResponseWriter) Write(b []byte) (int, error) {
	if !gw.wroteHeader {
		gw.WriteHeader(http.StatusOK)
	}
	if gw.gz != nil {
		return gw.gz.Write(b)
	}
	return gw.ResponseWriter.Write(b)
}

func (gw *gzipResponseWriter) Close() {
	if gw.gz != nil {
		gw.gz.Close()
	}
}
