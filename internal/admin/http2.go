package admin

import (
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// EnableHTTP2 configures HTTP/2 for srv. With TLS, HTTP/2 negotiates
// automatically; without it, h2c (cleartext HTTP/2) is enabled explicitly.
func EnableHTTP2(srv *http.Server, useTLS bool) error {
	if useTLS {
		return nil
	}
	srv.Handler = h2c.NewHandler(srv.Handler, &http2.Server{})
	return nil
}
