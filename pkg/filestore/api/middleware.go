package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
)

// IdentityFromRequest derives the caller identity from the verified token
// claims jwtauth left in the request context. A missing or invalid token
// yields the anonymous identity; handlers turn that into 401 via the
// service's authorization check rather than rejecting here, so every
// failure still produces the uniform JSON body.
func IdentityFromRequest(r *http.Request) filestore.Identity {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return filestore.ParseIdentity(nil)
	}
	return filestore.ParseIdentity(claims)
}

// ClientIP extracts the originating client address. X-Forwarded-For may
// carry a proxy chain "client, proxy1, proxy2"; the first element wins.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Recoverer converts a handler panic into a structured JSON 500 so no
// fault ever escapes as an unformatted transport error.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic in handler",
					"method", r.Method, "path", r.URL.Path, "panic", rec)
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, ErrorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
