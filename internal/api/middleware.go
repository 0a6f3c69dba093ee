package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/finbook/finbook-server/internal/metrics"
)

// Identity is the unverified user claim pulled from a bearer token. It is an
// opaque ownership hint forwarded to the ledger, never an authorization
// decision.
type Identity struct {
	UserID string
	Email  string
}

type identityKey struct{}

// IdentityFromContext returns the claimed identity attached by
// ClaimedIdentity, if the request carried a decodable bearer token.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// ClaimedIdentity decodes the Authorization bearer token and stashes its
// sub/email claims in the request context. Tokens are issued and validated
// upstream; the signature is deliberately not checked here.
func ClaimedIdentity(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
				claims := jwt.MapClaims{}
				if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
					log.Debug().Err(err).Msg("bearer token decode failed")
				} else {
					var id Identity
					if sub, ok := claims["sub"].(string); ok {
						id.UserID = sub
					}
					if email, ok := claims["email"].(string); ok {
						id.Email = email
					}
					if id.UserID != "" {
						r = r.WithContext(context.WithValue(r.Context(), identityKey{}, id))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows any origin, matching the browser clients this backend serves.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestMetrics records Prometheus counters and latency per request.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.RecordRequest(r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
