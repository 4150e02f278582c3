package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// operatorKey is a context key for the authenticated operator.
type operatorKey struct{}

// OperatorFromContext returns the operator claims from the request context.
// Returns nil if the request carried no valid token.
func OperatorFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(operatorKey{}).(*Claims); ok {
		return c
	}
	return nil
}

// readOnly reports whether a method cannot change state.
func readOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Guard requires a valid operator token on state-changing API requests.
// Non-API paths (healthz, metrics, swagger) and reads pass through; a
// valid token on a read is still placed in the context. A nil tokens
// service disables the guard.
func Guard(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip non-API paths (healthz, readyz, metrics, etc.).
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			tokenString, hasBearer := strings.CutPrefix(authHeader, "Bearer ")

			if readOnly(r.Method) {
				if hasBearer {
					if claims, err := tokens.Validate(tokenString); err == nil {
						r = r.WithContext(context.WithValue(r.Context(), operatorKey{}, claims))
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			if !hasBearer || tokenString == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := tokens.Validate(tokenString)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired operator token")
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="farmtech"`)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://farmtech.dev/problems/" + http.StatusText(status),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
