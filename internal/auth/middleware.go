package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AnonymousUser is the subject given to requests when anonymous access is allowed.
const AnonymousUser = "anonymous"

// Middleware requires a bearer token in the Authorization header or, for
// websocket upgrades, a token query parameter. With allowAnonymous set,
// requests without any token pass as AnonymousUser; a bad token is still rejected.
func (s *Service) Middleware(allowAnonymous bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := tokenFromRequest(r)
			if err != "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err})
				return
			}

			userID := AnonymousUser
			if raw == "" && !allowAnonymous {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing authorization"})
				return
			}
			if raw != "" {
				sub, verr := s.ValidateToken(raw)
				if verr != nil {
					writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
					return
				}
				userID = sub
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) (token string, problem string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", "invalid authorization format"
		}
		return parts[1], ""
	}
	return r.URL.Query().Get("token"), ""
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}
