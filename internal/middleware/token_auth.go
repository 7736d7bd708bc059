package middleware

import (
	"context"
	"net/http"
	"strings"

	"authapi/internal/repository"
)

type ctxKey string

const (
	CtxUserID ctxKey = "user_id"
	CtxToken  ctxKey = "token"
)

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	http.Error(w, message, http.StatusUnauthorized)
}

// TokenAuth resolves the presented bearer string against the tokens
// table. A session is exactly a stored row, so a token deleted by
// logout fails here with no further state to consult.
func TokenAuth(tokens repository.TokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Missing Authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, "Invalid Authorization header")
				return
			}

			token, err := tokens.Get(r.Context(), parts[1])
			if err != nil {
				unauthorized(w, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), CtxUserID, token.UserID)
			ctx = context.WithValue(ctx, CtxToken, token.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
