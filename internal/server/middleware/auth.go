// Package middleware provides HTTP middleware for bearer-token authentication.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// subjectKey is the context key for storing the authenticated token subject.
const subjectKey ContextKey = "subject"

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (SubjectGetter, error)
}

// SubjectGetter is an interface for extracting the subject from token claims.
type SubjectGetter interface {
	GetSubject() (string, error)
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the subject to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Parse Bearer token, case-insensitive prefix
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				unauthorized(w)
				return
			}

			subject, err := claims.GetSubject()
			if err != nil || subject == "" {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="career-transitions"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// GetSubject extracts the authenticated token subject from the request context.
func GetSubject(r *http.Request) (string, error) {
	subject, ok := r.Context().Value(subjectKey).(string)
	if !ok {
		return "", fmt.Errorf("subject not found in request context")
	}
	return subject, nil
}
