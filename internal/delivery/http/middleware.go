package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/golang-jwt/jwt/v5"
	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-reservation/pkg/response"
)

type adminCtxKey struct{}

// RequestLogContext tags every log line written during the request with its
// request id. It must run after middleware.RequestID.
func RequestLogContext(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), l, "request_id", reqID)))
		})
	}
}

// AdminFromContext returns the subject of the verified admin token.
func AdminFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(adminCtxKey{}).(string)
	return sub, ok && sub != ""
}

// AdminAuth requires an HS256 bearer token signed with secret. The token
// subject identifies the admin for the rest of the request.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				_ = response.WriteJSON(w, response.FromError(pkgErrors.Unauthorized("Missing bearer token")))
				return
			}

			sub, err := parseAdminToken(strings.TrimSpace(raw), secret)
			if err != nil {
				_ = response.WriteJSON(w, response.FromError(pkgErrors.Unauthorized("Invalid token").Wrap(err)))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminCtxKey{}, sub)))
		})
	}
}

func parseAdminToken(token, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// RateLimit limits requests per client IP over a sliding window.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			_ = response.WriteJSON(w, response.Result{
				Success: false,
				Status:  http.StatusTooManyRequests,
				Error:   "Too many requests. Please try again later.",
			})
		}),
	)
}
