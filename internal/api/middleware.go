package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"medifinder/m/domain"
	"medifinder/m/internal/apperr"
	"medifinder/m/internal/identity"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

func claimsFrom(ctx context.Context) (identity.Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(identity.Claims)
	return c, ok
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondFailure(w, r, apperr.New(apperr.Authentication, "No token provided"))
			return
		}
		claims, err := h.svc.Tokens.Verify(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			respondFailure(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole must run after authMiddleware.
func requireRole(allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFrom(r.Context())
			if !ok {
				respondFailure(w, r, apperr.New(apperr.Authentication, "Authentication required"))
				return
			}
			for _, role := range allowed {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondFailure(w, r, apperr.New(apperr.Authorization, string(allowed[0])+" access required"))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}
