package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/api/responses"
	"github.com/ooprato/ooprato-backend/internal/audit"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

const (
	TenantHeader = "X-Tenant-Id"
	UserHeader   = "X-User-Id"
)

// Tenant resolves the tenant and acting user from upstream headers. The
// gateway in front of the API authenticates; this layer only parses.
func Tenant(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rawTenant := strings.TrimSpace(r.Header.Get(TenantHeader))
			if rawTenant == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "tenant context missing"))
				return
			}
			tenantID, err := uuid.Parse(rawTenant)
			if err != nil || tenantID == uuid.Nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid tenant id"))
				return
			}
			ctx = WithTenantID(ctx, tenantID)
			if logg != nil {
				ctx = logg.WithTenantID(ctx, tenantID.String())
			}

			if rawUser := strings.TrimSpace(r.Header.Get(UserHeader)); rawUser != "" {
				userID, err := uuid.Parse(rawUser)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id"))
					return
				}
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID.String())
				}
			}

			ctx = audit.WithRequestMeta(ctx, audit.RequestMeta{
				IPAddress: clientIP(r),
				UserAgent: r.UserAgent(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that did not identify the acting user.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
