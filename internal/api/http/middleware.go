package http

import (
	"bufio"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"rental-marketplace-backend/internal/config"
	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"
)

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Hijack is needed for the websocket upgrade.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(s.ResponseWriter).Hijack()
}

// requestContext assigns a request id and a request-scoped logger, and logs
// the outcome of every request.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		l := logger.Get().With("request_id", id)
		ctx := logger.WithContext(r.Context(), l)
		ctx = withRequestID(ctx, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))
		l.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "elapsed", time.Since(start))
	})
}

// recovery turns a handler panic into a 500.
func (ew errorWriter) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "Handler panicked", "path", r.URL.Path, "panic", rec)
				ew.write(w, r, domain.NewInfrastructureError("unexpected failure", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type AuthMiddleware struct {
	tokenManager security.TokenManager
	users        service.UserService
	errors       errorWriter
}

func NewAuthMiddleware(tm security.TokenManager, users service.UserService, development bool) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm, users: users, errors: errorWriter{development: development}}
}

// Handler authenticates the bearer token and checks the route's role policy
// from the security table. Routes are identified by their mux name.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		policy := config.GetEndpointSecurity(name)

		// Public endpoint - skip auth
		if policy.Level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			m.errors.write(w, r, &domain.Error{Code: domain.CodeUnauthenticated, Message: "authorization token is not provided"})
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			m.errors.write(w, r, &domain.Error{Code: domain.CodeUnauthenticated, Message: "invalid token", Err: err})
			return
		}

		principal := claims.Principal()
		if !policy.Allows(principal.Role) {
			m.errors.write(w, r, domain.NewForbiddenError("role %s may not call %s", principal.Role, name))
			return
		}

		ctx := withPrincipal(r.Context(), principal)
		ctx = logger.WithContext(ctx, logger.FromContext(ctx).With("user_id", principal.UserID, "role", principal.Role))

		// Rows created on behalf of the caller reference its user record.
		if err := m.users.SyncPrincipal(ctx, principal, claims.Email); err != nil {
			m.errors.write(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the bearer header. Browsers cannot set headers on a
// websocket upgrade, so access_token is accepted from the query there.
func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
