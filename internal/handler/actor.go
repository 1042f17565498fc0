package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rosterhub/platform/internal/auth"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/service"
)

// resolveActor loads the authenticated user behind the request's token claims.
func resolveActor(r *http.Request, accounts *service.AccountService) (*domain.User, error) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		return nil, domain.ErrUnauthorized("missing token subject")
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return nil, domain.ErrUnauthorized("invalid token subject")
	}
	return accounts.GetUser(r.Context(), id)
}

// clientIP extracts the caller address, preferring X-Forwarded-For when the
// service runs behind a proxy.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// pathUUID parses a UUID URL parameter, returning a validation error on garbage.
func pathUUID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrValidation("invalid id in path")
	}
	return id, nil
}
