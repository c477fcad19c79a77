package application

import (
	"context"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
)

// Principal is the authenticated caller resolved from an access token.
type Principal struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  entity.Role `json:"role"`
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authorize fails with ErrForbidden unless p holds one of roles.
func Authorize(p Principal, roles ...entity.Role) error {
	if !entity.RoleAllowed(p.Role, roles...) {
		return ErrForbidden
	}
	return nil
}
