package repository

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
)

var (
	ErrNotFound  = errors.New("identity not found")
	ErrDuplicate = errors.New("identity already exists")

	// ErrTokenNotFound means the presented refresh token is not in the identity's valid set
	ErrTokenNotFound = errors.New("refresh token not found")
)

// IdentityRepository persists identities keyed by id and normalized email.
//
// Refresh token mutations are single conditional updates on one record so
// concurrent callers never both observe the same token as valid.
type IdentityRepository interface {
	Create(ctx context.Context, i *entity.Identity) error
	GetByID(ctx context.Context, id string) (*entity.Identity, error)
	GetByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// AddRefreshToken pushes token onto the set, evicting the oldest entries
	// beyond max, and records a successful login when loginAt is non-nil.
	AddRefreshToken(ctx context.Context, id, token string, max int, loginAt *time.Time) error
	// RotateRefreshToken replaces oldToken with newToken only if oldToken is
	// still a member. Returns ErrTokenNotFound otherwise.
	RotateRefreshToken(ctx context.Context, id, oldToken, newToken string, max int) error
	// RemoveRefreshToken deletes token from the set; absence is not an error.
	RemoveRefreshToken(ctx context.Context, id, token string) error

	Ping(ctx context.Context) error
}
