// Package memory provides an in-process IdentityRepository used for local
// development (STORE_DRIVER=memory) and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	"github.com/oksasatya/partner-auth-service/internal/domain/repository"
)

type IdentityRepository struct {
	mu      sync.Mutex
	byID    map[string]*entity.Identity
	byEmail map[string]string
	now     func() time.Time
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		byID:    make(map[string]*entity.Identity),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *IdentityRepository) Create(_ context.Context, i *entity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := entity.NormalizeEmail(i.Email)
	if _, ok := r.byEmail[email]; ok {
		return repository.ErrDuplicate
	}
	if _, ok := r.byID[i.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.now().UTC()
	i.Email = email
	i.CreatedAt = now
	i.UpdatedAt = now

	r.byID[i.ID] = i.Clone()
	r.byEmail[email] = i.ID
	return nil
}

func (r *IdentityRepository) GetByID(_ context.Context, id string) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return i.Clone(), nil
}

func (r *IdentityRepository) GetByEmail(_ context.Context, email string) (*entity.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[entity.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *IdentityRepository) AddRefreshToken(_ context.Context, id, token string, max int, loginAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	i.RefreshTokens = entity.AppendBounded(i.RefreshTokens, token, max)
	if loginAt != nil {
		t := *loginAt
		i.LastLogin = &t
	}
	i.UpdatedAt = r.now().UTC()
	return nil
}

func (r *IdentityRepository) RotateRefreshToken(_ context.Context, id, oldToken, newToken string, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.byID[id]
	if !ok || !i.HasRefreshToken(oldToken) {
		return repository.ErrTokenNotFound
	}
	i.RefreshTokens = entity.AppendBounded(entity.RemoveToken(i.RefreshTokens, oldToken), newToken, max)
	i.UpdatedAt = r.now().UTC()
	return nil
}

func (r *IdentityRepository) RemoveRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i, ok := r.byID[id]; ok {
		i.RefreshTokens = entity.RemoveToken(i.RefreshTokens, token)
		i.UpdatedAt = r.now().UTC()
	}
	return nil
}

// All returns a snapshot of every stored identity.
func (r *IdentityRepository) All() []*entity.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entity.Identity, 0, len(r.byID))
	for _, i := range r.byID {
		out = append(out, i.Clone())
	}
	return out
}

func (r *IdentityRepository) Ping(context.Context) error { return nil }

var _ repository.IdentityRepository = (*IdentityRepository)(nil)
