package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	"github.com/oksasatya/partner-auth-service/internal/domain/repository"
)

const uniqueViolation = "23505"

const selectIdentity = `
	SELECT id, email, password_digest, name, role, company_name, phone,
	       is_verified, is_kyc_verified, refresh_tokens, last_login, created_at, updated_at
	FROM identities
`

type IdentityRepository struct {
	pool *pgxpool.Pool
}

func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Create(ctx context.Context, i *entity.Identity) error {
	tokens := i.RefreshTokens
	if tokens == nil {
		tokens = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO identities (id, email, password_digest, name, role, company_name, phone,
		                        is_verified, is_kyc_verified, refresh_tokens, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, i.ID, i.Email, i.PasswordDigest, i.Name, string(i.Role), i.CompanyName, i.Phone,
		i.IsVerified, i.IsKycVerified, tokens, i.LastLogin)

	if err := row.Scan(&i.CreatedAt, &i.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*entity.Identity, error) {
	return r.getOne(ctx, selectIdentity+` WHERE id = $1`, id)
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	return r.getOne(ctx, selectIdentity+` WHERE email = $1`, entity.NormalizeEmail(email))
}

func (r *IdentityRepository) getOne(ctx context.Context, query string, arg string) (*entity.Identity, error) {
	var (
		i    entity.Identity
		role string
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&i.ID, &i.Email, &i.PasswordDigest, &i.Name, &role, &i.CompanyName, &i.Phone,
		&i.IsVerified, &i.IsKycVerified, &i.RefreshTokens, &i.LastLogin, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		var pgErr *pgconn.PgError
		// malformed uuid in the id lookup
		if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	i.Role = entity.ParseRole(role)
	return &i, nil
}

func (r *IdentityRepository) AddRefreshToken(ctx context.Context, id, token string, max int, loginAt *time.Time) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET refresh_tokens = keep_last(array_append(refresh_tokens, $2::text), $3),
		    last_login = COALESCE($4, last_login),
		    updated_at = now()
		WHERE id = $1
	`, id, token, max, loginAt)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *IdentityRepository) RotateRefreshToken(ctx context.Context, id, oldToken, newToken string, max int) error {
	// The membership predicate and the replacement run in one statement; a
	// concurrent rotation of the same token re-checks the predicate after the
	// winner commits and matches zero rows.
	res, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET refresh_tokens = keep_last(array_append(array_remove(refresh_tokens, $2::text), $3::text), $4),
		    updated_at = now()
		WHERE id = $1 AND $2::text = ANY(refresh_tokens)
	`, id, oldToken, newToken, max)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrTokenNotFound
	}
	return nil
}

func (r *IdentityRepository) RemoveRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE identities
		SET refresh_tokens = array_remove(refresh_tokens, $2::text),
		    updated_at = now()
		WHERE id = $1
	`, id, token)
	return err
}

func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

var _ repository.IdentityRepository = (*IdentityRepository)(nil)
