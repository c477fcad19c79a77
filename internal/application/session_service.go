package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	repo "github.com/oksasatya/partner-auth-service/internal/domain/repository"
	"github.com/oksasatya/partner-auth-service/pkg/helpers"
	"github.com/oksasatya/partner-auth-service/pkg/validation"
)

// PasswordHasher is a one-way password hash with a configurable work factor.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenCodec signs and verifies stateless bearer tokens.
type TokenCodec interface {
	IssueAccessToken(subjectID string) (string, time.Time, error)
	IssueRefreshToken(subjectID string) (string, time.Time, error)
	Verify(token string, kind helpers.TokenKind) (string, error)
}

// Notifier is told about successful registrations and logins. Delivery is
// best effort and never fails the originating operation.
type Notifier interface {
	IdentityRegistered(ctx context.Context, v entity.IdentityView) error
	IdentityLoggedIn(ctx context.Context, v entity.IdentityView, client ClientInfo) error
}

// Indexer keeps a searchable copy of identity views for the admin screens.
type Indexer interface {
	Index(ctx context.Context, v entity.IdentityView) error
	Search(ctx context.Context, q string, size int) ([]entity.IdentityView, error)
}

// ClientInfo describes the caller of a login for notifications.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Identity entity.IdentityView
	Tokens   TokenPair
}

type RegisterInput struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required"`
	Name        string `validate:"required"`
	CompanyName string
	Phone       string
	// Role is only honoured for trusted callers such as the seeder; the HTTP
	// layer never sets it.
	Role entity.Role
}

type LoginInput struct {
	Email    string
	Password string
	Client   ClientInfo
}

// Service owns registration, login, refresh-token rotation and logout.
type Service struct {
	Repo        repo.IdentityRepository
	Tokens      TokenCodec
	Hasher      PasswordHasher
	Logger      *logrus.Logger
	MaxSessions int
	Notifier    Notifier
	Indexer     Indexer

	validate *validator.Validate
	now      func() time.Time

	dummyOnce   sync.Once
	dummyDigest string
}

func NewService(repo repo.IdentityRepository, tokens TokenCodec, hasher PasswordHasher, logger *logrus.Logger, maxSessions int) *Service {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &Service{
		Repo:        repo,
		Tokens:      tokens,
		Hasher:      hasher,
		Logger:      logger,
		MaxSessions: maxSessions,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// Register creates a partner identity and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = entity.NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Phone = validation.PhoneForStorage(in.Phone, "")
	if err := s.validateRegister(in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = entity.RolePartner
	}

	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateIdentity
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, s.fail("register lookup", err)
	}

	digest, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, s.fail("hash password", err)
	}

	id := uuid.NewString()
	pair, err := s.issuePair(id)
	if err != nil {
		return nil, err
	}

	identity := &entity.Identity{
		ID:             id,
		Email:          in.Email,
		PasswordDigest: digest,
		Name:           in.Name,
		Role:           in.Role,
		CompanyName:    in.CompanyName,
		Phone:          in.Phone,
		IsVerified:     true,
		IsKycVerified:  false,
		RefreshTokens:  []string{pair.RefreshToken},
	}
	if err := s.Repo.Create(ctx, identity); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, s.fail("create identity", err)
	}

	view := identity.View()
	s.Logger.WithField("user_id", id).Info("identity registered")
	s.afterAuth(ctx, view, func(ctx context.Context) error { return s.Notifier.IdentityRegistered(ctx, view) })
	return &AuthResult{Identity: view, Tokens: pair}, nil
}

// Login verifies credentials and appends a fresh refresh token to the set.
// Unknown email and wrong password fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	identity, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// spend the same hashing time as a real comparison
			s.Hasher.Verify(in.Password, s.dummy())
			return nil, ErrInvalidCredentials
		}
		return nil, s.fail("login lookup", err)
	}
	if !s.Hasher.Verify(in.Password, identity.PasswordDigest) {
		s.Logger.WithField("user_id", identity.ID).Debug("login rejected")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(identity.ID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.Repo.AddRefreshToken(ctx, identity.ID, pair.RefreshToken, s.MaxSessions, &now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.fail("store refresh token", err)
	}
	identity.LastLogin = &now
	identity.UpdatedAt = now

	view := identity.View()
	s.Logger.WithField("user_id", identity.ID).Info("identity logged in")
	s.afterAuth(ctx, view, func(ctx context.Context) error { return s.Notifier.IdentityLoggedIn(ctx, view, in.Client) })
	return &AuthResult{Identity: view, Tokens: pair}, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented token
// leaves the valid set in the same store update that admits its successor.
func (s *Service) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, ErrMissingToken
	}
	subject, err := s.Tokens.Verify(presented, helpers.RefreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	identity, err := s.Repo.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, s.fail("refresh lookup", err)
	}
	if !identity.HasRefreshToken(presented) {
		s.Logger.WithField("user_id", identity.ID).Warn("revoked refresh token presented")
		return TokenPair{}, ErrInvalidRefreshToken
	}

	pair, err := s.issuePair(identity.ID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, identity.ID, presented, pair.RefreshToken, s.MaxSessions); err != nil {
		if errors.Is(err, repo.ErrTokenNotFound) {
			s.Logger.WithField("user_id", identity.ID).Warn("refresh token rotated concurrently")
			return TokenPair{}, ErrInvalidRefreshToken
		}
		return TokenPair{}, s.fail("rotate refresh token", err)
	}
	return pair, nil
}

// Logout revokes presented for identityID. An empty or unknown token is not an error.
func (s *Service) Logout(ctx context.Context, identityID, presented string) error {
	if presented == "" {
		return nil
	}
	if err := s.Repo.RemoveRefreshToken(ctx, identityID, presented); err != nil {
		return s.fail("remove refresh token", err)
	}
	s.Logger.WithField("user_id", identityID).Info("identity logged out")
	return nil
}

// GetCurrentIdentity returns the redacted record for an authenticated caller.
func (s *Service) GetCurrentIdentity(ctx context.Context, identityID string) (entity.IdentityView, error) {
	identity, err := s.Repo.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return entity.IdentityView{}, ErrNotFound
		}
		return entity.IdentityView{}, s.fail("get identity", err)
	}
	return identity.View(), nil
}

// Authenticate resolves an access token to a Principal. Access tokens are
// stateless: the refresh token set is deliberately not consulted, so a token
// stays usable until it expires even after logout.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	if accessToken == "" {
		return Principal{}, ErrMissingToken
	}
	subject, err := s.Tokens.Verify(accessToken, helpers.AccessToken)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	identity, err := s.Repo.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return Principal{}, ErrInvalidToken
		}
		return Principal{}, s.fail("authenticate lookup", err)
	}
	return Principal{ID: identity.ID, Email: identity.Email, Role: identity.Role}, nil
}

// SearchIdentities runs an admin search over the identity index.
func (s *Service) SearchIdentities(ctx context.Context, q string, size int) ([]entity.IdentityView, error) {
	if s.Indexer == nil {
		return []entity.IdentityView{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	out, err := s.Indexer.Search(ctx, q, size)
	if err != nil {
		return nil, s.fail("search identities", err)
	}
	return out, nil
}

func (s *Service) validateRegister(in RegisterInput) error {
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s is invalid", ErrValidation, verrs[0].Field())
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !validation.PasswordAcceptable(in.Password) {
		return fmt.Errorf("%w: password must be at least %d characters and at most %d bytes",
			ErrValidation, validation.MinPasswordLen, validation.MaxPasswordBytes)
	}
	if in.Role != "" && !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}
	return nil
}

func (s *Service) issuePair(subjectID string) (TokenPair, error) {
	access, aexp, err := s.Tokens.IssueAccessToken(subjectID)
	if err != nil {
		return TokenPair{}, s.fail("issue access token", err)
	}
	refresh, rexp, err := s.Tokens.IssueRefreshToken(subjectID)
	if err != nil {
		return TokenPair{}, s.fail("issue refresh token", err)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// afterAuth indexes the identity and runs notify; failures are only logged.
func (s *Service) afterAuth(ctx context.Context, view entity.IdentityView, notify func(context.Context) error) {
	if s.Indexer != nil {
		if err := s.Indexer.Index(ctx, view); err != nil {
			s.Logger.WithError(err).WithField("user_id", view.ID).Warn("identity index failed")
		}
	}
	if s.Notifier != nil {
		if err := notify(ctx); err != nil {
			s.Logger.WithError(err).WithField("user_id", view.ID).Warn("auth notification failed")
		}
	}
}

func (s *Service) fail(op string, err error) error {
	s.Logger.WithError(err).WithField("op", op).Error("session operation failed")
	return wrapInternal(op, err)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		d, err := s.Hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyDigest = d
		}
	})
	return s.dummyDigest
}
