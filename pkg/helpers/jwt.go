package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpiredToken   = errors.New("token expired")
	ErrMalformedToken = errors.New("token malformed")
)

// TokenKind selects which secret signs or verifies a token
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// JWTManager handles generation and validation of JWT tokens.
// Access and refresh tokens are signed with independent secrets.
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	now func() time.Time
}

func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

type Claims struct {
	UserID string    `json:"uid"`
	Kind   TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs a short-lived token for subjectID
func (m *JWTManager) IssueAccessToken(subjectID string) (string, time.Time, error) {
	return m.issue(subjectID, AccessToken)
}

// IssueRefreshToken signs a long-lived token for subjectID. Every call yields a
// distinct string, even within the same second, because of the random jti.
func (m *JWTManager) IssueRefreshToken(subjectID string) (string, time.Time, error) {
	return m.issue(subjectID, RefreshToken)
}

// Verify checks signature, kind and expiry and returns the bound subject id.
func (m *JWTManager) Verify(tokenStr string, kind TokenKind) (string, error) {
	secret, ttl := m.secretFor(kind)
	if secret == nil || ttl <= 0 {
		return "", ErrMalformedToken
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(m.clock()))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrMalformedToken
	}
	if !tkn.Valid || claims.Kind != kind || claims.UserID == "" {
		return "", ErrMalformedToken
	}
	return claims.UserID, nil
}

func (m *JWTManager) issue(subjectID string, kind TokenKind) (string, time.Time, error) {
	secret, ttl := m.secretFor(kind)
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("signing secret not configured")
	}
	now := m.clock()()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: subjectID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

func (m *JWTManager) secretFor(kind TokenKind) ([]byte, time.Duration) {
	switch kind {
	case AccessToken:
		return m.AccessSecret, m.AccessTTL
	case RefreshToken:
		return m.RefreshSecret, m.RefreshTTL
	}
	return nil, 0
}

func (m *JWTManager) clock() func() time.Time {
	if m.now == nil {
		return time.Now
	}
	return m.now
}
