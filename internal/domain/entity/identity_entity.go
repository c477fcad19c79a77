package entity

import (
	"strings"
	"time"
)

// Identity is the aggregate root for a registered partner or admin.
// PasswordDigest and RefreshTokens never leave the application layer;
// use View for anything sent over the wire.
type Identity struct {
	ID             string
	Email          string
	PasswordDigest string
	Name           string
	Role           Role
	CompanyName    string
	Phone          string
	IsVerified     bool
	IsKycVerified  bool
	RefreshTokens  []string
	LastLogin      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NormalizeEmail lowercases and trims an email so it can be used as a lookup key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasRefreshToken reports whether token is currently in the valid set.
func (i *Identity) HasRefreshToken(token string) bool {
	for _, t := range i.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

// IdentityView is the redacted representation of an Identity.
type IdentityView struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          Role       `json:"role"`
	CompanyName   string     `json:"companyName,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	IsVerified    bool       `json:"isVerified"`
	IsKycVerified bool       `json:"isKycVerified"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (i *Identity) View() IdentityView {
	return IdentityView{
		ID:            i.ID,
		Email:         i.Email,
		Name:          i.Name,
		Role:          i.Role,
		CompanyName:   i.CompanyName,
		Phone:         i.Phone,
		IsVerified:    i.IsVerified,
		IsKycVerified: i.IsKycVerified,
		LastLogin:     i.LastLogin,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}

// Clone returns a deep copy so stores can hand out records without sharing slices.
func (i *Identity) Clone() *Identity {
	c := *i
	c.RefreshTokens = append([]string(nil), i.RefreshTokens...)
	if i.LastLogin != nil {
		t := *i.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// AppendBounded appends token to tokens and drops the oldest entries so that
// at most max remain. A max of zero or less means unbounded.
func AppendBounded(tokens []string, token string, max int) []string {
	out := append(append([]string(nil), tokens...), token)
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

// RemoveToken returns tokens without any occurrence of token.
func RemoveToken(tokens []string, token string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != token {
			out = append(out, t)
		}
	}
	return out
}
