package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
	"github.com/oksasatya/partner-auth-service/pkg/helpers"
	"github.com/oksasatya/partner-auth-service/pkg/metrics"
	"github.com/oksasatya/partner-auth-service/pkg/response"
	"github.com/oksasatya/partner-auth-service/pkg/validation"
)

// SessionService is the part of application.Service the auth routes need.
type SessionService interface {
	Register(ctx context.Context, in application.RegisterInput) (*application.AuthResult, error)
	Login(ctx context.Context, in application.LoginInput) (*application.AuthResult, error)
	Refresh(ctx context.Context, presented string) (application.TokenPair, error)
	Logout(ctx context.Context, identityID, presented string) error
	GetCurrentIdentity(ctx context.Context, identityID string) (entity.IdentityView, error)
}

type AuthHandler struct {
	Svc     SessionService
	Cookies *helpers.Manager
	Errs    middleware.ErrorWriter
	Logger  *logrus.Logger
	Metrics *metrics.Metrics
}

func NewAuthHandler(svc SessionService, cookies *helpers.Manager, errs middleware.ErrorWriter, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies, Errs: errs, Logger: logger}
}

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,pwd"`
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User        entity.IdentityView `json:"user"`
	AccessToken string              `json:"accessToken"`
}

type tokenMeta struct {
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
	})
	h.Metrics.SessionEvent("register", outcome(err))
	if err != nil {
		h.Errs.Write(c, err)
		return
	}
	h.Cookies.SetRefresh(c, res.Tokens.RefreshToken, res.Tokens.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, authResponse{User: res.Identity, AccessToken: res.Tokens.AccessToken},
		"registration successful", tokenMeta{AccessExpiresAt: res.Tokens.AccessTokenExpiry})
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), application.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Client:   application.ClientInfo{IP: middleware.ClientIP(c), UserAgent: c.GetHeader("User-Agent")},
	})
	h.Metrics.SessionEvent("login", outcome(err))
	if err != nil {
		h.Errs.Write(c, err)
		return
	}
	h.Cookies.SetRefresh(c, res.Tokens.RefreshToken, res.Tokens.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, authResponse{User: res.Identity, AccessToken: res.Tokens.AccessToken},
		"login successful", tokenMeta{AccessExpiresAt: res.Tokens.AccessTokenExpiry})
}

// Refresh POST /api/auth/refresh. The refresh token travels only in the cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	pair, err := h.Svc.Refresh(c.Request.Context(), h.Cookies.Refresh(c))
	h.Metrics.SessionEvent("refresh", outcome(err))
	if err != nil {
		h.Errs.Write(c, err)
		return
	}
	h.Cookies.SetRefresh(c, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{"accessToken": pair.AccessToken},
		"token refreshed", tokenMeta{AccessExpiresAt: pair.AccessTokenExpiry})
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := application.PrincipalFrom(c.Request.Context())
	if !ok {
		h.Errs.Write(c, application.ErrMissingToken)
		return
	}
	view, err := h.Svc.GetCurrentIdentity(c.Request.Context(), p.ID)
	if err != nil {
		h.Errs.Write(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": view}, "profile", nil)
}

// Logout POST /api/auth/logout. The cookie is cleared even when revocation fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := application.PrincipalFrom(c.Request.Context())
	if !ok {
		h.Errs.Write(c, application.ErrMissingToken)
		return
	}
	err := h.Svc.Logout(c.Request.Context(), p.ID, h.Cookies.Refresh(c))
	h.Metrics.SessionEvent("logout", outcome(err))
	h.Cookies.ClearRefresh(c)
	if err != nil {
		h.Errs.Write(c, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"loggedOut": true}, "logged out", nil)
}

// outcome labels a session event by its error class.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, application.ErrValidation):
		return "invalid"
	case errors.Is(err, application.ErrDuplicateIdentity):
		return "duplicate"
	case errors.Is(err, application.ErrInvalidCredentials):
		return "bad_credentials"
	case errors.Is(err, application.ErrMissingToken),
		errors.Is(err, application.ErrInvalidToken),
		errors.Is(err, application.ErrInvalidRefreshToken):
		return "rejected"
	default:
		return "error"
	}
}
