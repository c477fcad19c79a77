package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
)

const CtxUserIDKey = "userID"

// Authenticator resolves a bearer access token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (application.Principal, error)
}

// Auth validates the bearer access token and attaches the principal to the
// request context. Expired and malformed tokens produce the same response.
func Auth(authn Authenticator, errs ErrorWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := authn.Authenticate(c.Request.Context(), BearerToken(c))
		if err != nil {
			errs.Abort(c, err)
			return
		}
		c.Request = c.Request.WithContext(application.WithPrincipal(c.Request.Context(), p))
		c.Set(CtxUserIDKey, p.ID) // read by KeyByUserID
		c.Next()
	}
}

// RequireRoles rejects principals outside roles with 403. It must run after Auth.
func RequireRoles(errs ErrorWriter, roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := application.PrincipalFrom(c.Request.Context())
		if !ok {
			errs.Abort(c, application.ErrMissingToken)
			return
		}
		if err := application.Authorize(p, roles...); err != nil {
			errs.Abort(c, err)
			return
		}
		c.Next()
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
