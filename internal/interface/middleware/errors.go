package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/partner-auth-service/internal/application"
	"github.com/oksasatya/partner-auth-service/pkg/response"
)

// ErrorWriter maps application errors onto one HTTP status and a generic
// message. Error detail is attached only when Debug is set.
type ErrorWriter struct {
	Debug  bool
	Logger *logrus.Logger
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrValidation):
		return http.StatusBadRequest, "invalid payload"
	case errors.Is(err, application.ErrDuplicateIdentity):
		return http.StatusConflict, "user with this email already exists"
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, application.ErrMissingToken):
		return http.StatusUnauthorized, "missing token"
	case errors.Is(err, application.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, application.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, application.ErrForbidden):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound, "user not found"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// Write sends the error envelope. Validation messages are safe to expose and
// are always included.
func (w ErrorWriter) Write(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError && w.Logger != nil {
		w.Logger.WithError(err).
			WithField("request_id", c.GetString(response.RequestIDKey)).
			WithField("path", c.FullPath()).
			Error("request failed")
	}
	var detail interface{}
	if w.Debug || errors.Is(err, application.ErrValidation) {
		detail = err.Error()
	}
	response.Error[any](c, status, msg, detail)
}

// Abort writes the error and stops the handler chain.
func (w ErrorWriter) Abort(c *gin.Context, err error) {
	w.Write(c, err)
	c.Abort()
}
