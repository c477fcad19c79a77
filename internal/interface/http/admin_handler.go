package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/partner-auth-service/internal/domain/entity"
	"github.com/oksasatya/partner-auth-service/internal/interface/middleware"
	"github.com/oksasatya/partner-auth-service/pkg/response"
)

// IdentitySearcher backs the admin identity search.
type IdentitySearcher interface {
	SearchIdentities(ctx context.Context, q string, size int) ([]entity.IdentityView, error)
}

type AdminHandler struct {
	Svc  IdentitySearcher
	Errs middleware.ErrorWriter
}

func NewAdminHandler(svc IdentitySearcher, errs middleware.ErrorWriter) *AdminHandler {
	return &AdminHandler{Svc: svc, Errs: errs}
}

// SearchIdentities GET /api/admin/identities/search?q=&size=
func (h *AdminHandler) SearchIdentities(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	items, err := h.Svc.SearchIdentities(c.Request.Context(), q, size)
	if err != nil {
		h.Errs.Write(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items}, "search results", gin.H{"count": len(items), "q": q})
}
