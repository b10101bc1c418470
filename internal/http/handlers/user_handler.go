// README: Caller profile handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"openseat/internal/http/middleware"
	"openseat/internal/modules/user"
)

type UserHandler struct {
	users *user.Service
}

func NewUserHandler(svc *user.Service) *UserHandler {
	return &UserHandler{users: svc}
}

type profileReq struct {
	Name  string `json:"full_name"`
	Phone string `json:"phone"`
}

// Me handles GET /api/me.
func (h *UserHandler) Me(c *gin.Context) {
	p, err := h.users.Get(c.Request.Context(), caller(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, profileJSON(p))
}

// UpdateMe handles PUT /api/me. The role comes from the verified token.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req profileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.users.Update(c.Request.Context(), user.UpdateCommand{
		UserID: caller(c),
		Name:   req.Name,
		Phone:  req.Phone,
		Role:   user.Role(middleware.CallerRole(c)),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, profileJSON(p))
}
