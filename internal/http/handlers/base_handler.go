// README: Base handler utilities (JSON helpers, error mapping, caller lookup).
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"openseat/internal/apperr"
	"openseat/internal/http/middleware"
	"openseat/internal/types"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

// isValidID accepts uuids and provider-issued user ids.
func isValidID(v string) bool {
	if v == "" || len(v) > 64 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeAppError maps the error taxonomy onto status codes. Unknown errors
// never leak their text.
func writeAppError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case apperr.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case apperr.ErrForbidden:
		writeError(c, http.StatusForbidden, err.Error())
	case apperr.ErrConflict:
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func caller(c *gin.Context) types.ID {
	return types.ID(middleware.CallerUID(c))
}

// pathID reads and validates a path parameter, writing a 400 when invalid.
func pathID(c *gin.Context, name string) (types.ID, bool) {
	v := c.Param(name)
	if !isValidID(v) {
		writeError(c, http.StatusBadRequest, "invalid "+name)
		return "", false
	}
	return types.ID(v), true
}

func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, apperr.BadRequest("date must be YYYY-MM-DD")
	}
	return &d, nil
}
