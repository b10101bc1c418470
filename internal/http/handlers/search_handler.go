// README: Trip search handler (ranked matches).
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"openseat/internal/modules/matching"
)

type SearchHandler struct {
	search *matching.Service
}

func NewSearchHandler(svc *matching.Service) *SearchHandler {
	return &SearchHandler{search: svc}
}

// Search handles GET /api/search?from=&to=&date=&preferred_time=&time_range=.
func (h *SearchHandler) Search(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	matches, err := h.search.Search(c.Request.Context(), matching.SearchCommand{
		From:          strings.TrimSpace(c.Query("from")),
		To:            strings.TrimSpace(c.Query("to")),
		Date:          date,
		PreferredTime: c.Query("preferred_time"),
		TimeRange:     c.Query("time_range"),
	})
	if err != nil {
		writeAppError(c, err)
		return
	}
	out := make([]matchView, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchJSON(m))
	}
	writeJSON(c, http.StatusOK, gin.H{"results": out, "count": len(out)})
}
