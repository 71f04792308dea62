package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"windowquote-backend/utils"

	"github.com/gin-gonic/gin"
)

// SearchAll runs the bounded cross-collection search for the staff surface.
func SearchAll(c *gin.Context) {
	term := c.Query("q")
	if strings.TrimSpace(term) == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "q query parameter is required")
		return
	}

	var collections []string
	if raw := c.Query("collections"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				collections = append(collections, trimmed)
			}
		}
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results := store.SearchAll(term, collections, limit)
	utils.RespondWithData(c, http.StatusOK, results, "")
}
