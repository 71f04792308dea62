package controllers

import (
	"net/http"
	"time"

	"windowquote-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview returns the staff lead and quote aggregates.
func GetDashboardOverview(c *gin.Context) {
	stats := store.Dashboard(time.Now().UTC())
	utils.RespondWithData(c, http.StatusOK, stats, "")
}
