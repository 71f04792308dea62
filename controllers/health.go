package controllers

import (
	"net/http"
	"time"

	"windowquote-backend/utils"

	"github.com/gin-gonic/gin"
)

// SystemHealth probes the critical collections and reports which external
// integrations are configured. The endpoint itself always answers 200; the
// status field carries the verdict.
func SystemHealth(c *gin.Context) {
	report := store.CheckHealth()

	_, materialCount := cat.Materials()
	_, typeCount := cat.WindowTypes()

	utils.RespondWithData(c, http.StatusOK, gin.H{
		"status":         report.Status,
		"collections":    report.Collections,
		"responseTimeMs": report.ResponseTimeMS,
		"catalog": gin.H{
			"materials":   materialCount,
			"windowTypes": typeCount,
		},
		"integrations": gin.H{
			"vision": cfg.VisionAPIKey != "",
			"email":  cfg.EmailEndpoint != "",
			"sms":    cfg.TwilioAccountSID != "",
		},
		"checkedAt": time.Now().UTC().Format(time.RFC3339),
	}, "")
}
