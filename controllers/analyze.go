package controllers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"windowquote-backend/services"
	"windowquote-backend/utils"
	"windowquote-backend/validation"

	"github.com/gin-gonic/gin"
)

// AnalyzeWindowInput defines the expected JSON structure for an image analysis
type AnalyzeWindowInput struct {
	SessionID     string `json:"sessionId"`
	Image         string `json:"image" binding:"required"` // base64, optionally a data URL
	Source        string `json:"source"`
	DeviceType    string `json:"deviceType"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
}

// AnalyzeWindow runs the vision pipeline on an uploaded window photo.
func AnalyzeWindow(c *gin.Context) {
	var input AnalyzeWindowInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	image, err := decodeImage(input.Image)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "image must be valid base64")
		return
	}

	result, err := quoteSvc.AnalyzeImage(c.Request.Context(), services.AnalyzeRequest{
		SessionID:     input.SessionID,
		Image:         image,
		Source:        input.Source,
		DeviceType:    input.DeviceType,
		CustomerEmail: input.CustomerEmail,
		CustomerName:  input.CustomerName,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondWithData(c, http.StatusOK, result, "Window analysis completed")
}

// ValidateMeasurements checks an AI-assisted measurement payload without
// persisting anything.
func ValidateMeasurements(c *gin.Context) {
	var input validation.MeasurementPayload
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	result := validation.ValidateMeasurement(input)
	if !result.Valid {
		utils.RespondWithErrors(c, http.StatusBadRequest, "Validation failed", result.Errors)
		return
	}
	utils.RespondWithData(c, http.StatusOK, result, "Measurements are valid")
}

// decodeImage strips an optional data-URL prefix and decodes base64.
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ";base64,"); idx >= 0 {
			s = s[idx+len(";base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}
