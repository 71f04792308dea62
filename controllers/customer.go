package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"windowquote-backend/repository"
	"windowquote-backend/services"
	"windowquote-backend/utils"
	"windowquote-backend/validation"

	"github.com/gin-gonic/gin"
)

// SaveCustomerInput defines the expected JSON structure for capturing a lead
type SaveCustomerInput struct {
	SessionID     string                     `json:"sessionId"`
	Customer      validation.CustomerPayload `json:"customer" binding:"required"`
	Source        string                     `json:"source"`
	DeviceType    string                     `json:"deviceType"`
	Mode          string                     `json:"mode"`
	Engaged       bool                       `json:"engaged"`
	HasAIAnalysis bool                       `json:"hasAiAnalysis"`
}

// SaveCustomer upserts a lead by email and derives its workflow fields.
func SaveCustomer(c *gin.Context) {
	var input SaveCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	result, err := quoteSvc.SaveCustomer(c.Request.Context(), services.SaveCustomerRequest{
		SessionID:     input.SessionID,
		Payload:       input.Customer,
		Source:        input.Source,
		DeviceType:    input.DeviceType,
		Mode:          input.Mode,
		Engaged:       input.Engaged,
		HasAIAnalysis: input.HasAIAnalysis,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondWithData(c, http.StatusOK, result, "Customer saved")
}

// GetCustomerByEmail looks a lead up by its email key. A miss is a success
// with null data.
func GetCustomerByEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "email query parameter is required")
		return
	}

	customer, err := store.GetCustomerByEmail(email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondWithData(c, http.StatusOK, nil, "Customer not found")
		return
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	utils.RespondWithData(c, http.StatusOK, customer, "")
}

// ListLeads returns customers for the staff surface, optionally filtered by
// lead priority.
func ListLeads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	leads, err := store.ListCustomers(c.Query("priority"), limit)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve leads")
		return
	}
	utils.RespondWithData(c, http.StatusOK, leads, "")
}
