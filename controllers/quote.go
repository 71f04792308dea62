package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"windowquote-backend/pricing"
	"windowquote-backend/repository"
	"windowquote-backend/services"
	"windowquote-backend/utils"
	"windowquote-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CalculateQuoteInput defines the expected JSON structure for a quote request
type CalculateQuoteInput struct {
	SessionID     string                      `json:"sessionId"`
	Windows       []pricing.Spec              `json:"windows" binding:"required"`
	Customer      *validation.CustomerPayload `json:"customer"`
	Config        *pricing.Config             `json:"config"`
	Source        string                      `json:"source"`
	DeviceType    string                      `json:"deviceType"`
	Mode          string                      `json:"mode"`
	HasAIAnalysis bool                        `json:"hasAiAnalysis"`
	Engaged       bool                        `json:"engaged"`
	SendEmail     bool                        `json:"sendEmail"`
}

// CalculateQuote prices a set of windows and, when customer details are
// present, persists the lead and the quote.
func CalculateQuote(c *gin.Context) {
	var input CalculateQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	resp, err := quoteSvc.CalculateQuote(c.Request.Context(), services.QuoteRequest{
		SessionID:      input.SessionID,
		Windows:        input.Windows,
		ConfigOverride: input.Config,
		Customer:       input.Customer,
		Source:         input.Source,
		DeviceType:     input.DeviceType,
		Mode:           input.Mode,
		HasAIAnalysis:  input.HasAIAnalysis,
		Engaged:        input.Engaged,
		SendEmail:      input.SendEmail,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondWithData(c, http.StatusOK, resp, "Quote calculated")
}

// CreateQuoteInput is a staff quote submission for an existing lead.
type CreateQuoteInput struct {
	CustomerID string         `json:"customerId" binding:"required"`
	WindowData []pricing.Spec `json:"windowData" binding:"required"`
	ValidDays  int            `json:"validDays"`
}

// CreateQuote validates a staff submission and persists a quote against
// the referenced lead.
func CreateQuote(c *gin.Context) {
	var input CreateQuoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	res := validation.ValidateQuoteSubmission(validation.QuotePayload{
		CustomerID: input.CustomerID,
		WindowData: input.WindowData,
		ValidDays:  input.ValidDays,
	})
	if !res.Valid {
		utils.RespondWithErrors(c, http.StatusBadRequest, "Validation failed", res.Errors)
		return
	}

	resp, err := quoteSvc.CreateQuoteForCustomer(c.Request.Context(), res.Sanitized)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondWithData(c, http.StatusCreated, resp, "Quote created")
}

// ExplanationInput references a stored quote or carries one inline.
type ExplanationInput struct {
	SessionID string         `json:"sessionId"`
	QuoteID   string         `json:"quoteId"`
	Quote     *pricing.Quote `json:"quote"`
}

// GenerateQuoteExplanation produces a customer-facing paragraph for a quote.
func GenerateQuoteExplanation(c *gin.Context) {
	var input ExplanationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	req := services.ExplainRequest{SessionID: input.SessionID, Quote: input.Quote}
	if input.QuoteID != "" {
		id, err := uuid.Parse(input.QuoteID)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid quote ID format")
			return
		}
		req.QuoteID = &id
	}

	result, err := quoteSvc.ExplainQuote(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondWithData(c, http.StatusOK, result, "Quote explanation generated")
}

// ListQuotes returns recent quotes for the staff surface.
func ListQuotes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	quotes, err := store.ListQuotes(limit)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve quotes")
		return
	}
	utils.RespondWithData(c, http.StatusOK, quotes, "")
}

// GetQuote returns one quote with its lines.
func GetQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid quote ID format")
		return
	}

	quote, err := store.GetQuote(id)
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondWithData(c, http.StatusOK, nil, "Quote not found")
		return
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	utils.RespondWithData(c, http.StatusOK, quote, "")
}

// respondServiceError maps service errors onto the response envelope.
// A missing record is a success with null data.
func respondServiceError(c *gin.Context, err error) {
	var vf *services.ValidationFailure
	if errors.As(err, &vf) {
		utils.RespondWithErrors(c, http.StatusBadRequest, "Validation failed", vf.Messages)
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondWithData(c, http.StatusOK, nil, "Record not found")
		return
	}
	logger.Error("request failed", zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, "Internal error")
}
