package controllers

import (
	"errors"
	"net/http"

	"windowquote-backend/models"
	"windowquote-backend/pricing"
	"windowquote-backend/repository"
	"windowquote-backend/utils"

	"github.com/gin-gonic/gin"
)

// PricingConfigInput defines the expected JSON structure for updating the
// pricing configuration. All rates are absolute, not deltas.
type PricingConfigInput struct {
	PricePerUI        float64 `json:"pricePerUI" binding:"required,gt=0"`
	SalesMarkup       float64 `json:"salesMarkup" binding:"required,gte=1"`
	InstallationRate  float64 `json:"installationRate" binding:"gte=0"`
	TaxRate           float64 `json:"taxRate" binding:"gte=0"`
	HiddenMarkup      float64 `json:"hiddenMarkup" binding:"gte=1"`
	ApplyHiddenMarkup bool    `json:"applyHiddenMarkup"`
	LaborBaseRate     float64 `json:"laborBaseRate" binding:"gte=0"`
	MinimumOrderValue float64 `json:"minimumOrderValue" binding:"gte=0"`
}

// GetPricingConfig returns the full active configuration, hidden markup
// included. Staff only; the public surface uses GetConfiguration.
func GetPricingConfig(c *gin.Context) {
	row, err := store.ActivePricingConfig()
	if errors.Is(err, repository.ErrNotFound) {
		utils.RespondWithData(c, http.StatusOK, pricing.DefaultConfig(), "Serving built-in defaults")
		return
	}
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}
	utils.RespondWithData(c, http.StatusOK, row, "")
}

// UpdatePricingConfig writes a new active configuration row and drops the
// catalog caches so the next quote prices under it.
func UpdatePricingConfig(c *gin.Context) {
	var input PricingConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	row := &models.PricingConfigRow{
		PricePerUI:        input.PricePerUI,
		SalesMarkup:       input.SalesMarkup,
		InstallationRate:  input.InstallationRate,
		TaxRate:           input.TaxRate,
		HiddenMarkup:      input.HiddenMarkup,
		ApplyHiddenMarkup: input.ApplyHiddenMarkup,
		LaborBaseRate:     input.LaborBaseRate,
		MinimumOrderValue: input.MinimumOrderValue,
	}
	if err := store.SavePricingConfig(row); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save pricing configuration")
		return
	}

	cat.Invalidate()
	utils.RespondWithData(c, http.StatusOK, row, "Pricing configuration updated")
}

// RefreshCatalog forces an immediate reload of the multiplier tables.
func RefreshCatalog(c *gin.Context) {
	cat.Refresh()
	utils.RespondWithData(c, http.StatusOK, nil, "Catalog refreshed")
}
