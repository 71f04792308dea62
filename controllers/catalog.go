package controllers

import (
	"net/http"

	"windowquote-backend/pricing"
	"windowquote-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetMaterials returns the frame material catalog.
func GetMaterials(c *gin.Context) {
	items, count := cat.Materials()
	utils.RespondWithData(c, http.StatusOK, gin.H{"items": items, "totalCount": count}, "")
}

// GetWindowTypes returns the window type catalog.
func GetWindowTypes(c *gin.Context) {
	items, count := cat.WindowTypes()
	utils.RespondWithData(c, http.StatusOK, gin.H{"items": items, "totalCount": count}, "")
}

// GetWindowBrands returns the brand catalog.
func GetWindowBrands(c *gin.Context) {
	items, count := cat.Brands()
	utils.RespondWithData(c, http.StatusOK, gin.H{"items": items, "totalCount": count}, "")
}

// GetWindowOptions returns the add-on option catalog.
func GetWindowOptions(c *gin.Context) {
	items, count := cat.Options()
	utils.RespondWithData(c, http.StatusOK, gin.H{"items": items, "totalCount": count}, "")
}

// GetWindowProducts returns the combined product bundle the widget loads
// in one round trip.
func GetWindowProducts(c *gin.Context) {
	types, typeCount := cat.WindowTypes()
	brands, brandCount := cat.Brands()
	options, optionCount := cat.Options()
	utils.RespondWithData(c, http.StatusOK, gin.H{
		"windowTypes": gin.H{"items": types, "totalCount": typeCount},
		"brands":      gin.H{"items": brands, "totalCount": brandCount},
		"options":     gin.H{"items": options, "totalCount": optionCount},
	}, "")
}

// GetConfiguration returns the customer-visible pricing configuration.
// The hidden markup layer is never exposed here.
func GetConfiguration(c *gin.Context) {
	utils.RespondWithData(c, http.StatusOK, customerConfig(cat.PricingConfig()), "")
}

func customerConfig(cfg pricing.Config) gin.H {
	return gin.H{
		"pricePerUI":        cfg.PricePerUI,
		"salesMarkup":       cfg.SalesMarkup,
		"installationRate":  cfg.InstallationRate,
		"taxRate":           cfg.TaxRate,
		"laborBaseRate":     cfg.LaborBaseRate,
		"minimumOrderValue": cfg.MinimumOrderValue,
	}
}
