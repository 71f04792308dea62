// Package controllers holds the gin handlers for the public quote surface
// and the staff API. Handlers stay thin: bind, call a service, respond.
package controllers

import (
	"windowquote-backend/catalog"
	"windowquote-backend/config"
	"windowquote-backend/gateway"
	"windowquote-backend/repository"
	"windowquote-backend/services"
	"windowquote-backend/utils"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	cfg      *config.Config
	cat      *catalog.Catalog
	store    *repository.Store
	quoteSvc *services.QuoteService
	iframe   *gateway.Gateway
	logger   *zap.Logger
)

// Init wires the handler dependencies once at startup.
func Init(c *config.Config, ct *catalog.Catalog, st *repository.Store,
	svc *services.QuoteService, gw *gateway.Gateway, log *zap.Logger) {
	cfg = c
	cat = ct
	store = st
	quoteSvc = svc
	iframe = gw
	logger = log

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return utils.ValidatePhone(fl.Field().String())
		})
	}
}
