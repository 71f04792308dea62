package controllers

import (
	"net/http"

	"windowquote-backend/gateway"
	"windowquote-backend/utils"

	"github.com/gin-gonic/gin"
)

// IframeMessage receives a widget message, enforces the origin policy and
// dispatches the action through the gateway. The gateway's envelope is
// returned verbatim so the widget sees one consistent shape.
func IframeMessage(c *gin.Context) {
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = c.GetHeader("Referer")
	}
	if !iframe.CheckOrigin(origin) {
		utils.RespondWithError(c, http.StatusBadRequest, "Origin not allowed")
		return
	}

	var msg gateway.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid message: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, iframe.Handle(c.Request.Context(), msg))
}
