package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tallybridge/backend/internal/application/tallysync"
)

// ConnectionHandler handles gateway connection diagnostics
type ConnectionHandler struct {
	BaseHandler
	connectionService *tallysync.ConnectionService
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(connectionService *tallysync.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{
		connectionService: connectionService,
	}
}


// Test godoc
// @ID           testConnection
// @Summary      Validate the gateway connection
// @Description  Run every connection check in order: integration enabled, endpoint reachable, company verified, configured masters present. Warnings do not make the connection unhealthy; failures do.
// @Tags         connection
// @Produce      json
// @Success      200 {object} APIResponse[tallysync.ConnectionReport]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /connection/test [get]
func (h *ConnectionHandler) Test(c *gin.Context) {
	h.Success(c, h.connectionService.ValidateConnection(c.Request.Context()))
}


// Check godoc
// @ID           getConnectionCheck
// @Summary      Get one connection check
// @Description  Run the connection validation and return a single named check from it
// @Tags         connection
// @Produce      json
// @Param        name path string true "Check name" example(connectivity)
// @Success      200 {object} APIResponse[tallysync.ConnectionCheck]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /connection/checks/{name} [get]
func (h *ConnectionHandler) Check(c *gin.Context) {
	name := c.Param("name")
	report := h.connectionService.ValidateConnection(c.Request.Context())
	for _, check := range report.Checks {
		if check.Name == name {
			h.Success(c, check)
			return
		}
	}
	h.NotFound(c, "Unknown connection check '"+name+"'")
}
