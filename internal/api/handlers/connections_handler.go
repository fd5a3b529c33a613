package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mizanhq/reports-backend/internal/api/middleware"
	"github.com/mizanhq/reports-backend/internal/domain"
	"github.com/mizanhq/reports-backend/internal/repository"
	"github.com/mizanhq/reports-backend/internal/service"
)

type ConnectionsHandler struct {
	service *service.ConnectionService
}

func NewConnectionsHandler(service *service.ConnectionService) *ConnectionsHandler {
	return &ConnectionsHandler{service: service}
}

type connectionRequest struct {
	ServerAddress string `json:"server_address" binding:"required"`
	DatabaseName  string `json:"database_name" binding:"required"`
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
}

func (r connectionRequest) toConfig(userID string) domain.ConnectionConfig {
	return domain.ConnectionConfig{
		UserID:        userID,
		ServerAddress: strings.TrimSpace(r.ServerAddress),
		DatabaseName:  strings.TrimSpace(r.DatabaseName),
		Username:      strings.TrimSpace(r.Username),
		Password:      r.Password,
	}
}

// Save registers the caller's active tenant connection. The settings are
// verified against the live server first.
func (h *ConnectionsHandler) Save(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	cfg := req.toConfig(middleware.UserID(c))
	if err := h.service.Save(c.Request.Context(), &cfg); err != nil {
		tenantErrorResponse(c, err, "failed to save connection")
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

// GetActive returns the caller's active connection, password omitted.
func (h *ConnectionsHandler) GetActive(c *gin.Context) {
	conn, err := h.service.GetActive(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveConnection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active connection"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch connection", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conn)
}

// Test verifies the supplied settings without persisting them.
func (h *ConnectionsHandler) Test(c *gin.Context) {
	var req connectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	cfg := req.toConfig(middleware.UserID(c))
	if err := h.service.Test(c.Request.Context(), cfg); err != nil {
		tenantErrorResponse(c, err, "connection test failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
