package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dablu757/fast-auth-guard/internal/logger"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// refresh exchanges a valid refresh token for a brand-new pair. Any
// decode failure answers 401 with a generic message.
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pair, err := h.tokens.Refresh(req.RefreshToken)
	if err != nil {
		logger.Warn("refresh rejected", nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, pair)
}
