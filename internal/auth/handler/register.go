package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dablu757/fast-auth-guard/internal/auth/credentials"
	"github.com/dablu757/fast-auth-guard/internal/logger"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	accountID, err := h.credentialService.Register(
		c.Request.Context(),
		req.Email,
		req.Password,
	)
	if err != nil {
		switch err {
		case credentials.ErrAlreadyRegistered:
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		default:
			// The cause stays in the logs; the response never
			// carries storage or validation internals.
			logger.Warn("registration failed", map[string]any{
				"error": err.Error(),
			})
			c.JSON(http.StatusBadRequest, gin.H{"error": "registration failed"})
		}
		return
	}

	pair, err := h.tokens.IssuePair(accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	c.JSON(http.StatusCreated, pair)
}
