package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dablu757/fast-auth-guard/internal/auth/provider"
	"github.com/dablu757/fast-auth-guard/internal/auth/resolver"
	"github.com/dablu757/fast-auth-guard/internal/logger"
	"github.com/dablu757/fast-auth-guard/internal/loginstate"
	"github.com/dablu757/fast-auth-guard/internal/token"
)

const defaultExchangeTimeout = 10 * time.Second

// CredentialService manages password credentials for the register and
// password-login endpoints. Satisfied by credentials.Service.
type CredentialService interface {
	Register(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// Handler drives each login attempt end to end: redirect
// construction, callback handling, identity linking, token issuance.
// Every callback is handled independently; the only cross-request
// state is the one-shot login state written at redirect time.
type Handler struct {
	providers         *provider.Registry
	states            loginstate.Store
	resolver          resolver.Resolver
	tokens            *token.Service
	credentialService CredentialService
	exchangeTimeout   time.Duration
}

func NewHandler(
	registry *provider.Registry,
	states loginstate.Store,
	resolver resolver.Resolver,
	tokens *token.Service,
	credentialService CredentialService,
	exchangeTimeout time.Duration,
) *Handler {
	if exchangeTimeout <= 0 {
		exchangeTimeout = defaultExchangeTimeout
	}
	return &Handler{
		providers:         registry,
		states:            states,
		resolver:          resolver,
		tokens:            tokens,
		credentialService: credentialService,
		exchangeTimeout:   exchangeTimeout,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/auth/login/:provider", h.beginLogin)
	r.GET("/auth/callback/:provider", h.completeLogin)
	r.POST("/auth/refresh", h.refresh)
	r.POST("/auth/register", h.register)
	r.POST("/auth/login", h.passwordLogin)
}

// beginLogin resolves the provider and redirects the user agent to
// its authorization URL. Unknown provider is a 404; nothing is
// persisted and no network call is made in that case.
func (h *Handler) beginLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "provider not supported",
		})
		return
	}

	state, err := loginstate.GenerateID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}
	verifier, challenge := generatePKCE()

	err = h.states.Create(c.Request.Context(), loginstate.State{
		ID:           state,
		Provider:     providerName,
		PKCEVerifier: verifier,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.Error("failed to persist login state", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, challenge))
}

// completeLogin handles the provider callback: consume the login
// state, exchange the code under a bounded timeout, link the verified
// identity, and answer with a token pair. Failures are reported with
// a generic message so callers cannot tell which step failed.
func (h *Handler) completeLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "provider not supported",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed"})
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code", map[string]any{
			"provider": providerName,
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed"})
		return
	}

	st, err := h.states.Consume(c.Request.Context(), c.Query("state"))
	if err != nil {
		logger.Error("failed to load login state", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}
	if st == nil || st.Provider != providerName {
		logger.Warn("login state missing or provider mismatch", map[string]any{
			"provider": providerName,
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	// A hung provider must fail the login, never the process.
	exchangeCtx, cancel := context.WithTimeout(c.Request.Context(), h.exchangeTimeout)
	defer cancel()

	identity, err := p.ExchangeCode(exchangeCtx, code, st.PKCEVerifier)
	if err != nil {
		logger.Warn("code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	if identity.Email == "" {
		logger.Warn("provider identity missing email", map[string]any{
			"provider": providerName,
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "authentication failed"})
		return
	}

	acct, err := h.resolver.Resolve(c.Request.Context(), identity)
	if err != nil {
		logger.Error("failed to resolve account", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve account"})
		return
	}

	pair, err := h.tokens.IssuePair(acct.ID)
	if err != nil {
		logger.Error("failed to issue tokens", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	logger.Info("login succeeded", map[string]any{
		"provider":   providerName,
		"account_id": acct.ID,
	})

	c.JSON(http.StatusOK, pair)
}
