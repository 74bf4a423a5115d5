package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dablu757/fast-auth-guard/internal/account"
	"github.com/dablu757/fast-auth-guard/internal/auth/credentials"
	"github.com/dablu757/fast-auth-guard/internal/auth/handler"
	"github.com/dablu757/fast-auth-guard/internal/auth/provider"
	"github.com/dablu757/fast-auth-guard/internal/auth/provider/github"
	"github.com/dablu757/fast-auth-guard/internal/auth/provider/google"
	"github.com/dablu757/fast-auth-guard/internal/auth/provider/microsoft"
	"github.com/dablu757/fast-auth-guard/internal/auth/resolver"
	"github.com/dablu757/fast-auth-guard/internal/config"
	"github.com/dablu757/fast-auth-guard/internal/logger"
	"github.com/dablu757/fast-auth-guard/internal/loginstate"
	"github.com/dablu757/fast-auth-guard/internal/middleware"
	"github.com/dablu757/fast-auth-guard/internal/token"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	// An empty JWT secret aborts startup here: serving traffic with
	// an undefined signing secret is never acceptable.
	tokenService, err := token.NewService(
		cfg.JWTSecret,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		nil,
	)
	if err != nil {
		return nil, nil, err
	}

	stateStore := loginstate.NewRedisStore(infra.Redis.Client, 0)
	accountStore := account.NewPostgresStore(infra.DB)
	identityResolver := resolver.NewStoreResolver(accountStore)
	credentialService := credentials.NewService(infra.DB)

	providers, err := buildProviders(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	registry := provider.NewRegistry(providers...)
	logger.Info("oauth providers registered", map[string]any{
		"providers": registry.Names(),
	})

	authHandler := handler.NewHandler(
		registry,
		stateStore,
		identityResolver,
		tokenService,
		credentialService,
		cfg.ProviderTimeout,
	)

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	users := router.Group("/users")
	users.Use(middleware.GinRequireAuth(authMiddleware))

	users.GET("/me", func(c *gin.Context) {
		accountID, ok := middleware.AccountIDFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		acct, err := accountStore.FindByID(c.Request.Context(), accountID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
			return
		}
		if acct == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":                acct.ID,
			"email":             acct.Email,
			"display_name":      acct.DisplayName,
			"linked_identities": acct.LinkedIdentities,
			"created_at":        acct.CreatedAt,
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}

// buildProviders constructs every provider with credentials in the
// environment. Running with a subset is fine; running with none is a
// configuration error.
func buildProviders(ctx context.Context, cfg config.Config) ([]provider.OAuthProvider, error) {
	var providers []provider.OAuthProvider

	if cfg.GoogleClientID != "" {
		p, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.CallbackURL("google"),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if cfg.GitHubClientID != "" {
		p, err := github.New(
			cfg.GitHubClientID,
			cfg.GitHubClientSecret,
			cfg.CallbackURL("github"),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if cfg.MicrosoftClientID != "" {
		p, err := microsoft.New(
			ctx,
			cfg.MicrosoftIssuer,
			cfg.MicrosoftClientID,
			cfg.MicrosoftClientSecret,
			cfg.CallbackURL("microsoft"),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}

	if len(providers) == 0 {
		return nil, errors.New("no oauth providers configured")
	}

	return providers, nil
}
