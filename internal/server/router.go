package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/auth"
	"github.com/flightline-labs/discstash/internal/identity"
	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/marketplace"
	"github.com/flightline-labs/discstash/internal/messaging"
	"github.com/flightline-labs/discstash/internal/metrics"
	"github.com/flightline-labs/discstash/internal/profiles"
	"github.com/flightline-labs/discstash/internal/signup"
)

const (
	userIDContextKey = "discstash_user_id"
	emailContextKey  = "discstash_user_email"
)

var (
	errMissingSignupService      = errors.New("signup service dependency required")
	errMissingIdentityService    = errors.New("identity service dependency required")
	errMissingTokenValidator     = errors.New("token validator dependency required")
	errMissingProfileStore       = errors.New("profile store dependency required")
	errMissingInventoryService   = errors.New("inventory service dependency required")
	errMissingMarketplaceService = errors.New("marketplace service dependency required")
	errMissingMessagingService   = errors.New("messaging service dependency required")
	errInvalidAuthorization      = errors.New("authorization header missing or invalid")
)

// Dependencies wires the HTTP layer to the application services.
type Dependencies struct {
	Signup      *signup.Service
	Identity    *identity.Service
	Tokens      *auth.TokenIssuer
	Profiles    *profiles.Store
	Inventory   *inventory.Service
	Marketplace *marketplace.Service
	Messaging   *messaging.Service
	Images      *inventory.ImageStore
	Collector   *metrics.Collector
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger

	// PublicRatePerMinute bounds unauthenticated auth requests per client
	// address. Zero disables rate limiting.
	PublicRatePerMinute int
}

// NewHTTPHandler builds the API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Signup == nil {
		return nil, errMissingSignupService
	}
	if deps.Identity == nil {
		return nil, errMissingIdentityService
	}
	if deps.Tokens == nil {
		return nil, errMissingTokenValidator
	}
	if deps.Profiles == nil {
		return nil, errMissingProfileStore
	}
	if deps.Inventory == nil {
		return nil, errMissingInventoryService
	}
	if deps.Marketplace == nil {
		return nil, errMissingMarketplaceService
	}
	if deps.Messaging == nil {
		return nil, errMissingMessagingService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	if deps.Collector != nil {
		router.Use(observeRequests(deps.Collector))
	}

	handler := &httpHandler{
		signupService: deps.Signup,
		identity:      deps.Identity,
		tokens:        deps.Tokens,
		profiles:      deps.Profiles,
		inventory:     deps.Inventory,
		marketplace:   deps.Marketplace,
		messaging:     deps.Messaging,
		images:        deps.Images,
		logger:        logger,
	}

	router.GET("/healthz", handler.handleHealth)
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler(deps.Gatherer)))
	}

	public := router.Group("/auth")
	if deps.PublicRatePerMinute > 0 {
		public.Use(limitByClientAddress(deps.PublicRatePerMinute, logger))
	}
	public.POST("/signup", handler.handleSignUp)
	public.POST("/login", handler.handleLogin)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/auth/logout", handler.handleLogout)
	protected.GET("/auth/session", handler.handleSession)

	protected.GET("/profile", handler.handleGetProfile)
	protected.PUT("/profile", handler.handleUpdateProfile)

	protected.GET("/catalog/manufacturers", handler.handleListManufacturers)
	protected.GET("/catalog/models", handler.handleListModels)

	protected.GET("/inventory/discs", handler.handleListDiscs)
	protected.POST("/inventory/discs", handler.handleAddDisc)
	protected.GET("/inventory/discs/:id", handler.handleGetDisc)
	protected.PUT("/inventory/discs/:id", handler.handleUpdateDisc)
	protected.DELETE("/inventory/discs/:id", handler.handleRemoveDisc)
	protected.POST("/inventory/discs/:id/image", handler.handleUploadDiscImage)
	protected.GET("/inventory/locations", handler.handleListLocations)
	protected.POST("/inventory/locations", handler.handleAddLocation)

	protected.GET("/marketplace/listings", handler.handleListListings)
	protected.POST("/marketplace/listings", handler.handleCreateListing)
	protected.GET("/marketplace/listings/:id", handler.handleGetListing)
	protected.DELETE("/marketplace/listings/:id", handler.handleDeactivateListing)

	protected.GET("/conversations", handler.handleListConversations)
	protected.POST("/conversations", handler.handleStartConversation)
	protected.GET("/conversations/unread", handler.handleUnreadCount)
	protected.GET("/conversations/:id/messages", handler.handleListMessages)
	protected.POST("/conversations/:id/messages", handler.handleSendMessage)
	protected.POST("/conversations/:id/read", handler.handleMarkRead)
	protected.GET("/realtime/messages", handler.handleMessageStream)

	if deps.Images != nil {
		router.Static("/uploads", deps.Images.Dir())
	}

	return router, nil
}

type httpHandler struct {
	signupService *signup.Service
	identity      *identity.Service
	tokens        *auth.TokenIssuer
	profiles      *profiles.Store
	inventory     *inventory.Service
	marketplace   *marketplace.Service
	messaging     *messaging.Service
	images        *inventory.ImageStore
	logger        *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
