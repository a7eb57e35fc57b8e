package server

import (
	"github.com/gin-gonic/gin"

	"contactgraph/backend/internal/contacts"
	"contactgraph/backend/internal/identity"
	"contactgraph/backend/internal/search"
	"contactgraph/backend/pkg/config"
	"contactgraph/backend/pkg/logger"
)

// NewRouter builds the full route table. Every dependency arrives fully
// initialized; nothing here is populated after construction.
func NewRouter(
	cfg *config.Config,
	verifier identity.Verifier,
	resolver *identity.Resolver,
	contactSvc *contacts.Service,
	searchSvc *search.Service,
	registry *Registry,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := NewHandler(verifier, resolver, contactSvc, searchSvc, registry)
	syncLimiter := NewKeyedLimiter(cfg.SyncRatePerMinute)
	searchLimiter := NewKeyedLimiter(cfg.SearchRatePerMinute)

	router := gin.New()
	router.Use(RequestLogger(logger.Get()))
	router.Use(gin.Recovery())
	router.Use(CORS(cfg.Origins()))

	api := router.Group("/api/v1")
	{
		api.GET("/health", handler.Health)
		api.POST("/auth/google", handler.GoogleAuth)

		authed := api.Group("", RequireAuth(verifier, resolver))
		{
			authed.POST("/contacts/sync", RateLimit(syncLimiter, "contact sync"), handler.SyncContacts)
			authed.PUT("/contacts/update", handler.UpdateContact)
			authed.DELETE("/contacts/:phone", handler.DeleteContact)
			authed.GET("/search", RateLimit(searchLimiter, "connection search"), handler.SearchConnection)
			authed.GET("/network/stats", handler.NetworkStats)
			authed.GET("/network/direct", handler.DirectContacts)
		}
	}

	// Credential travels as a query parameter; verified inside the handler
	// before any message exchange
	router.GET("/ws/sync", handler.WSSync)

	return router
}
