package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"contactgraph/backend/internal/contacts"
	"contactgraph/backend/internal/graph"
	"contactgraph/backend/internal/identity"
	"contactgraph/backend/internal/search"
	"contactgraph/backend/pkg/logger"
)

// Handler carries the fully-initialized services for every route. It is
// built once at startup; no handler can run against a half-wired service.
type Handler struct {
	verifier identity.Verifier
	resolver *identity.Resolver
	contacts *contacts.Service
	search   *search.Service
	registry *Registry
	logger   *zap.Logger
}

// NewHandler wires the request handlers
func NewHandler(
	verifier identity.Verifier,
	resolver *identity.Resolver,
	contactSvc *contacts.Service,
	searchSvc *search.Service,
	registry *Registry,
) *Handler {
	return &Handler{
		verifier: verifier,
		resolver: resolver,
		contacts: contactSvc,
		search:   searchSvc,
		registry: registry,
		logger:   logger.Named("server"),
	}
}

type googleAuthRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type contactSyncRequest struct {
	Contacts []graph.Contact `json:"contacts"`
}

type contactUpdateRequest struct {
	Phone  string `json:"phone" binding:"required"`
	Name   string `json:"name"`
	Action string `json:"action"`
}

// Health reports a static OK; exempt from auth and rate limiting
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GoogleAuth verifies a Google ID token and creates or updates the member
// Person, returning the user record
func (h *Handler) GoogleAuth(c *gin.Context) {
	var req googleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), req.IDToken)
	if err != nil {
		abortWithError(c, err)
		return
	}

	_, person, err := h.resolver.Resolve(c.Request.Context(), claims)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    person,
		"message": "Authentication successful.",
	})
}

// SyncContacts bulk-merges the caller's contact list
func (h *Handler) SyncContacts(c *gin.Context) {
	ident := currentIdentity(c)

	var req contactSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	synced, err := h.contacts.Sync(c.Request.Context(), ident.Phone, req.Contacts)
	if err != nil {
		h.logger.Error("Contact sync failed", zap.String("owner", ident.Phone), zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contacts synced successfully.",
		"synced":  synced,
	})
}

// UpdateContact adds or removes a single contact
func (h *Handler) UpdateContact(c *gin.Context) {
	ident := currentIdentity(c)

	var req contactUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Action == "" {
		req.Action = "add"
	}

	switch req.Action {
	case "add":
		synced, err := h.contacts.AddContact(c.Request.Context(), ident.Phone, req.Phone, req.Name)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Contact added.", "synced": synced})
	case "remove":
		if err := h.contacts.RemoveContact(c.Request.Context(), ident.Phone, req.Phone); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Contact removed."})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be 'add' or 'remove'."})
	}
}

// DeleteContact removes a contact relationship by phone
func (h *Handler) DeleteContact(c *gin.Context) {
	ident := currentIdentity(c)

	if err := h.contacts.RemoveContact(c.Request.Context(), ident.Phone, c.Param("phone")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contact removed."})
}

// SearchConnection finds the shortest chain from the caller to a phone
func (h *Handler) SearchConnection(c *gin.Context) {
	ident := currentIdentity(c)

	target := c.Query("phone")
	if target == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "query parameter 'phone' is required."})
		return
	}

	maxDepth := search.DefaultMaxDepth
	if raw := c.Query("max_depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "max_depth must be a positive integer."})
			return
		}
		maxDepth = parsed
	}

	resp, err := h.search.FindConnection(c.Request.Context(), ident.Phone, target, maxDepth)
	if err != nil {
		h.logger.Error("Connection search failed", zap.String("from", ident.Phone), zap.Error(err))
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// NetworkStats returns the caller's direct-neighbor counts
func (h *Handler) NetworkStats(c *gin.Context) {
	ident := currentIdentity(c)

	stats, err := h.search.NetworkStats(c.Request.Context(), ident.Phone)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DirectContacts lists the caller's first-degree contacts, name ascending
func (h *Handler) DirectContacts(c *gin.Context) {
	ident := currentIdentity(c)

	list, err := h.search.DirectContacts(c.Request.Context(), ident.Phone)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
