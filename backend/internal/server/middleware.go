package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"contactgraph/backend/internal/identity"
	apperrors "contactgraph/backend/pkg/errors"
)

const identityKey = "identity"

// abortWithError writes the taxonomy-mapped status and message, then stops
// the handler chain
func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.UserMessage(err)})
}

// RequestLogger logs one line per request with a generated request id
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		requestID := uuid.New().String()
		c.Set("request_id", requestID)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestID),
		)
	}
}

// CORS allows the configured origins; ["*"] allows any
func CORS(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 1 && origins[0] == "*"
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequireAuth verifies the Bearer credential and stashes the resolved
// identity in the context. No credential at all is 403; a credential that
// fails verification or carries unusable claims is 401.
func RequireAuth(verifier identity.Verifier, resolver *identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			abortWithError(c, apperrors.ErrMissingCredential)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		ident, err := resolver.Ensure(c.Request.Context(), claims)
		if err != nil {
			// Claims without phone or email are an unusable credential, not
			// a bad request body
			if apperrors.IsErrorType(err, apperrors.ErrorTypeValidation) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": apperrors.UserMessage(err)})
				return
			}
			abortWithError(c, err)
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// currentIdentity returns the identity set by RequireAuth
func currentIdentity(c *gin.Context) *identity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(*identity.Identity); ok {
			return ident
		}
	}
	return nil
}
