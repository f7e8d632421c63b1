// Package httpserver exposes the feature-gate and admin API over HTTP.
package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mealscan/entitled/internal/identity"
	"github.com/mealscan/entitled/internal/model"
	"github.com/mealscan/entitled/internal/source"
)

const identityKey = "entitled.identity"

// Logging returns middleware for structured request logging. Metadata only,
// no payloads.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// Recover returns middleware that recovers from handler panics.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal"})
			}
		}()
		c.Next()
	}
}

// Authenticate extracts the bearer identity into the request context.
// Requests without a valid token proceed with an empty identity: the
// resolver answers Unauthenticated for them rather than the transport
// rejecting outright. Client-reported install metadata headers ride along
// on the request context for the install-channel check.
func Authenticate(provider *identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var id model.Identity
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			if parsed, err := provider.FromToken(strings.TrimPrefix(h, "Bearer ")); err == nil {
				id = parsed
			}
		}
		c.Set(identityKey, id)

		if pkg := c.GetHeader("X-Installer-Package"); pkg != "" {
			md := model.InstallMetadata{
				InstallerPackage: pkg,
				SignatureDigest:  c.GetHeader("X-App-Signature"),
				BuildVersion:     c.GetHeader("X-Build-Version"),
			}
			c.Request = c.Request.WithContext(source.WithInstallMetadata(c.Request.Context(), md))
		}
		c.Next()
	}
}

// identityFrom returns the request identity set by Authenticate.
func identityFrom(c *gin.Context) model.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(model.Identity); ok {
			return id
		}
	}
	return model.Identity{}
}

// AdminAuth returns middleware that guards administrative routes with an
// API key checked against a bcrypt hash.
func AdminAuth(keyHash []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if len(keyHash) == 0 || key == "" ||
			bcrypt.CompareHashAndPassword(keyHash, []byte(key)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
