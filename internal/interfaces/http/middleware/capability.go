package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hospfin/backend/internal/domain/identity"
	"go.uber.org/zap"
)

// CapabilityConfig holds configuration for capability middleware
type CapabilityConfig struct {
	// Logger for middleware logging
	Logger *zap.Logger
	// OnDenied is called when a capability is missing (optional)
	OnDenied func(c *gin.Context, required []identity.Capability)
}

// RequireCapability creates middleware that requires a single capability
func RequireCapability(capability identity.Capability) gin.HandlerFunc {
	return RequireAnyCapabilityWithConfig(CapabilityConfig{}, capability)
}

// RequireCapabilityWithConfig creates middleware with custom config
func RequireCapabilityWithConfig(capability identity.Capability, cfg CapabilityConfig) gin.HandlerFunc {
	return RequireAnyCapabilityWithConfig(cfg, capability)
}

// RequireAnyCapability creates middleware that passes when the actor holds
// at least one of the listed capabilities
func RequireAnyCapability(capabilities ...identity.Capability) gin.HandlerFunc {
	return RequireAnyCapabilityWithConfig(CapabilityConfig{}, capabilities...)
}

// RequireAnyCapabilityWithConfig creates any-of capability middleware with
// custom config
func RequireAnyCapabilityWithConfig(cfg CapabilityConfig, capabilities ...identity.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			handleCapabilityDenied(c, cfg, capabilities, "No authenticated actor found")
			return
		}

		granted := false
		for _, capability := range capabilities {
			if actor.HasCapability(capability) {
				granted = true
				break
			}
		}
		if !granted {
			handleCapabilityDenied(c, cfg, capabilities, "Actor lacks required capability")
			return
		}

		if cfg.Logger != nil {
			cfg.Logger.Debug("Capability check passed",
				zap.String("user_id", actor.UserID.String()),
				zap.String("role", actor.Role.String()),
			)
		}

		c.Next()
	}
}

// handleCapabilityDenied handles capability denied scenarios
func handleCapabilityDenied(c *gin.Context, cfg CapabilityConfig, required []identity.Capability, reason string) {
	if cfg.OnDenied != nil {
		cfg.OnDenied(c, required)
		return
	}

	if cfg.Logger != nil {
		names := make([]string, len(required))
		for i, capability := range required {
			names[i] = capability.String()
		}

		fields := []zap.Field{
			zap.String("reason", reason),
			zap.Strings("required_capabilities", names),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		}
		if actor, ok := GetActor(c); ok {
			fields = append(fields,
				zap.String("user_id", actor.UserID.String()),
				zap.String("role", actor.Role.String()))
		}
		cfg.Logger.Warn("Capability denied", fields...)
	}

	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "FORBIDDEN",
			"message": "Access denied: insufficient capabilities",
		},
	})
}

// HasCapability is a helper to check a capability inside handlers
func HasCapability(c *gin.Context, capability identity.Capability) bool {
	actor, ok := GetActor(c)
	if !ok {
		return false
	}
	return actor.HasCapability(capability)
}
