// Package admin mounts the back-office surface under /admin on the main
// engine. Every route requires an admin-role token, and in production an IP
// allowlist sits in front of the JWT check.
package admin

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/admin/handler"
	"github.com/predyx/exchange/internal/config"
	"github.com/predyx/exchange/internal/domain"
	"github.com/predyx/exchange/internal/service"
)

// AdminDeps bundles every dependency needed for the admin routes.
type AdminDeps struct {
	AuthSvc       *service.AuthService
	EventSvc      *service.EventService
	ResolutionSvc *service.ResolutionService
	Cfg           *config.Config
}

// Mount registers the /admin route group on the given engine.
func Mount(r *gin.Engine, deps AdminDeps) {
	eventH := handler.NewEventAdminHandler(deps.EventSvc, deps.ResolutionSvc)
	devH := handler.NewDevToolsHandler(deps.AuthSvc)

	admin := r.Group("/admin")
	admin.Use(ipWhitelistMiddleware(deps.Cfg.Server.AdminAllowedIPs))
	admin.Use(adminJWTMiddleware(deps.AuthSvc))
	{
		events := admin.Group("/events")
		{
			events.GET("", eventH.List)
			events.POST("", eventH.Create)
			events.GET("/:ref", eventH.Detail)
			events.POST("/:ref/outcomes", eventH.AddOutcome)
			events.POST("/:ref/open", eventH.Open)
			events.POST("/:ref/pause", eventH.Pause)
			events.POST("/:ref/close", eventH.Close)
			events.POST("/:ref/resolve", eventH.Resolve)
		}

		dev := admin.Group("/dev-scripts")
		{
			dev.POST("/generate-user-token", devH.GenerateUserToken)
		}
	}
}

// ── IP whitelist middleware ───────────────────────────────────────────────────

// ipWhitelistMiddleware blocks requests from IPs not in the allowlist.
// allowedIPs is a comma-separated string; empty means allow all.
func ipWhitelistMiddleware(allowedIPs string) gin.HandlerFunc {
	if allowedIPs == "" {
		return func(c *gin.Context) { c.Next() } // dev mode: no restriction
	}

	allowed := make(map[string]bool)
	for _, ip := range strings.Split(allowedIPs, ",") {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = true
		}
	}

	return func(c *gin.Context) {
		if !allowed[c.ClientIP()] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "access denied: your IP is not whitelisted",
			})
			return
		}
		c.Next()
	}
}

// ── Admin JWT middleware ──────────────────────────────────────────────────────

// adminJWTMiddleware validates a JWT and requires the admin role.
func adminJWTMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := authSvc.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if claims.Role != string(domain.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
