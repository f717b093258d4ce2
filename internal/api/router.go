package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predyx/exchange/internal/api/handler"
	"github.com/predyx/exchange/internal/api/middleware"
	"github.com/predyx/exchange/internal/config"
	"github.com/predyx/exchange/internal/repository"
	"github.com/predyx/exchange/internal/service"
	"github.com/predyx/exchange/internal/ws"
)

// RouterDeps bundles every dependency needed to build the router.
// Populated once in main() and passed to SetupRouter.
type RouterDeps struct {
	AuthSvc    *service.AuthService
	EventSvc   *service.EventService
	QuoteSvc   *service.QuoteService
	WagerSvc   *service.WagerService
	WalletRepo *repository.WalletRepository
	Hub        *ws.Hub
	Cfg        *config.Config
}

// SetupRouter creates and configures the main Gin engine with all routes,
// middleware, CORS, and rate limiting rules.
func SetupRouter(deps RouterDeps) *gin.Engine {
	if deps.Cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// ── CORS ─────────────────────────────────────────────────────────────────
	r.Use(corsMiddleware(deps.Cfg))

	// ── Health check ─────────────────────────────────────────────────────────
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	eventH := handler.NewEventHandler(deps.EventSvc)
	quoteH := handler.NewQuoteHandler(deps.QuoteSvc)
	wagerH := handler.NewWagerHandler(deps.WagerSvc)
	walletH := handler.NewWalletHandler(deps.WalletRepo)

	// ── JWT middleware (shared) ───────────────────────────────────────────────
	jwtMW := middleware.JWTMiddleware(deps.AuthSvc)
	optionalJWT := middleware.OptionalJWTMiddleware(deps.AuthSvc)

	// ── Rate limiters ─────────────────────────────────────────────────────────
	quoteRL := middleware.RateLimitMiddleware(30) // quotes are cheap reads
	wagerRL := middleware.RateLimitMiddleware(10) // wagers take row locks

	// ── Events (public) ───────────────────────────────────────────────────────
	events := r.Group("/events")
	{
		events.GET("", eventH.List)
		events.GET("/:ref", eventH.GetByRef)
	}

	// ── Quotes (public, token optional) ───────────────────────────────────────
	r.POST("/quotes", optionalJWT, quoteRL, quoteH.GetQuote)

	// ── Authenticated routes ──────────────────────────────────────────────────
	authed := r.Group("")
	authed.Use(jwtMW)
	{
		wagers := authed.Group("/wagers")
		{
			wagers.POST("", wagerRL, wagerH.PlaceWager)
			wagers.GET("/events/:ref", wagerH.GetEventPositions)
		}

		authed.GET("/dashboard/wager-position-events", wagerH.GetDashboard)

		wallets := authed.Group("/wallets")
		{
			wallets.GET("", walletH.GetWallets)
			wallets.GET("/transactions", walletH.GetTransactions)
		}
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	if deps.Hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			deps.Hub.ServeWs(c.Writer, c.Request)
		})
	}

	return r
}

// ── CORS helper ───────────────────────────────────────────────────────────────

// corsMiddleware returns a gin middleware that sets appropriate CORS headers.
// In DEBUG mode all origins are allowed; in production only configured origins.
func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if !cfg.IsProd() {
			// Development: allow any origin
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := map[string]bool{
				"https://predyx.app":     true,
				"https://www.predyx.app": true,
			}
			if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
