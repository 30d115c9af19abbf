package routes

import (
	"net/http"

	"github.com/01moynul/resell-golang/internal/auth"
	"github.com/01moynul/resell-golang/internal/handlers"
	"github.com/01moynul/resell-golang/internal/metrics"
	"github.com/01moynul/resell-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware tells the browser that the back-office frontend at origin
// may call us with credentials.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Only the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)

		// 2. Credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Headers we actually use ("Authorization" carries the JWT)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		// 4. Methods
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// 5. Preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, v *auth.Validator, limiter *middleware.RateLimiter, corsOrigin string) *gin.Engine {
	router := gin.Default()

	// CORS must come first so preflights never hit auth.
	router.Use(CORSMiddleware(corsOrigin))
	router.Use(metrics.Middleware())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Forms (rate limited) ---
		public := v1.Group("/")
		public.Use(limiter.Handler(), middleware.OptionalAuth(v))
		{
			public.POST("/quotes", h.SubmitQuote)
			public.POST("/tickets", h.OpenTicket)
		}

		// --- Staff Routes (Login Required) ---
		staff := v1.Group("/")
		staff.Use(middleware.AuthMiddleware(v))
		{
			staff.POST("/units", h.CreateUnit)
			staff.GET("/units", h.ListUnits)
			staff.GET("/units/:id", h.GetUnit)
			staff.PATCH("/units/:id", h.UpdateUnit)
			staff.DELETE("/units/:id", h.DeleteUnit)

			staff.POST("/sales", h.RecordSale)
			staff.GET("/sales", h.ListSales)
			staff.GET("/sales/:id", h.GetSale)
			staff.PATCH("/sales/:id", h.UpdateSale)

			staff.GET("/quotes", h.ListQuotes)
			staff.GET("/quotes/:id", h.GetQuote)
			staff.POST("/quotes/:id/review", h.ReviewQuote)
			staff.POST("/quotes/:id/close", h.CloseQuote)

			staff.GET("/tickets", h.ListTickets)
			staff.GET("/tickets/:id", h.GetTicket)
			staff.POST("/tickets/:id/advance", h.AdvanceTicket)
			staff.POST("/tickets/:id/cancel", h.CancelTicket)
			staff.PATCH("/tickets/:id/notes", h.AnnotateTicket)

			// --- Admin Only ---
			staff.DELETE("/sales/:id", middleware.AdminMiddleware(), h.DeleteSale)
			staff.GET("/audit", middleware.AdminMiddleware(), h.ListAudit)
		}
	}

	return router
}
