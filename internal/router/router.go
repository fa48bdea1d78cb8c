package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sushihost/backend/internal/api"
	"github.com/sushihost/backend/internal/middleware"
)

// Setup wires all routes. Guard ordering on protected routes is
// rate-limit, then auth, then role, then handler.
func Setup(
	authHandler *api.AuthHandler,
	contentHandler *api.ContentHandler,
	eventMenuHandler *api.EventMenuHandler,
	healthHandler *api.HealthHandler,
	counters middleware.CounterStore,
) *gin.Engine {
	router := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsCfg))

	registerLimit := middleware.NewRateLimiter(counters, "register", 5, time.Minute)
	loginLimit := middleware.NewRateLimiter(counters, "login", 10, time.Minute)
	createLimit := middleware.NewRateLimiter(counters, "event_menu_create", 10, time.Minute)

	root := router.Group("/api")
	root.Use(middleware.GlobalLimits(counters))

	// Public content
	root.GET("/menu", contentHandler.GetMenu)
	root.GET("/menu/:id", contentHandler.GetMenuItem)
	root.GET("/ingredients", contentHandler.GetIngredients)
	root.GET("/categories", contentHandler.GetCategories)
	root.GET("/runbook", contentHandler.GetRunbook)
	root.GET("/recipes", contentHandler.GetRecipes)
	root.GET("/recipes/:id", contentHandler.GetRecipe)
	// Same wildcard name as /recipes/:id so the routes share a tree
	// node; the handler rejects anything but "category" in that slot.
	root.GET("/recipes/:id/:category", func(c *gin.Context) {
		if c.Param("id") != "category" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		contentHandler.GetRecipesByCategory(c)
	})
	root.GET("/search", contentHandler.Search)
	root.GET("/health", healthHandler.Check)

	// Auth
	root.POST("/register", registerLimit.Middleware(), authHandler.Register)
	root.POST("/login", loginLimit.Middleware(), authHandler.Login)
	root.POST("/logout", middleware.RequireSession(authHandler.LoadUser), authHandler.Logout)
	root.GET("/me", middleware.RequireSession(authHandler.LoadUser), authHandler.Me)
	root.GET("/verify-email/:token", authHandler.VerifyEmail)
	root.GET("/get-verification-token", middleware.RequireSession(authHandler.LoadUser), authHandler.GetVerificationToken)

	// Admin
	admin := root.Group("/admin")
	admin.Use(middleware.RequireSession(authHandler.LoadUser), middleware.RequireAdmin())
	{
		admin.POST("/verify-email", authHandler.AdminVerifyEmail)
		admin.POST("/set-admin", authHandler.AdminSetRole)
		admin.POST("/menu-items", contentHandler.CreateMenuItem)
	}

	// Event menus. Reads and token-addressed mutations are public: the
	// token is the capability. Creation needs a verified account.
	root.POST("/event-menus",
		createLimit.Middleware(),
		middleware.RequireSession(authHandler.LoadUser),
		middleware.RequireVerified(),
		eventMenuHandler.Create)
	root.GET("/event-menus", middleware.OptionalAuth(authHandler.LoadUser), eventMenuHandler.List)
	root.GET("/event-menus/:unique_id", eventMenuHandler.Get)
	root.PUT("/event-menus/:unique_id", eventMenuHandler.Update)
	root.DELETE("/event-menus/:unique_id", eventMenuHandler.Delete)

	return router
}
