package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sudo-init-do/repairhub/internal/application"
	"github.com/sudo-init-do/repairhub/internal/auth"
	"github.com/sudo-init-do/repairhub/internal/catalog"
	"github.com/sudo-init-do/repairhub/internal/db"
	mware "github.com/sudo-init-do/repairhub/internal/middleware"
	"github.com/sudo-init-do/repairhub/internal/store"
)

func main() {
	_ = godotenv.Load()

	// Initialize database connection
	db.Init()

	pg := store.NewPostgres(db.Conn)
	catalogHandler := catalog.NewHandler(pg)
	applicationHandler := application.NewHandler(pg, pg)

	e := echo.New()
	e.HideBanner = true

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     corsOrigins(),
		AllowCredentials: true,
	}))

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "repairhub"})
	})
	e.GET("/health", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// Session routes with per-IP rate limiting to protect token issuance from abuse
	e.POST("/jwt", auth.IssueCookie, middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	e.POST("/logout", auth.Logout)

	// Public catalog routes
	e.GET("/services", catalogHandler.List)
	e.GET("/services-count", catalogHandler.Count)
	e.GET("/services/:id", catalogHandler.Get)
	e.POST("/services", catalogHandler.Create)
	e.PUT("/services/:id", catalogHandler.Update)
	e.DELETE("/services/:id", catalogHandler.Delete)

	// Public application routes
	e.POST("/service-applications", applicationHandler.Create)
	e.GET("/service-application/services/:service_id", applicationHandler.ListByService)

	// Session-gated application routes
	g := e.Group("")
	g.Use(mware.SessionGuard)
	g.GET("/service-application", applicationHandler.ListByApplicant)
	g.GET("/service-application/provider", applicationHandler.ListForProvider)
	g.PATCH("/service-application/:id", applicationHandler.UpdateStatus)
	g.DELETE("/service-application/:id", applicationHandler.Delete)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := e.Start(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func corsOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"http://localhost:5173"}
	}
	return strings.Split(raw, ",")
}
