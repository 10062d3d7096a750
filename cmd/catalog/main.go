package main

import (
	"context"
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lyzr/workflowdsl/cmd/catalog/container"
	"github.com/lyzr/workflowdsl/cmd/catalog/handlers"
	"github.com/lyzr/workflowdsl/cmd/catalog/routes"
	"github.com/lyzr/workflowdsl/common/bootstrap"
	"github.com/lyzr/workflowdsl/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "catalog")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap catalog: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e)

	// Setup health check
	setupHealthCheck(e)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server
	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "catalog",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, serviceContainer *container.Container) {
	routes.RegisterWorkflowRoutes(e, serviceContainer)

	artifactHandler := handlers.NewArtifactHandler(serviceContainer.Components, serviceContainer.CASService, serviceContainer.ArtifactService)
	routes.RegisterArtifactRoutes(e.Group("/api/v1"), artifactHandler)
}

// startServer runs the Echo handler behind the shared graceful-shutdown
// server wrapper rather than calling e.Start directly, so SIGTERM/SIGINT
// drain in-flight requests before the process exits.
func startServer(e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port
	srv := server.New("catalog", port, e, components.Logger)

	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
