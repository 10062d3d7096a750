package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/lyzr/workflowdsl/cmd/catalog/container"
	"github.com/lyzr/workflowdsl/cmd/catalog/handlers"
	"github.com/lyzr/workflowdsl/cmd/catalog/middleware"
)

// RegisterWorkflowRoutes registers all workflow-related routes
func RegisterWorkflowRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewWorkflowHandler(c.Components, c.WorkflowService)

	// Workflow routes with username extraction middleware
	wf := e.Group("/api/v1/workflows")
	wf.Use(middleware.ExtractUsername()) // Extract X-User-ID into context
	{
		wf.POST("", h.CreateWorkflow)                           // POST /api/v1/workflows
		wf.GET("", h.ListWorkflows)                             // GET /api/v1/workflows
		wf.GET("/:tag", h.GetWorkflow)                          // GET /api/v1/workflows/main
		wf.GET("/:tag/versions/:version/ir", h.GetWorkflowIR)   // GET /api/v1/workflows/main/versions/2.0.0/ir
		wf.DELETE("/:tag", h.DeleteWorkflow)                    // DELETE /api/v1/workflows/main
	}
}
