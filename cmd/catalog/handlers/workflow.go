package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/workflowdsl/cmd/catalog/service"
	"github.com/lyzr/workflowdsl/common/bootstrap"
)

// WorkflowHandler exposes the catalog's workflow-publishing HTTP surface.
type WorkflowHandler struct {
	components      *bootstrap.Components
	workflowService *service.WorkflowService
}

// NewWorkflowHandler creates a new workflow handler.
func NewWorkflowHandler(components *bootstrap.Components, workflowService *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{
		components:      components,
		workflowService: workflowService,
	}
}

func sourceFormat(c echo.Context) string {
	if c.QueryParam("format") == "json" {
		return "json"
	}
	return "yaml"
}

func createdByFrom(c echo.Context) string {
	if id := c.Request().Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}

// CreateWorkflow publishes a workflow definition. The tag it publishes
// under is the workflow's own name field, not a URL parameter.
// POST /api/v1/workflows?format=yaml|json
func (h *WorkflowHandler) CreateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "workflow source body is required",
		})
	}

	resp, err := h.workflowService.PublishSource(ctx, body, sourceFormat(c), createdByFrom(c))
	if err != nil {
		h.components.Logger.Error("failed to publish workflow", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusCreated, resp)
}

// GetWorkflow retrieves a published workflow by tag name.
// GET /api/v1/workflows/:tag?format=mermaid
func (h *WorkflowHandler) GetWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	tagName := c.Param("tag")
	if tagName == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "tag name is required",
		})
	}

	if c.QueryParam("format") == "mermaid" {
		diagram, _, err := h.workflowService.GetMermaid(ctx, tagName)
		if err != nil {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"error": "workflow not found",
			})
		}
		return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(diagram))
	}

	tree, artifact, err := h.workflowService.GetDecoded(ctx, tagName)
	if err != nil {
		h.components.Logger.Error("failed to get workflow", "tag", tagName, "error", err)
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "workflow not found",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"tag":          tagName,
		"artifact_id":  artifact.ArtifactID,
		"published_at": artifact.CreatedAt,
		"workflow":     tree,
	})
}

// GetWorkflowIR returns the compiler's engine-contract projection for
// the tag's current published version; any other version yields 404.
// GET /api/v1/workflows/:tag/versions/:version/ir
func (h *WorkflowHandler) GetWorkflowIR(c echo.Context) error {
	ctx := c.Request().Context()
	tagName := c.Param("tag")
	version := c.Param("version")

	ir, _, err := h.workflowService.GetIR(ctx, tagName, version)
	if err != nil {
		h.components.Logger.Error("failed to compile workflow IR", "tag", tagName, "version", version, "error", err)
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, ir)
}

// ListWorkflows lists all published workflow tags.
// GET /api/v1/workflows
func (h *WorkflowHandler) ListWorkflows(c echo.Context) error {
	ctx := c.Request().Context()

	tags, err := h.workflowService.ListWorkflows(ctx)
	if err != nil {
		h.components.Logger.Error("failed to list workflows", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to list workflows",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"workflows": tags,
		"count":     len(tags),
	})
}

// DeleteWorkflow deletes a workflow tag.
// DELETE /api/v1/workflows/:tag
func (h *WorkflowHandler) DeleteWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	tagName := c.Param("tag")
	if tagName == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "tag name is required",
		})
	}

	if err := h.workflowService.DeleteWorkflow(ctx, tagName); err != nil {
		h.components.Logger.Error("failed to delete workflow", "tag", tagName, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to delete workflow",
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "workflow tag deleted successfully",
		"tag":     tagName,
	})
}
