package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/workflowdsl/cmd/catalog/models"
	"github.com/lyzr/workflowdsl/common/compiler"
	"github.com/lyzr/workflowdsl/common/logger"
	"github.com/lyzr/workflowdsl/common/redis"
	"github.com/lyzr/workflowdsl/common/workflowdsl"
)

// WorkflowService publishes and serves workflow definitions. It composes
// CAS, Artifact, and Tag services the way cmd/orchestrator composed them
// for DAG versions, but the payload it stores and resolves is a
// workflowdsl.Workflow rather than a patch-chain DAG.
type WorkflowService struct {
	casService      *CASService
	artifactService *ArtifactService
	tagService      *TagService
	decodeCache     *redis.Client
	decodeCacheTTL  time.Duration
	log             *logger.Logger
}

// NewWorkflowService creates a new workflow service.
func NewWorkflowService(
	casService *CASService,
	artifactService *ArtifactService,
	tagService *TagService,
	decodeCache *redis.Client,
	decodeCacheTTL time.Duration,
	log *logger.Logger,
) *WorkflowService {
	return &WorkflowService{
		casService:      casService,
		artifactService: artifactService,
		tagService:      tagService,
		decodeCache:     decodeCache,
		decodeCacheTTL:  decodeCacheTTL,
		log:             log,
	}
}

// PublishResult is returned after a workflow has been stored and tagged.
type PublishResult struct {
	ArtifactID  uuid.UUID `json:"artifact_id"`
	CASID       string    `json:"cas_id"`
	VersionHash string    `json:"version_hash"`
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	NodeCount   int       `json:"node_count"`
	CreatedAt   time.Time `json:"created_at"`
	Reused      bool      `json:"reused"`
}

func decodeSource(body []byte, format string) (*workflowdsl.Workflow, error) {
	switch format {
	case "json":
		return workflowdsl.DecodeJSON(body)
	default:
		return workflowdsl.DecodeYAML(body)
	}
}

func mediaTypeFor(format string) string {
	if format == "json" {
		return models.MediaTypeWorkflowJSON
	}
	return models.MediaTypeWorkflowYAML
}

// PublishSource decodes and validates the workflow source, stores its raw
// bytes in CAS (content-addressed dedup keeps a republish of identical
// content from creating a second artifact, S7), and moves the tag named
// after the workflow's own name field to point at the resulting artifact.
func (s *WorkflowService) PublishSource(ctx context.Context, body []byte, format, createdBy string) (*PublishResult, error) {
	w, err := decodeSource(body, format)
	if err != nil {
		return nil, fmt.Errorf("invalid workflow source: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("workflow validation failed: %w", err)
	}

	tagName := w.Name

	casID, err := s.casService.StoreContent(ctx, body, mediaTypeFor(format))
	if err != nil {
		return nil, fmt.Errorf("failed to store workflow content: %w", err)
	}

	versionHash := casID

	var artifactID uuid.UUID
	reused := false
	existing, err := s.artifactService.GetByVersionHash(ctx, versionHash)
	if err == nil {
		artifactID = existing.ArtifactID
		reused = true
		s.log.Info("workflow content already published", "artifact_id", artifactID, "cas_id", casID)
	} else {
		artifactID, err = s.artifactService.CreateWorkflowDefinition(ctx, casID, versionHash, w.Name, createdBy, len(w.Tasks))
		if err != nil {
			return nil, fmt.Errorf("failed to create artifact: %w", err)
		}
	}

	if err := s.tagService.CreateOrMoveTag(ctx, tagName, models.KindWorkflowDefinition, artifactID, versionHash, createdBy); err != nil {
		return nil, fmt.Errorf("failed to create/move tag: %w", err)
	}

	s.log.Info("workflow published",
		"tag", tagName,
		"name", w.Name,
		"version", w.Version,
		"artifact_id", artifactID,
		"cas_id", casID,
		"reused", reused,
	)

	return &PublishResult{
		ArtifactID:  artifactID,
		CASID:       casID,
		VersionHash: versionHash,
		TagName:     tagName,
		Name:        w.Name,
		Version:     w.Version,
		NodeCount:   len(w.Tasks),
		CreatedAt:   time.Now(),
		Reused:      reused,
	}, nil
}

func (s *WorkflowService) resolve(ctx context.Context, tagName string) (*models.Tag, *models.Artifact, error) {
	tag, err := s.tagService.GetTag(ctx, tagName)
	if err != nil {
		return nil, nil, fmt.Errorf("workflow not found: %w", err)
	}

	artifact, err := s.artifactService.GetByID(ctx, tag.TargetID)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact not found: %w", err)
	}

	return tag, artifact, nil
}

// decode loads the raw content for the resolved artifact and decodes it.
// Detected format is inferred from the stored CAS media type, since the
// catalog accepts either wire form at publish time.
func (s *WorkflowService) decode(ctx context.Context, artifact *models.Artifact) (*workflowdsl.Workflow, error) {
	blob, err := s.casService.GetBlob(ctx, artifact.CasID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow content: %w", err)
	}

	format := "yaml"
	if blob.MediaType == mediaTypeFor("json") {
		format = "json"
	}

	return decodeSource(blob.Content, format)
}

// GetDecoded resolves a tag and returns its decoded workflow tree along
// with publish metadata, consulting the decode cache first.
func (s *WorkflowService) GetDecoded(ctx context.Context, tagName string) (map[string]interface{}, *models.Artifact, error) {
	_, artifact, err := s.resolve(ctx, tagName)
	if err != nil {
		return nil, nil, err
	}

	cacheKey := fmt.Sprintf("catalog:decode:%s", artifact.CasID)
	if cached, err := s.decodeCache.Get(ctx, cacheKey); err == nil {
		var tree map[string]interface{}
		if jsonErr := json.Unmarshal([]byte(cached), &tree); jsonErr == nil {
			return tree, artifact, nil
		}
	}

	w, err := s.decode(ctx, artifact)
	if err != nil {
		return nil, nil, err
	}

	tree := w.ToTree()
	if encoded, err := json.Marshal(tree); err == nil {
		if cacheErr := s.decodeCache.SetWithExpiry(ctx, cacheKey, string(encoded), s.decodeCacheTTL); cacheErr != nil {
			s.log.Warn("failed to populate decode cache", "cas_id", artifact.CasID, "error", cacheErr)
		}
	}

	return tree, artifact, nil
}

// GetMermaid resolves a tag and returns its Mermaid state-diagram text.
func (s *WorkflowService) GetMermaid(ctx context.Context, tagName string) (string, *models.Artifact, error) {
	_, artifact, err := s.resolve(ctx, tagName)
	if err != nil {
		return "", nil, err
	}

	cacheKey := fmt.Sprintf("catalog:mermaid:%s", artifact.CasID)
	if cached, err := s.decodeCache.Get(ctx, cacheKey); err == nil {
		return cached, artifact, nil
	}

	w, err := s.decode(ctx, artifact)
	if err != nil {
		return "", nil, err
	}

	diagram := w.ToMermaid()
	if cacheErr := s.decodeCache.SetWithExpiry(ctx, cacheKey, diagram, s.decodeCacheTTL); cacheErr != nil {
		s.log.Warn("failed to populate mermaid cache", "cas_id", artifact.CasID, "error", cacheErr)
	}

	return diagram, artifact, nil
}

// GetIR resolves a tag, confirms it matches the requested version, and
// returns the compiler's engine-contract projection.
func (s *WorkflowService) GetIR(ctx context.Context, tagName, version string) (*compiler.IR, *models.Artifact, error) {
	_, artifact, err := s.resolve(ctx, tagName)
	if err != nil {
		return nil, nil, err
	}

	w, err := s.decode(ctx, artifact)
	if err != nil {
		return nil, nil, err
	}

	if w.Version != version {
		return nil, nil, fmt.Errorf("workflow %s has no published version %s (current: %s)", tagName, version, w.Version)
	}

	ir, err := compiler.Compile(w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compile workflow: %w", err)
	}

	return ir, artifact, nil
}

// ListWorkflows lists every published workflow tag.
func (s *WorkflowService) ListWorkflows(ctx context.Context) ([]*models.Tag, error) {
	return s.tagService.ListTags(ctx)
}

// DeleteWorkflow removes the tag pointing at a published workflow. The
// underlying CAS content is left intact, matching the teacher's
// tag-vs-blob lifecycle separation.
func (s *WorkflowService) DeleteWorkflow(ctx context.Context, tagName string) error {
	return s.tagService.DeleteTag(ctx, tagName)
}
