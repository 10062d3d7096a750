package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lyzr/workflowdsl/cmd/catalog/models"
	"github.com/lyzr/workflowdsl/cmd/catalog/repository"
	"github.com/lyzr/workflowdsl/common/logger"
)

// ArtifactService handles artifact catalog operations
type ArtifactService struct {
	repo *repository.ArtifactRepository
	log  *logger.Logger
}

// NewArtifactService creates a new artifact service
func NewArtifactService(repo *repository.ArtifactRepository, log *logger.Logger) *ArtifactService {
	return &ArtifactService{
		repo: repo,
		log:  log,
	}
}

// CreateWorkflowDefinition stores a published workflow's CAS-addressed
// tree as an artifact row.
func (s *ArtifactService) CreateWorkflowDefinition(ctx context.Context, casID, versionHash, name, createdBy string, nodesCount int) (uuid.UUID, error) {
	artifact := &models.Artifact{
		ArtifactID:  uuid.New(),
		Kind:        models.KindWorkflowDefinition,
		CasID:       casID,
		Name:        &name,
		VersionHash: &versionHash,
		NodesCount:  &nodesCount,
		Meta:        make(map[string]interface{}),
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, artifact); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create workflow definition artifact: %w", err)
	}

	s.log.Info("created workflow definition artifact",
		"artifact_id", artifact.ArtifactID,
		"cas_id", casID,
		"nodes", nodesCount,
	)

	return artifact.ArtifactID, nil
}

// GetByID retrieves an artifact by ID
func (s *ArtifactService) GetByID(ctx context.Context, artifactID uuid.UUID) (*models.Artifact, error) {
	artifact, err := s.repo.GetByID(ctx, artifactID)
	if err != nil {
		return nil, fmt.Errorf("artifact not found: %w", err)
	}

	return artifact, nil
}

// GetByVersionHash retrieves an artifact by version hash
func (s *ArtifactService) GetByVersionHash(ctx context.Context, versionHash string) (*models.Artifact, error) {
	artifact, err := s.repo.GetByVersionHash(ctx, versionHash)
	if err != nil {
		return nil, fmt.Errorf("artifact not found: %w", err)
	}

	return artifact, nil
}

// ListByKind lists artifacts by kind
func (s *ArtifactService) ListByKind(ctx context.Context, kind string, limit int) ([]*models.Artifact, error) {
	artifacts, err := s.repo.ListByKind(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	return artifacts, nil
}
