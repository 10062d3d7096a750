package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lyzr/workflowdsl/cmd/catalog/models"
	"github.com/lyzr/workflowdsl/common/db"
)

// ArtifactRepository handles database operations for artifacts
type ArtifactRepository struct {
	db *db.DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *db.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create inserts a new artifact
func (r *ArtifactRepository) Create(ctx context.Context, artifact *models.Artifact) error {
	query := `
		INSERT INTO artifact (
			artifact_id, kind, cas_id, name, version_hash, nodes_count,
			meta, created_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING artifact_id
	`

	err := r.db.QueryRow(ctx, query,
		artifact.ArtifactID,
		artifact.Kind,
		artifact.CasID,
		artifact.Name,
		artifact.VersionHash,
		artifact.NodesCount,
		artifact.Meta,
		artifact.CreatedBy,
		artifact.CreatedAt,
	).Scan(&artifact.ArtifactID)

	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	return nil
}

// GetByID retrieves an artifact by its ID
func (r *ArtifactRepository) GetByID(ctx context.Context, artifactID uuid.UUID) (*models.Artifact, error) {
	query := `
		SELECT
			artifact_id, kind, cas_id, name, version_hash, nodes_count,
			meta, created_by, created_at
		FROM artifact
		WHERE artifact_id = $1
	`

	artifact := &models.Artifact{}
	err := r.db.QueryRow(ctx, query, artifactID).Scan(
		&artifact.ArtifactID,
		&artifact.Kind,
		&artifact.CasID,
		&artifact.Name,
		&artifact.VersionHash,
		&artifact.NodesCount,
		&artifact.Meta,
		&artifact.CreatedBy,
		&artifact.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	return artifact, nil
}

// GetByVersionHash retrieves an artifact by its version hash. Used for
// publish idempotency: republishing byte-identical workflow source
// resolves to the same artifact.
func (r *ArtifactRepository) GetByVersionHash(ctx context.Context, versionHash string) (*models.Artifact, error) {
	query := `
		SELECT
			artifact_id, kind, cas_id, name, version_hash, nodes_count,
			meta, created_by, created_at
		FROM artifact
		WHERE version_hash = $1
		LIMIT 1
	`

	artifact := &models.Artifact{}
	err := r.db.QueryRow(ctx, query, versionHash).Scan(
		&artifact.ArtifactID,
		&artifact.Kind,
		&artifact.CasID,
		&artifact.Name,
		&artifact.VersionHash,
		&artifact.NodesCount,
		&artifact.Meta,
		&artifact.CreatedBy,
		&artifact.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get artifact by version hash: %w", err)
	}

	return artifact, nil
}

// ListByKind lists artifacts by kind
func (r *ArtifactRepository) ListByKind(ctx context.Context, kind string, limit int) ([]*models.Artifact, error) {
	query := `
		SELECT
			artifact_id, kind, cas_id, name, version_hash, nodes_count,
			meta, created_by, created_at
		FROM artifact
		WHERE kind = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*models.Artifact
	for rows.Next() {
		artifact := &models.Artifact{}
		err := rows.Scan(
			&artifact.ArtifactID,
			&artifact.Kind,
			&artifact.CasID,
			&artifact.Name,
			&artifact.VersionHash,
			&artifact.NodesCount,
			&artifact.Meta,
			&artifact.CreatedBy,
			&artifact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifacts: %w", err)
	}

	return artifacts, nil
}
