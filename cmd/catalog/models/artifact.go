package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactKind represents the type of artifact stored in the catalog.
type ArtifactKind string

const (
	// KindWorkflowDefinition is the only artifact kind the catalog
	// stores: the content-addressed tree form of a published workflow.
	KindWorkflowDefinition ArtifactKind = "workflow_definition"
)

// Artifact represents an entry in the artifact catalog.
// Maps to: artifact table
type Artifact struct {
	// Unique artifact ID (random UUID v4)
	ArtifactID uuid.UUID `db:"artifact_id" json:"artifact_id"`

	// Artifact type, always 'workflow_definition' for now.
	Kind ArtifactKind `db:"kind" json:"kind"`

	// Reference to CAS blob holding the encoded workflow tree.
	CasID string `db:"cas_id" json:"cas_id"`

	// Human-readable workflow name.
	Name *string `db:"name" json:"name,omitempty"`

	// ========================================================================
	// EXTRACTED COLUMNS (hot columns for performance)
	// ========================================================================

	// CAS id (content hash) of the published source bytes, used for
	// publish idempotency (S7).
	VersionHash *string `db:"version_hash" json:"version_hash,omitempty"`

	// Node/task count, used for quick listing without a CAS fetch.
	NodesCount *int `db:"nodes_count" json:"nodes_count,omitempty"`

	// ========================================================================
	// FLEXIBLE METADATA (rarely queried)
	// ========================================================================

	// Remaining flexible metadata (JSONB)
	// Examples:
	//   {"author": "user@example.com", "message": "Add retry logic"}
	Meta map[string]interface{} `db:"meta" json:"meta,omitempty"`

	// Audit fields
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsWorkflowDefinition checks if artifact is a workflow definition.
func (a *Artifact) IsWorkflowDefinition() bool {
	return a.Kind == KindWorkflowDefinition
}
