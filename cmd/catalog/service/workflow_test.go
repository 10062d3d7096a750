package service

import (
	"context"
	"testing"

	"github.com/lyzr/workflowdsl/cmd/catalog/models"
	"github.com/lyzr/workflowdsl/common/workflowdsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflowSource(t *testing.T, format string) []byte {
	t.Helper()
	b, err := workflowdsl.NewBuilder("nightly_etl", "1.0.0")
	require.NoError(t, err)
	b.Task("extract", "f.extract").Task("transform", "f.transform")
	w, err := b.Build()
	require.NoError(t, err)

	if format == "json" {
		encoded, err := w.EncodeJSON()
		require.NoError(t, err)
		return []byte(encoded)
	}
	encoded, err := w.EncodeYAML()
	require.NoError(t, err)
	return []byte(encoded)
}

func TestDecodeSource_DefaultsToYAML(t *testing.T) {
	body := validWorkflowSource(t, "yaml")
	w, err := decodeSource(body, "")
	require.NoError(t, err)
	assert.Equal(t, "nightly_etl", w.Name)
}

func TestDecodeSource_JSON(t *testing.T) {
	body := validWorkflowSource(t, "json")
	w, err := decodeSource(body, "json")
	require.NoError(t, err)
	assert.Equal(t, "nightly_etl", w.Name)
}

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, models.MediaTypeWorkflowJSON, mediaTypeFor("json"))
	assert.Equal(t, models.MediaTypeWorkflowYAML, mediaTypeFor("yaml"))
	assert.Equal(t, models.MediaTypeWorkflowYAML, mediaTypeFor(""))
}

// PublishSource rejects an invalid workflow before touching CAS, the
// artifact table, or tags, so this case needs no service collaborators.
func TestPublishSource_RejectsInvalidSource(t *testing.T) {
	s := &WorkflowService{}

	_, err := s.PublishSource(context.Background(), []byte("not a workflow"), "yaml", "tester")

	require.Error(t, err)
}
