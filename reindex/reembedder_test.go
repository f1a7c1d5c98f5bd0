package reindex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/invoicit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(batchSize int) *Config {
	return &Config{
		BatchSize:      batchSize,
		ReportInterval: batchSize,
		MaxRetries:     1,
		RetryDelay:     time.Millisecond,
	}
}

func TestReembedder_Run(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestDocuments(t, repo, 10)

	var output bytes.Buffer
	embedder := &mockEmbedder{}
	reembedder := NewReembedder(repo, checkpoints, embedder, testConfig(3), &output)

	err := reembedder.Run(ctx)
	require.NoError(t, err)

	// All vectors normalized to unit length
	for _, doc := range added {
		stored, err := repo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		require.Len(t, stored.Vector, 3)
		assert.InDelta(t, 1.0/3.0, stored.Vector[0], 0.0001)
		assert.InDelta(t, 2.0/3.0, stored.Vector[1], 0.0001)
		assert.InDelta(t, 2.0/3.0, stored.Vector[2], 0.0001)
	}

	assert.Contains(t, output.String(), "Starting reembedding of 10 documents (batch size: 3)")
	assert.Contains(t, output.String(), "10/10")
	assert.Contains(t, output.String(), "Reembedding complete")

	// Checkpoint is cleared after a successful run
	checkpoint, err := checkpoints.LoadCheckpoint(ctx, EmbeddingsProcessor)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestReembedder_EmptyDatabase(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	var output bytes.Buffer
	embedder := &mockEmbedder{}
	reembedder := NewReembedder(repo, checkpoints, embedder, testConfig(10), &output)

	err := reembedder.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, output.String(), "0 documents")
	assert.Equal(t, 0, embedder.calls, "should not call embedder for empty database")
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	addTestDocuments(t, repo, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var output bytes.Buffer
	embedder := &mockEmbedder{}
	reembedder := NewReembedder(repo, checkpoints, embedder, testConfig(2), &output)

	err := reembedder.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReembedder_EmbeddingError(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	addTestDocuments(t, repo, 3)

	var output bytes.Buffer
	embedder := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("persistent error")
		},
	}
	reembedder := NewReembedder(repo, checkpoints, embedder, testConfig(2), &output)

	err := reembedder.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent error")
}

func TestReembedder_DefaultConfig(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	var output bytes.Buffer
	reembedder := NewReembedder(repo, checkpoints, &mockEmbedder{}, nil, &output)

	assert.Equal(t, 100, reembedder.config.BatchSize)
	assert.Equal(t, 100, reembedder.config.ReportInterval)
	assert.Equal(t, 3, reembedder.config.MaxRetries)
	assert.Equal(t, 1*time.Second, reembedder.config.RetryDelay)
}

func TestReembedder_ProgressTracking(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	addTestDocuments(t, repo, 25)

	var output bytes.Buffer
	embedder := &mockEmbedder{}
	reembedder := NewReembedder(repo, checkpoints, embedder, testConfig(5), &output)

	err := reembedder.Run(ctx)
	require.NoError(t, err)

	assert.Contains(t, output.String(), "Progress:")
	assert.Contains(t, output.String(), "25/25")
	assert.Contains(t, output.String(), "documents/s")
}

func TestReembedder_ResumesFromCheckpoint(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestDocuments(t, repo, 10)

	// First run fails on the second batch, leaving a checkpoint behind
	calls := 0
	failing := &mockEmbedder{
		embedTextsFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
			calls++
			if calls > 1 {
				return nil, errors.New("embedding service down")
			}
			embeddings := make([][]float32, len(texts))
			for i := range texts {
				embeddings[i] = []float32{1.0, 2.0, 2.0}
			}
			return embeddings, nil
		},
	}

	var firstOutput bytes.Buffer
	reembedder := NewReembedder(repo, checkpoints, failing, testConfig(4), &firstOutput)
	err := reembedder.Run(ctx)
	require.Error(t, err)

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, EmbeddingsProcessor)
	require.NoError(t, err)
	require.NotNil(t, checkpoint, "failed run should leave a checkpoint")
	assert.Equal(t, 4, checkpoint.Processed)
	assert.True(t, checkpoint.LastTimestamp.Equal(added[3].Timestamp))

	// Second run resumes from the checkpoint. The boundary document is
	// reprocessed since the resume window is inclusive.
	var secondOutput bytes.Buffer
	reembedder = NewReembedder(repo, checkpoints, &mockEmbedder{}, testConfig(4), &secondOutput)
	err = reembedder.Run(ctx)
	require.NoError(t, err)

	assert.Contains(t, secondOutput.String(), "Resuming from checkpoint: 4 documents already processed")
	assert.Contains(t, secondOutput.String(), "Starting reembedding of 7 documents")
	assert.Contains(t, secondOutput.String(), "Reembedding complete")

	// Checkpoint is dropped on completion
	checkpoint, err = checkpoints.LoadCheckpoint(ctx, EmbeddingsProcessor)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)

	// Every document ends up with a vector
	for _, doc := range added {
		stored, err := repo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.Vector)
	}
}

func TestReembedder_NothingLeftAfterCheckpoint(t *testing.T) {
	repo, checkpoints, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	added := addTestDocuments(t, repo, 3)

	// Simulate a run that finished processing but was killed before the
	// checkpoint was cleared
	saveErr := checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: EmbeddingsProcessor,
		LastTimestamp: added[2].Timestamp.Add(time.Second),
		Processed:     3,
	})
	require.NoError(t, saveErr)

	var output bytes.Buffer
	reembedder := NewReembedder(repo, checkpoints, &mockEmbedder{}, testConfig(2), &output)

	err := reembedder.Run(ctx)
	require.NoError(t, err)

	assert.Contains(t, output.String(), "Nothing left to reindex")

	checkpoint, err := checkpoints.LoadCheckpoint(ctx, EmbeddingsProcessor)
	require.NoError(t, err)
	assert.Nil(t, checkpoint, "stale checkpoint should be cleared")
}
