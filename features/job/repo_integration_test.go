package job_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misinfo/features/job"
	"misinfo/internal/testutils"
)

func TestJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := job.NewPostgresRepo(s.DB)
	ctx := context.Background()

	j1 := &job.Job{ContentID: "doc-1", Handler: "content-checker", Payload: json.RawMessage(`{"doc_id":"doc-1"}`), Error: "error 1", Attempts: 5}
	require.NoError(t, repo.Save(ctx, j1))

	time.Sleep(100 * time.Millisecond)

	j2 := &job.Job{ContentID: "doc-2", Handler: "content-checker", Payload: json.RawMessage(`{"doc_id":"doc-2"}`), Error: "error 2"}
	require.NoError(t, repo.Save(ctx, j2))

	jobs, err := repo.List(ctx, job.Filter{})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, j2.ID, jobs[0].ID, "newest job first")

	byContent, err := repo.List(ctx, job.Filter{ContentID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, byContent, 1)
	assert.Equal(t, j1.ID, byContent[0].ID)

	got, err := repo.Get(ctx, j1.ID)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ContentID)
	assert.Equal(t, 5, got.Attempts)

	require.NoError(t, repo.Delete(ctx, j1.ID))
	_, err = repo.Get(ctx, j1.ID)
	assert.ErrorIs(t, err, job.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
