package audit

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/signalbt/pkg/config"
	"github.com/wonny/signalbt/pkg/database"
)

func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, config.DatabaseConfig{URL: url, MaxConns: 2})
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db.Pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	res := sampleResult(uuid.New().String())
	res.Strategy = "it_" + res.RunID[:8]

	require.NoError(t, repo.Save(ctx, res))
	require.NoError(t, repo.Save(ctx, res), "saving twice upserts")

	n, err := repo.CountRuns(ctx, res.Strategy)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
