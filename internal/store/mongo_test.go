package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func TestMongoContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mongo container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	runContract(t, func(t *testing.T) DB {
		db, err := OpenMongo(ctx, MongoConfig{
			URI:      uri,
			Database: "ceo_" + uuid.NewString()[:8],
		}, nil)
		require.NoError(t, err)
		require.NoError(t, db.EnsureIndexes(ctx, AllCollections...))
		t.Cleanup(func() {
			_ = db.db.Drop(context.Background())
			_ = db.Close(context.Background())
		})
		return db
	})
}
