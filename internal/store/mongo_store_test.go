package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/klass-lk/folio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
)

const mongoPort = "27017/tcp"

func TestMongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	mongoContainer, err := tcmongo.Run(ctx, "mongo:7",
		testcontainers.WithWaitStrategy(wait.ForListeningPort(nat.Port(mongoPort))),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := mongoContainer.MappedPort(ctx, nat.Port(mongoPort))
	require.NoError(t, err)
	require.NotEmpty(t, mappedPort.Port())

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	var databases atomic.Int64
	newStore := func(t *testing.T, clock Clock) *MongoStore {
		config := folio.NewMongoConfig().
			WithURI(uri).
			WithDatabase(fmt.Sprintf("folio_test_%d", databases.Add(1)))

		db, err := config.Connect(ctx)
		require.NoError(t, err)

		s := NewMongoStore(db, WithClock(clock))
		t.Cleanup(func() {
			db.Drop(context.Background())
			s.Close()
		})
		return s
	}

	runStoreContract(t, func(t *testing.T, clock Clock) Store {
		return newStore(t, clock)
	})

	t.Run("UpdatedAtAdvancesWithinOneMillisecond", func(t *testing.T) {
		frozen := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
		s := newStore(t, func() time.Time { return frozen })
		require.NoError(t, s.EnsureSchema(ctx))

		created, err := s.Create(ctx, postInput("Busy", "busy"))
		require.NoError(t, err)

		first, err := s.Update(ctx, created.ID, postInput("Busy", "busy"))
		require.NoError(t, err)
		assert.True(t, first.UpdatedAt.After(created.UpdatedAt))

		second, err := s.Update(ctx, created.ID, postInput("Busy", "busy"))
		require.NoError(t, err)
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
		assert.True(t, second.CreatedAt.Equal(created.CreatedAt))

		published, err := s.PublishDrafts(ctx)
		require.NoError(t, err)
		require.Len(t, published, 1)
		assert.True(t, published[0].UpdatedAt.After(second.UpdatedAt))
	})

	t.Run("UpdateStoresDollarPrefixedValuesVerbatim", func(t *testing.T) {
		s := newStore(t, newSteppingClock().Now)
		require.NoError(t, s.EnsureSchema(ctx))

		created, err := s.Create(ctx, postInput("Plain", "plain"))
		require.NoError(t, err)

		in := postInput("$title", "plain")
		in.Excerpt = "$content"
		updated, err := s.Update(ctx, created.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "$title", updated.Title)
		assert.Equal(t, "$content", updated.Excerpt)
		assert.Nil(t, updated.CoverImage)
	})
}
