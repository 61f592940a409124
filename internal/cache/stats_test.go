package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/cache"
)

func TestStatisticsSeedFromStore(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := c.StoreGuild(ctx, testGuildPayload(1, 2, 3, 4))
	require.NoError(t, err)

	_, err = c.StoreGuild(ctx, testGuildPayload(2, 1, 1, 1))
	require.NoError(t, err)

	_, err = c.CacheUnavailableGuild(ctx, 2)
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	// A fresh process seeds its counters from the index sets, including the
	// per-guild sets of unavailable guilds whose substructure is still
	// cached.
	stats, err := cache.NewStatistics(ctx, c, logger)
	require.NoError(t, err)

	snapshot := stats.Snapshot()
	assert.Equal(t, int64(1), snapshot.Guilds)
	assert.Equal(t, int64(1), snapshot.UnavailableGuilds)
	assert.Equal(t, int64(3), snapshot.Channels)
	assert.Equal(t, int64(4), snapshot.Roles)
	assert.Equal(t, int64(5), snapshot.Members)
	assert.Equal(t, int64(5), snapshot.Users)
}

func TestStatisticsUpdateFoldsDeltas(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	stats, err := cache.NewStatistics(context.Background(), c, logger)
	require.NoError(t, err)

	stats.Update(cache.ChangeSummary{Guilds: 1, Channels: 5, Users: 3})
	stats.Update(cache.ChangeSummary{Channels: -2, Members: 7})

	snapshot := stats.Snapshot()
	assert.Equal(t, int64(1), snapshot.Guilds)
	assert.Equal(t, int64(3), snapshot.Channels)
	assert.Equal(t, int64(7), snapshot.Members)
	assert.Equal(t, int64(3), snapshot.Users)

	// Snapshots are copies, not live references.
	stats.Update(cache.ChangeSummary{Guilds: 1})
	assert.Equal(t, int64(1), snapshot.Guilds)
	assert.Equal(t, int64(2), stats.Snapshot().Guilds)
}
