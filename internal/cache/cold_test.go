package cache_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beatbot/statecache/internal/cache"
	"github.com/beatbot/statecache/internal/discord"
)

func TestChunkCountPolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, cache.ChunkCount(0, 100))
	assert.Equal(t, 1, cache.ChunkCount(100, 100))
	assert.Equal(t, 2, cache.ChunkCount(101, 100))
	assert.Equal(t, 3, cache.ChunkCount(5, 2))
	// A broken policy input falls back to the default chunk size.
	assert.Equal(t, 1, cache.ChunkCount(500, 0))
}

func TestColdResumeRoundTrip(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	// Five guilds with GuildsPerChunk=2 means three chunks.
	for guildID := uint64(1); guildID <= 5; guildID++ {
		_, err := c.StoreGuild(ctx, testGuildPayload(guildID, 1, 1, 1))
		require.NoError(t, err)
	}

	require.NoError(t, c.CacheCurrentUser(ctx, &discord.User{ID: 42, Username: "statecache", Bot: true}))

	sessions := map[int]cache.ResumeSession{
		0: {SessionID: "abc", Sequence: 1337, ResumeURL: "wss://gateway.discord.gg"},
		1: {SessionID: "def", Sequence: 99, ResumeURL: "wss://gateway.discord.gg"},
	}

	require.NoError(t, c.PrepareColdResume(ctx, sessions))

	data, err := c.RestoreColdResume(ctx)
	require.NoError(t, err)

	assert.Len(t, data.Guilds, 5)
	assert.Equal(t, "test guild", data.Guilds[snowflake.ID(3)].Name)
	require.NotNil(t, data.CurrentUser)
	assert.Equal(t, "statecache", data.CurrentUser.Username)
	assert.Equal(t, sessions, data.Sessions)
}

func TestColdResumeIsOneShot(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := c.StoreGuild(ctx, testGuildPayload(1, 1, 0, 0))
	require.NoError(t, err)

	require.NoError(t, c.PrepareColdResume(ctx, nil))

	_, err = c.RestoreColdResume(ctx)
	require.NoError(t, err)

	// A second restore must not silently reuse stale data.
	_, err = c.RestoreColdResume(ctx)
	assert.ErrorIs(t, err, cache.ErrColdResumeMissing)
}

func TestColdResumeMissingChunkFailsWholeRestore(t *testing.T) {
	t.Parallel()

	c, mr, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	for guildID := uint64(1); guildID <= 5; guildID++ {
		_, err := c.StoreGuild(ctx, testGuildPayload(guildID, 0, 0, 0))
		require.NoError(t, err)
	}

	require.NoError(t, c.PrepareColdResume(ctx, nil))

	mr.Del(cache.KeyOther("cold_resume_guilds:1"))

	_, err := c.RestoreColdResume(ctx)
	assert.ErrorIs(t, err, cache.ErrColdResumeIncomplete)
}

func TestColdResumeExpires(t *testing.T) {
	t.Parallel()

	c, mr, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	_, err := c.StoreGuild(ctx, testGuildPayload(1, 0, 0, 0))
	require.NoError(t, err)

	require.NoError(t, c.PrepareColdResume(ctx, nil))

	// An abandoned snapshot cleans itself up once the TTL passes. The test
	// client writes snapshots with a one minute TTL.
	mr.FastForward(2 * time.Minute)

	_, err = c.RestoreColdResume(ctx)
	assert.ErrorIs(t, err, cache.ErrColdResumeMissing)
}

func TestColdResumeChunkKeys(t *testing.T) {
	t.Parallel()

	c, mr, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()

	for guildID := uint64(1); guildID <= 5; guildID++ {
		_, err := c.StoreGuild(ctx, testGuildPayload(guildID, 0, 0, 0))
		require.NoError(t, err)
	}

	require.NoError(t, c.PrepareColdResume(ctx, nil))

	for i := 0; i < 3; i++ {
		assert.True(t, mr.Exists(cache.KeyOther("cold_resume_guilds:"+strconv.Itoa(i))))
	}

	assert.False(t, mr.Exists(cache.KeyOther("cold_resume_guilds:3")))
	assert.True(t, mr.Exists(cache.KeyOther("cold_resume")))
}
