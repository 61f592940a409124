package cache_test

import (
	"context"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/cache"
	"github.com/beatbot/statecache/internal/discord"
	"github.com/beatbot/statecache/internal/gateway"
)

func setupDispatcher(t *testing.T, c *cache.Client) (*cache.Dispatcher, *cache.Statistics) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	stats, err := cache.NewStatistics(context.Background(), c, logger)
	require.NoError(t, err)

	return cache.NewDispatcher(c, stats, logger), stats
}

func TestDispatchEndToEnd(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()
	dispatcher, stats := setupDispatcher(t, c)
	guildID := snowflake.ID(1)

	summary := dispatcher.Dispatch(ctx, gateway.EventGuildCreate{
		Guild: *testGuildPayload(1, 1, 1, 1),
	})
	require.NotNil(t, summary)
	assert.Equal(t, cache.ChangeSummary{
		Guilds:   1,
		Channels: 1,
		Roles:    1,
		Members:  1,
		Users:    1,
	}, *summary)

	summary = dispatcher.Dispatch(ctx, gateway.EventChannelDelete{
		Channel: discord.Channel{ID: 10, GuildID: &guildID},
	})
	require.NotNil(t, summary)
	assert.Equal(t, int64(-1), summary.Channels)

	channel, err := c.FetchChannel(ctx, &guildID, 10)
	require.NoError(t, err)
	assert.Nil(t, channel)

	channelIDs, err := c.GuildChannelIDs(ctx, guildID)
	require.NoError(t, err)
	assert.Empty(t, channelIDs)

	summary = dispatcher.Dispatch(ctx, gateway.EventGuildDelete{ID: 1, Unavailable: false})
	require.NotNil(t, summary)
	assert.Equal(t, int64(-1), summary.Guilds)
	assert.Equal(t, int64(-1), summary.Roles)
	assert.Equal(t, int64(-1), summary.Members)

	guild, err := c.FetchGuild(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, guild)

	role, err := c.FetchRole(ctx, 1, 100)
	require.NoError(t, err)
	assert.Nil(t, role)

	member, err := c.FetchMember(ctx, 1, 1000)
	require.NoError(t, err)
	assert.Nil(t, member)

	// Users are the only entities that survive the cascade.
	snapshot := stats.Snapshot()
	assert.Equal(t, cache.StatsSnapshot{Users: 1}, snapshot)
}

func TestDispatchGuildDeleteUnavailable(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()
	dispatcher, _ := setupDispatcher(t, c)

	require.NotNil(t, dispatcher.Dispatch(ctx, gateway.EventGuildCreate{
		Guild: *testGuildPayload(1, 1, 0, 0),
	}))

	summary := dispatcher.Dispatch(ctx, gateway.EventGuildDelete{ID: 1, Unavailable: true})
	require.NotNil(t, summary)
	assert.Equal(t, int64(-1), summary.Guilds)
	assert.Equal(t, int64(1), summary.UnavailableGuilds)

	// Outage, not deletion: the substructure stays.
	guildID := snowflake.ID(1)
	channel, err := c.FetchChannel(ctx, &guildID, 10)
	require.NoError(t, err)
	assert.NotNil(t, channel)
}

func TestDispatchReady(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()
	dispatcher, _ := setupDispatcher(t, c)

	summary := dispatcher.Dispatch(ctx, gateway.EventReady{
		User: discord.User{ID: 42, Username: "statecache", Bot: true},
		Guilds: []discord.UnavailableGuild{
			{ID: 1, Unavailable: true},
			{ID: 2, Unavailable: true},
		},
	})
	require.NotNil(t, summary)
	assert.Equal(t, int64(2), summary.UnavailableGuilds)

	current, err := c.FetchCurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "statecache", current.Username)
}

func TestDispatchUserUpdateSurfacesNoSummary(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()
	dispatcher, _ := setupDispatcher(t, c)

	summary := dispatcher.Dispatch(ctx, gateway.EventUserUpdate{
		User: discord.User{ID: 42, Username: "renamed"},
	})
	assert.Nil(t, summary)

	current, err := c.FetchCurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "renamed", current.Username)
}

func TestDispatchMessageCreateCachesAuthor(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()
	dispatcher, _ := setupDispatcher(t, c)
	guildID := snowflake.ID(45)
	nick := "driveby"

	summary := dispatcher.Dispatch(ctx, gateway.EventMessageCreate{
		ChannelID: 10,
		GuildID:   &guildID,
		Author:    discord.User{ID: 1000, Username: "peppy"},
		Member:    &discord.PartialMember{Nick: &nick},
	})
	require.NotNil(t, summary)
	assert.Equal(t, int64(1), summary.Members)
	assert.Equal(t, int64(1), summary.Users)

	member, err := c.FetchMember(ctx, guildID, 1000)
	require.NoError(t, err)
	require.NotNil(t, member)
	assert.Equal(t, "driveby", member.Nick)

	// A DM message caches only the user.
	summary = dispatcher.Dispatch(ctx, gateway.EventMessageCreate{
		ChannelID: 11,
		Author:    discord.User{ID: 2000, Username: "dm sender"},
	})
	require.NotNil(t, summary)
	assert.Equal(t, int64(1), summary.Users)
	assert.Zero(t, summary.Members)
}

func TestDispatchIgnoresIrrelevantEvents(t *testing.T) {
	t.Parallel()

	c, _, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()
	dispatcher, stats := setupDispatcher(t, c)

	assert.Nil(t, dispatcher.Dispatch(ctx, gateway.EventTypingStart{ChannelID: 10, UserID: 1000}))
	assert.Nil(t, dispatcher.Dispatch(ctx, gateway.EventMessageDelete{ChannelID: 10, MessageID: 5}))

	assert.Equal(t, cache.StatsSnapshot{}, stats.Snapshot())
}

func TestDispatchContainsStoreErrors(t *testing.T) {
	t.Parallel()

	c, mr, cleanup := setupTest(t)
	defer cleanup()

	ctx := context.Background()
	dispatcher, stats := setupDispatcher(t, c)

	mr.SetError("backend down")

	// The write fails but dispatch must degrade to a logged no-op.
	summary := dispatcher.Dispatch(ctx, gateway.EventGuildCreate{
		Guild: *testGuildPayload(1, 1, 1, 1),
	})
	assert.Nil(t, summary)
	assert.Equal(t, cache.StatsSnapshot{}, stats.Snapshot())

	mr.SetError("")

	summary = dispatcher.Dispatch(ctx, gateway.EventGuildCreate{
		Guild: *testGuildPayload(1, 1, 1, 1),
	})
	require.NotNil(t, summary)
	assert.Equal(t, int64(1), summary.Guilds)
}
