package cache_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/cache"
	"github.com/beatbot/statecache/internal/discord"
)

// setupTest starts an in-process Redis server and returns a cache client
// wired to it. GuildsPerChunk is kept tiny so cold resume tests exercise
// multiple chunks.
func setupTest(t *testing.T) (*cache.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:       []string{mr.Addr()},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	c := cache.NewClient(client, cache.NewCodec(logger, false), cache.ColdResumeOptions{
		TTL:            time.Minute,
		GuildsPerChunk: 2,
	}, logger)

	cleanup := func() {
		client.Close()
		mr.Close()
		_ = logger.Sync()
	}

	return c, mr, cleanup
}

// testGuildPayload builds a guild-create payload with the requested number
// of channels, roles, and members. Entity ids are offset per guild so two
// payloads never share a snowflake, matching real gateway data. Guild 1 gets
// channel ids from 10, role ids from 100, and user ids from 1000.
func testGuildPayload(guildID uint64, channels, roles, members int) *discord.GatewayGuild {
	offset := (guildID - 1) * 50

	payload := &discord.GatewayGuild{
		Guild: discord.Guild{
			ID:          snowflake.ID(guildID),
			Name:        "test guild",
			OwnerID:     1000,
			MemberCount: int32(members),
		},
	}

	for i := 0; i < channels; i++ {
		payload.Channels = append(payload.Channels, discord.Channel{
			ID:   snowflake.ID(10 + offset + uint64(i)),
			Name: "channel",
			Type: discord.ChannelTypeGuildText,
		})
	}

	for i := 0; i < roles; i++ {
		payload.Roles = append(payload.Roles, discord.Role{
			ID:   snowflake.ID(100 + offset + uint64(i)),
			Name: "role",
		})
	}

	for i := 0; i < members; i++ {
		payload.Members = append(payload.Members, discord.Member{
			User: discord.User{
				ID:       snowflake.ID(1000 + offset + uint64(i)),
				Username: "user",
			},
		})
	}

	return payload
}
