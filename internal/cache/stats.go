package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// StatsSnapshot is a point-in-time copy of the aggregate counters. Handing
// out a copy instead of the live counters avoids torn reads across fields.
type StatsSnapshot struct {
	Guilds            int64
	UnavailableGuilds int64
	Channels          int64
	Members           int64
	Roles             int64
	Users             int64
}

// Statistics keeps approximate entity counts current without scanning the
// store. Counters are seeded once from index set cardinalities and then
// folded forward from dispatcher change summaries. Each counter is
// independently atomic; updates happen on every gateway event and must not
// serialize behind a single lock.
type Statistics struct {
	guilds            atomic.Int64
	unavailableGuilds atomic.Int64
	channels          atomic.Int64
	members           atomic.Int64
	roles             atomic.Int64
	users             atomic.Int64

	logger *zap.Logger
}

// NewStatistics seeds the counters from the store. Guild, channel, and user
// counts come straight from the global index sets; member and role counts
// are summed over the per-guild sets of every known guild, available or
// not.
func NewStatistics(ctx context.Context, cache *Client, logger *zap.Logger) (*Statistics, error) {
	s := &Statistics{logger: logger.Named("statistics")}

	guilds, err := cache.sCard(ctx, KeyGuildIDs())
	if err != nil {
		return nil, fmt.Errorf("seed guild count: %w", err)
	}

	unavailable, err := cache.sCard(ctx, KeyUnavailableGuildIDs())
	if err != nil {
		return nil, fmt.Errorf("seed unavailable guild count: %w", err)
	}

	channels, err := cache.sCard(ctx, KeyChannelIDs())
	if err != nil {
		return nil, fmt.Errorf("seed channel count: %w", err)
	}

	users, err := cache.sCard(ctx, KeyUserIDs())
	if err != nil {
		return nil, fmt.Errorf("seed user count: %w", err)
	}

	guildIDs, err := cache.sMembers(ctx, KeyGuildIDs())
	if err != nil {
		return nil, fmt.Errorf("seed per-guild counts: %w", err)
	}

	unavailableIDs, err := cache.sMembers(ctx, KeyUnavailableGuildIDs())
	if err != nil {
		return nil, fmt.Errorf("seed per-guild counts: %w", err)
	}

	allIDs := append(guildIDs, unavailableIDs...)

	memberKeys := make([]string, 0, len(allIDs))
	roleKeys := make([]string, 0, len(allIDs))

	for _, raw := range allIDs {
		memberKeys = append(memberKeys, keyGuildMemberIDs+":"+raw)
		roleKeys = append(roleKeys, keyGuildRoleIDs+":"+raw)
	}

	members, err := cache.sCardSum(ctx, memberKeys)
	if err != nil {
		return nil, fmt.Errorf("seed member count: %w", err)
	}

	roles, err := cache.sCardSum(ctx, roleKeys)
	if err != nil {
		return nil, fmt.Errorf("seed role count: %w", err)
	}

	s.guilds.Store(guilds)
	s.unavailableGuilds.Store(unavailable)
	s.channels.Store(channels)
	s.users.Store(users)
	s.members.Store(members)
	s.roles.Store(roles)

	s.logger.Info("Seeded cache statistics",
		zap.Int64("guilds", guilds),
		zap.Int64("unavailableGuilds", unavailable),
		zap.Int64("channels", channels),
		zap.Int64("members", members),
		zap.Int64("roles", roles),
		zap.Int64("users", users))

	return s, nil
}

// Update folds one change summary into the counters.
func (s *Statistics) Update(summary ChangeSummary) {
	s.guilds.Add(summary.Guilds)
	s.unavailableGuilds.Add(summary.UnavailableGuilds)
	s.channels.Add(summary.Channels)
	s.members.Add(summary.Members)
	s.roles.Add(summary.Roles)
	s.users.Add(summary.Users)
}

// Snapshot returns the current counter values.
func (s *Statistics) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Guilds:            s.guilds.Load(),
		UnavailableGuilds: s.unavailableGuilds.Load(),
		Channels:          s.channels.Load(),
		Members:           s.members.Load(),
		Roles:             s.roles.Load(),
		Users:             s.users.Load(),
	}
}
