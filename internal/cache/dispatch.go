package cache

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/discord"
	"github.com/beatbot/statecache/internal/gateway"
)

// Dispatcher is the single entry point for gateway events. It maps each
// event kind onto the store operations that keep the cache current, folds
// the resulting summary into the statistics, and contains store errors:
// a failed cache write is logged and dropped, never allowed to abort event
// processing for the rest of the application.
type Dispatcher struct {
	cache  *Client
	stats  *Statistics
	logger *zap.Logger
}

// NewDispatcher wires the dispatcher to its cache client and statistics.
func NewDispatcher(cache *Client, stats *Statistics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		cache:  cache,
		stats:  stats,
		logger: logger.Named("dispatcher"),
	}
}

// Dispatch applies one decoded gateway event. The returned summary is nil
// when the event kind carries nothing cacheable, when the operation changed
// nothing worth surfacing, or when the underlying write failed. Callers that
// need certainty about cache contents must read back, not trust a dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, event gateway.Event) *ChangeSummary {
	summary, err := d.apply(ctx, event)
	if err != nil {
		d.logger.Error("Failed to apply gateway event",
			zap.String("eventType", string(event.EventType())),
			zap.Error(err))
		return nil
	}

	if summary == nil {
		return nil
	}

	d.stats.Update(*summary)

	return summary
}

func (d *Dispatcher) apply(ctx context.Context, event gateway.Event) (*ChangeSummary, error) {
	switch e := event.(type) {
	case gateway.EventReady:
		summary := ChangeSummary{}

		if err := d.cache.CacheCurrentUser(ctx, &e.User); err != nil {
			return nil, err
		}

		for _, unavailable := range e.Guilds {
			guildSummary, err := d.cache.CacheUnavailableGuild(ctx, unavailable.ID)
			if err != nil {
				return nil, err
			}

			summary.Merge(guildSummary)
		}

		return &summary, nil

	case gateway.EventChannelCreate:
		return d.summarize(d.cache.StoreChannel(ctx, &e.Channel))
	case gateway.EventChannelUpdate:
		return d.summarize(d.cache.StoreChannel(ctx, &e.Channel))
	case gateway.EventChannelDelete:
		return d.summarize(d.cache.DeleteChannel(ctx, e.Channel.GuildID, e.Channel.ID))

	case gateway.EventThreadCreate:
		return d.summarize(d.cache.StoreChannel(ctx, &e.Channel))
	case gateway.EventThreadUpdate:
		return d.summarize(d.cache.StoreChannel(ctx, &e.Channel))
	case gateway.EventThreadDelete:
		guildID := e.GuildID
		return d.summarize(d.cache.DeleteChannel(ctx, &guildID, e.ID))

	case gateway.EventThreadListSync:
		summary := ChangeSummary{}

		for i := range e.Threads {
			thread := e.Threads[i]
			if thread.GuildID == nil {
				guildID := e.GuildID
				thread.GuildID = &guildID
			}

			threadSummary, err := d.cache.StoreChannel(ctx, &thread)
			if err != nil {
				return nil, err
			}

			summary.Merge(threadSummary)
		}

		return &summary, nil

	case gateway.EventGuildCreate:
		if e.Guild.Unavailable {
			return d.summarize(d.cache.CacheUnavailableGuild(ctx, e.Guild.ID))
		}

		return d.summarize(d.cache.StoreGuild(ctx, &e.Guild))

	case gateway.EventGuildUpdate:
		return d.summarize(d.cache.CachePartialGuild(ctx, &e.Guild))

	case gateway.EventGuildDelete:
		if e.Unavailable {
			return d.summarize(d.cache.CacheUnavailableGuild(ctx, e.ID))
		}

		return d.summarize(d.cache.DeleteGuild(ctx, e.ID))

	case gateway.EventGuildMemberAdd:
		return d.summarize(d.cache.StoreMember(ctx, e.GuildID, &e.Member))
	case gateway.EventGuildMemberUpdate:
		// Member updates are authoritative for every mutable field, so this
		// is a full replace rather than a merge.
		return d.summarize(d.cache.StoreMember(ctx, e.GuildID, &e.Member))
	case gateway.EventGuildMemberRemove:
		return d.summarize(d.cache.DeleteMember(ctx, e.GuildID, e.User.ID))
	case gateway.EventGuildMembersChunk:
		return d.summarize(d.cache.StoreMembers(ctx, e.GuildID, e.Members))

	case gateway.EventGuildRoleCreate:
		return d.summarize(d.cache.StoreRole(ctx, e.GuildID, &e.Role))
	case gateway.EventGuildRoleUpdate:
		return d.summarize(d.cache.StoreRole(ctx, e.GuildID, &e.Role))
	case gateway.EventGuildRoleDelete:
		return d.summarize(d.cache.DeleteRole(ctx, e.GuildID, e.RoleID))

	case gateway.EventMessageCreate:
		return d.cacheAuthor(ctx, e.GuildID, &e.Author, e.Member)

	case gateway.EventMessageUpdate:
		// Webhook edits and embed-only updates carry no author.
		if e.Author == nil {
			return nil, nil
		}

		return d.cacheAuthor(ctx, e.GuildID, e.Author, e.Member)

	case gateway.EventInteractionCreate:
		if e.User == nil {
			return nil, nil
		}

		return d.cacheAuthor(ctx, e.GuildID, e.User, e.Member)

	case gateway.EventUserUpdate:
		// The bot's own identity changed; refresh the singleton without
		// surfacing a summary since no entity count moved.
		if err := d.cache.CacheCurrentUser(ctx, &e.User); err != nil {
			return nil, err
		}

		return nil, nil

	default:
		// Typing indicators, reactions, message deletes, and anything added
		// to the protocol later carry nothing the cache tracks.
		return nil, nil
	}
}

// cacheAuthor opportunistically caches the user, and the partial member when
// the event happened in a guild, from payloads whose primary purpose is not
// entity state.
func (d *Dispatcher) cacheAuthor(ctx context.Context, guildID *snowflake.ID, user *discord.User, member *discord.PartialMember) (*ChangeSummary, error) {
	if guildID != nil && member != nil {
		return d.summarize(d.cache.CachePartialMember(ctx, *guildID, member, user))
	}

	return d.summarize(d.cache.CacheUser(ctx, user))
}

func (d *Dispatcher) summarize(summary ChangeSummary, err error) (*ChangeSummary, error) {
	if err != nil {
		return nil, err
	}

	return &summary, nil
}
