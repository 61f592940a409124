package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/rueidis"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/discord"
)

const (
	// DefaultColdResumeTTL keeps a snapshot alive long enough to survive a
	// coordinated restart while letting an abandoned one clean itself up.
	DefaultColdResumeTTL = 180 * time.Second

	// DefaultGuildsPerChunk bounds chunk sizes so no single value runs into
	// the store's per-value limits.
	DefaultGuildsPerChunk = 100_000

	coldResumeMetaKey  = "cold_resume"
	coldResumeUserKey  = "cold_resume_user"
	coldResumeChunkKey = "cold_resume_guilds"
)

// ColdResumeOptions tunes the restart snapshot.
type ColdResumeOptions struct {
	// TTL applied to every snapshot key.
	TTL time.Duration
	// GuildsPerChunk is the chunking policy input: the snapshot is split
	// into ceil(total/GuildsPerChunk) chunks.
	GuildsPerChunk int
}

func (o ColdResumeOptions) withDefaults() ColdResumeOptions {
	if o.TTL <= 0 {
		o.TTL = DefaultColdResumeTTL
	}

	if o.GuildsPerChunk <= 0 {
		o.GuildsPerChunk = DefaultGuildsPerChunk
	}

	return o
}

// ChunkCount is the chunking policy: how many snapshot chunks a guild total
// is split into. Always at least one so the restore side has a chunk to
// look for even on an empty cache.
func ChunkCount(totalGuilds, guildsPerChunk int) int {
	if guildsPerChunk <= 0 {
		guildsPerChunk = DefaultGuildsPerChunk
	}

	if totalGuilds <= guildsPerChunk {
		return 1
	}

	return (totalGuilds + guildsPerChunk - 1) / guildsPerChunk
}

// ResumeSession is one shard's gateway session continuation state.
type ResumeSession struct {
	SessionID string `json:"sessionId"`
	Sequence  uint64 `json:"sequence"`
	ResumeURL string `json:"resumeUrl"`
}

// ColdResumeData is everything a restarted process needs to continue without
// a full gateway sync.
type ColdResumeData struct {
	Guilds      map[snowflake.ID]discord.Guild
	CurrentUser *discord.User
	Sessions    map[int]ResumeSession
}

// coldResumeMeta is written alongside the chunks so the restore side knows
// how many chunk keys to expect.
type coldResumeMeta struct {
	ChunkCount int                   `json:"chunkCount"`
	GuildCount int                   `json:"guildCount"`
	Sessions   map[int]ResumeSession `json:"sessions"`
	FrozenAt   time.Time             `json:"frozenAt"`
}

// PrepareColdResume snapshots all cached guilds, the current user, and the
// shard resume sessions under short-lived well-known keys. Call it
// immediately before a coordinated restart; anything left unconsumed
// expires on its own.
func (c *Client) PrepareColdResume(ctx context.Context, sessions map[int]ResumeSession) error {
	guilds, err := c.snapshotGuilds(ctx)
	if err != nil {
		return fmt.Errorf("snapshot guilds: %w", err)
	}

	chunkCount := ChunkCount(len(guilds), c.cold.GuildsPerChunk)
	chunkSize := (len(guilds) + chunkCount - 1) / chunkCount

	p := pool.New().WithContext(ctx).WithCancelOnError()

	for i := 0; i < chunkCount; i++ {
		start := i * chunkSize

		end := start + chunkSize
		if end > len(guilds) {
			end = len(guilds)
		}

		chunk := guilds[start:end]
		key := KeyOther(coldResumeChunkKey + ":" + strconv.Itoa(i))

		p.Go(func(ctx context.Context) error {
			payload, err := sonic.Marshal(chunk)
			if err != nil {
				return fmt.Errorf("marshal guild chunk: %w", err)
			}

			return c.setBinaryTTL(ctx, key, payload, c.cold.TTL)
		})
	}

	if err := p.Wait(); err != nil {
		return fmt.Errorf("write guild chunks: %w", err)
	}

	currentUser, err := c.FetchCurrentUser(ctx)
	if err != nil {
		return err
	}

	if currentUser != nil {
		payload, err := sonic.Marshal(currentUser)
		if err != nil {
			return fmt.Errorf("marshal current user: %w", err)
		}

		if err := c.setBinaryTTL(ctx, KeyOther(coldResumeUserKey), payload, c.cold.TTL); err != nil {
			return fmt.Errorf("write current user: %w", err)
		}
	}

	meta := coldResumeMeta{
		ChunkCount: chunkCount,
		GuildCount: len(guilds),
		Sessions:   sessions,
		FrozenAt:   time.Now().UTC(),
	}

	payload, err := sonic.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal resume metadata: %w", err)
	}

	if err := c.setBinaryTTL(ctx, KeyOther(coldResumeMetaKey), payload, c.cold.TTL); err != nil {
		return fmt.Errorf("write resume metadata: %w", err)
	}

	c.logger.Info("Prepared cold resume snapshot",
		zap.Int("guilds", len(guilds)),
		zap.Int("chunks", chunkCount),
		zap.Int("shards", len(sessions)))

	return nil
}

// RestoreColdResume consumes a snapshot written by PrepareColdResume. The
// restore is all-or-nothing: a single unreadable chunk fails the whole
// operation and the caller falls back to a full gateway sync. On success
// the snapshot keys are deleted so a second restore cannot silently reuse
// stale data.
func (c *Client) RestoreColdResume(ctx context.Context) (*ColdResumeData, error) {
	metaRaw, ok, err := c.getBinary(ctx, KeyOther(coldResumeMetaKey))
	if err != nil {
		return nil, fmt.Errorf("read resume metadata: %w", err)
	}

	if !ok {
		return nil, ErrColdResumeMissing
	}

	var meta coldResumeMeta
	if err := sonic.Unmarshal(metaRaw, &meta); err != nil {
		return nil, fmt.Errorf("%w: unmarshal metadata: %w", ErrColdResumeIncomplete, err)
	}

	data := &ColdResumeData{
		Guilds:   make(map[snowflake.ID]discord.Guild, meta.GuildCount),
		Sessions: meta.Sessions,
	}

	var mu sync.Mutex

	keys := make([]string, 0, meta.ChunkCount+2)
	keys = append(keys, KeyOther(coldResumeMetaKey), KeyOther(coldResumeUserKey))

	p := pool.New().WithContext(ctx).WithCancelOnError()

	for i := 0; i < meta.ChunkCount; i++ {
		key := KeyOther(coldResumeChunkKey + ":" + strconv.Itoa(i))
		keys = append(keys, key)

		p.Go(func(ctx context.Context) error {
			raw, ok, err := c.getBinary(ctx, key)
			if err != nil {
				return fmt.Errorf("read chunk %s: %w", key, err)
			}

			if !ok {
				return fmt.Errorf("%w: chunk %s expired or missing", ErrColdResumeIncomplete, key)
			}

			var guilds []discord.Guild
			if err := sonic.Unmarshal(raw, &guilds); err != nil {
				return fmt.Errorf("%w: unmarshal chunk %s: %w", ErrColdResumeIncomplete, key, err)
			}

			mu.Lock()
			for _, guild := range guilds {
				data.Guilds[guild.ID] = guild
			}
			mu.Unlock()

			return nil
		})
	}

	if err := p.Wait(); err != nil {
		if !errors.Is(err, ErrColdResumeIncomplete) {
			err = fmt.Errorf("%w: %w", ErrColdResumeIncomplete, err)
		}

		return nil, err
	}

	userRaw, ok, err := c.getBinary(ctx, KeyOther(coldResumeUserKey))
	if err != nil {
		return nil, fmt.Errorf("read current user: %w", err)
	}

	if ok {
		var user discord.User
		if err := sonic.Unmarshal(userRaw, &user); err != nil {
			return nil, fmt.Errorf("%w: unmarshal current user: %w", ErrColdResumeIncomplete, err)
		}

		data.CurrentUser = &user
	}

	if _, err := c.del(ctx, keys...); err != nil {
		return nil, fmt.Errorf("consume snapshot keys: %w", err)
	}

	c.logger.Info("Restored cold resume snapshot",
		zap.Int("guilds", len(data.Guilds)),
		zap.Int("chunks", meta.ChunkCount),
		zap.Int("shards", len(data.Sessions)))

	return data, nil
}

// snapshotGuilds reads every available guild record in pipelined batches.
func (c *Client) snapshotGuilds(ctx context.Context) ([]discord.Guild, error) {
	ids, err := c.GuildIDs(ctx)
	if err != nil {
		return nil, err
	}

	guilds := make([]discord.Guild, 0, len(ids))
	cmds := make(rueidis.Commands, 0, len(ids))

	for _, id := range ids {
		cmds = append(cmds, c.redis.B().Get().Key(KeyGuild(id)).Build())
	}

	for i, resp := range c.redis.DoMulti(ctx, cmds...) {
		raw, err := resp.AsBytes()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}

			return nil, err
		}

		var guild discord.Guild
		if err := c.codec.Decode(KindGuild, raw, &guild); err != nil {
			c.logger.Warn("Skipping undecodable guild in snapshot",
				zap.String("guildID", ids[i].String()),
				zap.Error(err))
			continue
		}

		guilds = append(guilds, guild)
	}

	return guilds, nil
}

// setBinaryTTL writes a raw value with an expiry.
func (c *Client) setBinaryTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := c.redis.B().Set().Key(key).Value(rueidis.BinaryString(value)).Ex(ttl).Build()
	return c.redis.Do(ctx, cmd).Error()
}
