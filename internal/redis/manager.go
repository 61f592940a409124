// Package redis manages the connections to the backing key-value store.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/beatbot/statecache/internal/setup/config"
)

const (
	// CacheDBIndex holds the entity records and index sets in database 0.
	CacheDBIndex = 0

	// StatsDBIndex dedicates database 1 to statistics so counters can be
	// flushed or inspected without touching entity data.
	StatsDBIndex = 1
)

// Manager maintains a thread-safe mapping of database indices to Redis
// clients. Each database index gets its own client; rueidis bounds and
// multiplexes the underlying connections, so borrowing a connection for a
// command releases it on every exit path without caller bookkeeping.
type Manager struct {
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewManager initializes the connection manager with an empty client map.
// Clients are created lazily when first requested.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  config,
		logger:  logger.Named("redis"),
	}
}

// GetClient retrieves or creates the Redis client for a database index.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[dbIndex]; exists {
		return client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:         m.config.Username,
		Password:         m.config.Password,
		SelectDB:         dbIndex,
		ClientName:       "statecache",
		BlockingPoolSize: m.config.PoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create Redis client for DB %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("Created new Redis client", zap.Int("dbIndex", dbIndex))

	return client, nil
}

// VerifyConnection pings the backend with exponential backoff so startup
// fails fast with a descriptive error when Redis is unreachable, instead of
// every store operation failing later.
func (m *Manager) VerifyConnection(ctx context.Context, dbIndex int) error {
	client, err := m.GetClient(dbIndex)
	if err != nil {
		return err
	}

	ping := func() error {
		return client.Do(ctx, client.B().Ping().Build()).Error()
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(200*time.Millisecond),
		backoff.WithMaxInterval(2*time.Second),
		backoff.WithMaxElapsedTime(15*time.Second),
	), 5)

	if err := backoff.Retry(ping, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("redis at %s:%d unreachable: %w", m.config.Host, m.config.Port, err)
	}

	return nil
}

// Close gracefully shuts down all active clients. Safe to call multiple
// times.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		delete(m.clients, dbIndex)
		m.logger.Info("Closed Redis client", zap.Int("dbIndex", dbIndex))
	}
}
