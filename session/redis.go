package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vitrei/parley/core"
)

// RedisOptions configures the Redis-backed state store.
type RedisOptions struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password authenticates the connection, empty for none.
	Password string
	// DB selects the logical database.
	DB int
	// KeyPrefix namespaces all keys. Defaults to "parley:".
	KeyPrefix string
	// TTL expires idle sessions; refreshed on every save. Zero keeps
	// sessions forever.
	TTL time.Duration
	// InitialPhase is placed on freshly created states.
	InitialPhase string
}

// RedisStore is a StateStore backed by Redis, for deployments where sessions
// must survive restarts or be shared across replicas.
type RedisStore struct {
	client *redis.Client
	opts   RedisOptions
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(optFns ...func(o *RedisOptions)) (*RedisStore, error) {
	opts := RedisOptions{Addr: "localhost:6379"}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, core.NewConfigurationFault(fmt.Sprintf("connect to redis at %s", opts.Addr), err)
	}

	return newRedisStore(client, opts), nil
}

// NewRedisStoreFromClient wraps an existing client, e.g. a test instance.
func NewRedisStoreFromClient(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	return newRedisStore(client, opts)
}

func newRedisStore(client *redis.Client, opts RedisOptions) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "parley:"
	}

	return &RedisStore{client: client, opts: opts}
}

func (s *RedisStore) stateKey(userID string) string {
	return s.opts.KeyPrefix + "state:" + userID
}

// GetOrCreate returns the stored state for userID or a fresh one. Fresh
// states are not written until the first successful save.
func (s *RedisStore) GetOrCreate(ctx context.Context, userID string) (*core.AgentState, error) {
	data, err := s.client.Get(ctx, s.stateKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		state := core.NewAgentState(userID)
		state.CurrentPhase = s.opts.InitialPhase
		return state, nil
	}
	if err != nil {
		return nil, core.NewUpstreamFault("load session state", err)
	}

	var state core.AgentState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, core.NewUpstreamFault("decode session state", err)
	}

	return &state, nil
}

// Save persists the state snapshot, refreshing the TTL.
func (s *RedisStore) Save(ctx context.Context, state *core.AgentState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return core.NewUpstreamFault("encode session state", err)
	}

	if err := s.client.Set(ctx, s.stateKey(state.UserID), data, s.opts.TTL).Err(); err != nil {
		return core.NewUpstreamFault("store session state", err)
	}

	return nil
}

// Delete evicts the state for userID.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.stateKey(userID)).Err(); err != nil {
		return core.NewUpstreamFault("delete session state", err)
	}

	return nil
}

// Ping checks the backing connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
