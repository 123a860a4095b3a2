package token

import (
	"context"
	"encoding/json"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const tokenMetaHashKey = "watcher_token_meta"

// RedisConfig stores the redis connection configs
type RedisConfig struct {
	// Host:Port address
	Addr string `mapstructure:"Addr"`

	// Username for ACL
	Username string `mapstructure:"Username"`

	// Password for ACL
	Password string `mapstructure:"Password"`

	// DB index
	DB int `mapstructure:"DB"`
}

// redisResolver resolves and persists token metadata on a shared redis, so
// that several watcher instances pay the metadata lookup only once.
type redisResolver struct {
	client *redis.Client
}

// NewRedisResolver connects to redis and returns a Resolver backed by it.
func NewRedisResolver(cfg RedisConfig) (Resolver, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	res, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to redis server")
	}
	log.Debugf("redis health check done, result: %v", res)
	return &redisResolver{client: client}, nil
}

// ResolveToken fetches a token from the shared hash.
func (r *redisResolver) ResolveToken(ctx context.Context, c chain.ID, contract string) (*Token, error) {
	raw, err := r.client.HGet(ctx, tokenMetaHashKey, Key(c, contract)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, errors.Wrapf(gerror.ErrUnknownToken, "token %s on chain %s not in redis", contract, c.Name())
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis HGet error")
	}
	var t Token
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, errors.Wrap(err, "unmarshal token error")
	}
	return &t, nil
}

// StoreToken publishes a token to the shared hash.
func (r *redisResolver) StoreToken(ctx context.Context, t *Token) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "marshal token error")
	}
	err = r.client.HSet(ctx, tokenMetaHashKey, Key(t.Chain, t.Contract), string(raw)).Err()
	return errors.Wrap(err, "redis HSet error")
}
