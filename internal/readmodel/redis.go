package readmodel

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/park285/mchess-live/internal/live"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher pushes every view to a pub/sub channel and keeps the newest one under a key
// so renderers that subscribe late can catch up.
type Publisher struct {
	rdb     *redis.Client
	channel string
	key     string
	ttl     time.Duration
	logger  *zap.Logger
}

// Dial connects to redisURL and checks the server with PING.
func Dial(ctx context.Context, redisURL, channel, key string, ttl time.Duration, logger *zap.Logger) (*Publisher, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, channel, key, ttl, logger), nil
}

func New(rdb *redis.Client, channel, key string, ttl time.Duration, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{rdb: rdb, channel: channel, key: key, ttl: ttl, logger: logger}
}

// Publish sends v in one MULTI: PUBLISH on the channel and SET of the latest key.
func (p *Publisher) Publish(ctx context.Context, v live.View) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	_, err = p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, p.channel, raw)
		pipe.Set(ctx, p.key, raw, p.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish view: %w", err)
	}
	p.logger.Debug("readmodel_published", zap.String("channel", p.channel), zap.Int("bytes", len(raw)))
	return nil
}

// Latest returns the newest published view, or nil when none is cached.
func (p *Publisher) Latest(ctx context.Context) (*live.View, error) {
	raw, err := p.rdb.Get(ctx, p.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v live.View
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode view: %w", err)
	}
	return &v, nil
}

func (p *Publisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	opts := &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: u.Hostname()}
	}
	return opts, nil
}
