package container

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"warrantfeed/internal/application/port"
	"warrantfeed/internal/infrastructure/catalog"
	"warrantfeed/internal/infrastructure/config"
	"warrantfeed/internal/infrastructure/httpx"
	redisrelay "warrantfeed/internal/infrastructure/relay/redis"
	"warrantfeed/internal/infrastructure/upstream/eodhd"
)

// Container 持有所有基础设施依赖
type Container struct {
	cfg         *config.Config
	catalog     port.InstrumentCatalog
	sqlCatalog  *catalog.SQLCatalog
	fetcher     *eodhd.Client
	redisClient *redis.Client
	publisher   *redisrelay.Publisher
	closeOnce   sync.Once
	closerChain []func() error
}

// New 创建新的容器实例
func New(cfg *config.Config) (*Container, error) {
	c := &Container{
		cfg:         cfg,
		closerChain: make([]func() error, 0),
	}

	if err := c.initCatalog(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("catalog init failed: %w", err)
	}
	if err := c.initFetcher(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("upstream init failed: %w", err)
	}
	if cfg.Redis.Enabled {
		if err := c.initRedis(); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("redis init failed: %w", err)
		}
	}

	return c, nil
}

// initCatalog 根据 catalog.source 选择数据源
func (c *Container) initCatalog() error {
	cc := c.cfg.Catalog
	switch cc.Source {
	case config.CatalogSQLite:
		repo, err := catalog.NewSQLite(cc.Path, cc.Query, cc.Suffix, cc.Limit)
		if err != nil {
			return err
		}
		c.useSQL(repo, "closing sqlite catalog")
		log.Info().Str("path", cc.Path).Msg("sqlite catalog initialized")

	case config.CatalogPostgres:
		repo, err := catalog.NewPostgres(cc.DSN, cc.Query, cc.Suffix, cc.Limit)
		if err != nil {
			return err
		}
		c.useSQL(repo, "closing postgres catalog")
		log.Info().Msg("postgres catalog initialized")

	default:
		c.catalog = catalog.NewFile(cc.Path, cc.Sheet, cc.Suffix, cc.Limit)
		log.Info().Str("path", cc.Path).Msg("file catalog initialized")
	}
	return nil
}

func (c *Container) useSQL(repo *catalog.SQLCatalog, closeMsg string) {
	c.sqlCatalog = repo
	c.catalog = repo
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg(closeMsg)
		return repo.Close()
	})
}

// initFetcher 初始化上游行情客户端
func (c *Container) initFetcher() error {
	timeout := c.cfg.UpstreamTimeout()
	client, err := eodhd.NewClient(c.cfg.Upstream.APIToken,
		eodhd.WithBaseURL(c.cfg.Upstream.BaseURL),
		eodhd.WithHTTPClient(httpx.New(timeout)),
		eodhd.WithTimeout(timeout),
	)
	if err != nil {
		return err
	}
	c.fetcher = client
	return nil
}

// initRedis 初始化 Redis 连接
func (c *Container) initRedis() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.cfg.Redis.Addr,
		Password: c.cfg.Redis.Password,
		DB:       c.cfg.Redis.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	c.redisClient = rdb
	c.publisher = redisrelay.New(rdb, c.cfg.Redis.Channel, c.cfg.Redis.LatestKey, c.cfg.RedisTTL())

	// 注册关闭回调
	c.closerChain = append(c.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", c.cfg.Redis.Addr).
		Int("db", c.cfg.Redis.DB).
		Str("channel", c.cfg.Redis.Channel).
		Msg("redis initialized")

	return nil
}

func (c *Container) Catalog() port.InstrumentCatalog { return c.catalog }

// SQLCatalog 仅在 sqlite/postgres 数据源下非 nil
func (c *Container) SQLCatalog() *catalog.SQLCatalog { return c.sqlCatalog }

func (c *Container) Fetcher() port.QuoteFetcher { return c.fetcher }

// Sinks 返回广播之外的附加输出（目前只有 redis 转发）
func (c *Container) Sinks() []port.QuoteSink {
	if c.publisher == nil {
		return nil
	}
	return []port.QuoteSink{c.publisher}
}

// Close 关闭所有资源（按后进先出顺序）
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		for i := len(c.closerChain) - 1; i >= 0; i-- {
			if e := c.closerChain[i](); e != nil {
				log.Error().Err(e).Msg("error closing resource")
				if err == nil {
					err = e
				}
			}
		}
		log.Info().Msg("container closed")
	})
	return err
}
