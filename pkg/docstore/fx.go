package docstore

import (
	"context"
	"fmt"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/pkg/db"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the Store of the configured backend. The gorm backend
// brings in the database module.
func Module(backend string) fx.Option {
	if backend == config.DocstoreRedis {
		return fx.Module("docstore",
			fx.Provide(NewIDGenerator),
			fx.Provide(NewRedisClient),
			fx.Provide(fx.Annotate(NewRedisStore, fx.As(new(Store)))),
		)
	}
	return fx.Module("docstore",
		db.Module,
		fx.Provide(NewIDGenerator),
		fx.Provide(fx.Annotate(NewGormStore, fx.As(new(Store)))),
	)
}

func NewIDGenerator(cfg config.Config) (IDGenerator, error) {
	return NewSnowflakeIDs(cfg.SnowflakeNode)
}

func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) redis.UniversalClient {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	log = log.Named("docstore.redis")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
			}
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return client
}
