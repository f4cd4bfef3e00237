package repo

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/untout/persistence/cache"
	"github.com/untout/persistence/config"
	"github.com/untout/persistence/example/model"
	"github.com/untout/persistence/orm"
)

// NewArticleStore wires the article repository described by cfg, behind
// the Redis cache when it is enabled.
func NewArticleStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (orm.Store[int64, model.Article], func(), error) {
	adapter, err := cfg.NameAdapter()
	if err != nil {
		return nil, nil, err
	}
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, nil, err
	}

	m, err := orm.NewMapping(model.ArticleMapping())
	if err != nil {
		return nil, nil, fmt.Errorf("article mapping: %w", err)
	}
	b, err := orm.NewBuilder(adapter, &m.Entity, dialect)
	if err != nil {
		return nil, nil, fmt.Errorf("article builder: %w", err)
	}

	f, err := cfg.OpenFactory(ctx)
	if err != nil {
		return nil, nil, err
	}
	closeFactory := func() {
		switch f := f.(type) {
		case *orm.SQLFactory:
			_ = f.Close()
		case *orm.PgxFactory:
			f.Close()
		}
	}

	r, err := orm.NewRepository(f, b, m, orm.WithLogger[int64, model.Article](logger))
	if err != nil {
		closeFactory()
		return nil, nil, err
	}

	client := cfg.RedisClient()
	if client == nil {
		return r, closeFactory, nil
	}

	c, err := cache.New[int64, model.Article](r, client, b.Table(), m.ID,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(logger),
	)
	if err != nil {
		_ = client.Close()
		closeFactory()
		return nil, nil, err
	}
	return c, func() {
		_ = client.Close()
		closeFactory()
	}, nil
}
