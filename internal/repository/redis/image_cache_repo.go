package redis

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/pkg/clients"
	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/redis/go-redis/v9"
)

// ImageCacheRepo кэширует сырые байты скачанных изображений.
// Ключ строится из хеша URL, чтобы не упираться в лимит длины ключа.
type ImageCacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewImageCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *ImageCacheRepo {
	return &ImageCacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetImage возвращает закэшированные байты изображения по URL.
// Промах кэша — это (nil, nil), не ошибка.
func (r *ImageCacheRepo) GetImage(ctx context.Context, url string) ([]byte, error) {
	data, err := r.client.Client.Get(ctx, r.imageKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		r.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// SetImage кэширует байты изображения с TTL из конфига.
// Решение о том, прерывает ли ошибка записи операцию, остается за вызывающим.
func (r *ImageCacheRepo) SetImage(ctx context.Context, url string, data []byte) error {
	if err := r.client.Client.Set(ctx, r.imageKey(url), data, r.cfg.ImageTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *ImageCacheRepo) imageKey(url string) string {
	return fmt.Sprintf("image:%x", sha256.Sum256([]byte(url)))
}
