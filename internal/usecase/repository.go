package usecase

import (
	"context"

	"github.com/DRSN-tech/image-search/internal/domain"
)

type CatalogRepository interface {
	// ItemsWithImages возвращает товары с непустой ссылкой на изображение.
	// limit ограничивает количество (0 — без лимита).
	ItemsWithImages(ctx context.Context, limit int) ([]domain.Item, error)
	Ping(ctx context.Context) error
}

type ImageRepository interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

type ImageCacheRepository interface {
	// GetImage возвращает nil без ошибки при промахе кэша.
	GetImage(ctx context.Context, url string) ([]byte, error)
	SetImage(ctx context.Context, url string, data []byte) error
}
