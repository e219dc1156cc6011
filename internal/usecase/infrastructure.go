package usecase

import (
	"context"

	"github.com/DRSN-tech/image-search/internal/domain"
)

type MlServiceInfra interface {
	// EnsureLoaded блокирует до завершения загрузки модели. Повторные вызовы после
	// успешной загрузки возвращаются сразу; неудачная загрузка может быть повторена.
	EnsureLoaded(ctx context.Context) error
	Loaded() bool
	// Vectorize возвращает нормированный эмбеддинг одного изображения.
	Vectorize(ctx context.Context, image *domain.Image) (domain.Embedding, error)
}

type ImagesInfra interface {
	// Fetch загружает изображение по ссылке (http(s):// или s3://) и подготавливает
	// его для модели.
	Fetch(ctx context.Context, url string) (*domain.Image, error)
	// Prepare декодирует байты изображения и подготавливает их для модели:
	// альфа-канал сводится на непрозрачный фон.
	Prepare(data []byte) (*domain.Image, error)
}

type EventsInfra interface {
	PublishIndexRefreshed(ctx context.Context, event *IndexRefreshedEvent) error
}
