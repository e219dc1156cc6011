package ml_service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/internal/proto"
	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/DRSN-tech/image-search/pkg/jitter"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MLService — клиент внешнего ML-сервиса, владеющий жизненным циклом модели.
// Загрузка модели выполняется не более одного раза за жизнь процесса;
// конкурентные вызовы во время загрузки ждут ее завершения, неудачная
// загрузка может быть повторена следующим вызовом.
type MLService struct {
	client proto.MachineLearningServiceClient
	cfg    *cfg.MLServiceCfg
	logger logger.Logger

	loadMu       sync.Mutex
	loaded       atomic.Bool
	modelVersion string
	vectorSize   int32

	sem chan struct{} // ограничение конкурентных запросов к сервису
}

func NewMLService(client proto.MachineLearningServiceClient, cfg *cfg.MLServiceCfg, logger logger.Logger) *MLService {
	return &MLService{
		client: client,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
	}
}

// EnsureLoaded блокирует до завершения загрузки модели на стороне ML-сервиса.
// Флаг loaded выставляется только после успешной загрузки, поэтому после
// ошибки загрузку можно повторить.
func (m *MLService) EnsureLoaded(ctx context.Context) error {
	const op = "MLService.EnsureLoaded"

	if m.loaded.Load() {
		return nil
	}

	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	if m.loaded.Load() {
		return nil
	}

	m.logger.Infof("loading model %s on %s", m.cfg.ModelName, m.cfg.Device)
	started := time.Now()

	res, err := m.client.LoadModel(ctx, &proto.LoadModelRequest{
		ModelName: m.cfg.ModelName,
		Device:    m.cfg.Device,
	})
	if err != nil {
		return e.Wrap(op, err)
	}
	if !res.Loaded {
		return e.Wrap(op, e.ErrModelNotLoaded)
	}

	m.modelVersion = res.ModelVersion
	m.vectorSize = res.VectorSize
	m.loaded.Store(true)

	m.logger.Infof("model %s loaded in %v (vector size: %d)", m.cfg.ModelName, time.Since(started), res.VectorSize)
	return nil
}

func (m *MLService) Loaded() bool {
	return m.loaded.Load()
}

// Vectorize возвращает нормированный эмбеддинг одного изображения с retry-логикой
// и экспоненциальной задержкой. Невалидное изображение (InvalidArgument) не повторяется.
func (m *MLService) Vectorize(ctx context.Context, image *domain.Image) (domain.Embedding, error) {
	const (
		op         = "MLService.Vectorize"
		baseJitter = 500 * time.Millisecond
		maxJitter  = 5 * time.Second
	)

	if err := m.EnsureLoaded(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	var lastErr error
	for attempt := 0; attempt < m.cfg.MaxRetries; attempt++ {
		emb, err := m.vectorizeOnce(ctx, image)
		if err == nil {
			return emb, nil
		}
		lastErr = err

		if status.Code(err) == codes.InvalidArgument {
			break
		}
		if attempt == m.cfg.MaxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(baseJitter, maxJitter, attempt, jitter.DefaultJitter)
		m.logger.Warnf("vectorization failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, e.Wrap(lastErr.Error(), e.ErrEmbeddingFailed))
}

// VectorizeBatch векторизует упорядоченный набор изображений параллельно с
// ограничением конкурентности. Батч атомарен: ошибка любого изображения
// отменяет остальные запросы и завершает весь вызов ошибкой.
func (m *MLService) VectorizeBatch(ctx context.Context, images []*domain.Image) ([]domain.Embedding, error) {
	const op = "MLService.VectorizeBatch"

	if len(images) == 0 {
		return nil, nil
	}

	if err := m.EnsureLoaded(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	embeddings := make([]domain.Embedding, len(images))
	errCh := make(chan error, len(images))

	var wg sync.WaitGroup
	for i, image := range images {
		wg.Add(1)
		go func(i int, image *domain.Image) {
			defer wg.Done()

			emb, err := m.vectorizeOnce(ctx, image)
			if err != nil {
				errCh <- err
				cancel()
				return
			}

			embeddings[i] = emb
		}(i, image)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, e.Wrap(op, e.Wrap(err.Error(), e.ErrEmbeddingFailed))
	default:
	}

	return embeddings, nil
}

// vectorizeOnce выполняет один запрос векторизации и нормирует результат.
// Слот семафора удерживается на время запроса.
func (m *MLService) vectorizeOnce(ctx context.Context, image *domain.Image) (domain.Embedding, error) {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-m.sem }()

	res, err := m.client.VectorizeImage(ctx, &proto.VectorizeRequest{
		ImageData: image.Data,
		ImageType: image.MimeType,
	})
	if err != nil {
		return nil, err
	}

	if m.vectorSize > 0 && int32(len(res.Vector)) != m.vectorSize {
		return nil, fmt.Errorf("unexpected vector size: got %d, want %d", len(res.Vector), m.vectorSize)
	}

	return domain.NewEmbedding(res.Vector)
}
