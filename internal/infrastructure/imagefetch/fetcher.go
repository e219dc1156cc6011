package imagefetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/internal/usecase"
	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/DRSN-tech/image-search/pkg/jitter"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/jimlawless/whereami"
)

// maxImageSize — лимит на размер скачиваемого изображения.
const maxImageSize = 20 << 20

// Fetcher получает изображения по ссылке и подготавливает их для модели.
// Поддерживает http(s)-источники с retry-логикой и ссылки s3://bucket/key в
// объектное хранилище. Опциональный кэш хранит скачанные байты между запросами.
type Fetcher struct {
	client      *http.Client
	cfg         *cfg.FetchCfg
	objectStore usecase.ImageRepository      // может быть nil
	cache       usecase.ImageCacheRepository // может быть nil
	logger      logger.Logger
}

func NewFetcher(
	cfg *cfg.FetchCfg,
	objectStore usecase.ImageRepository,
	cache usecase.ImageCacheRepository,
	logger logger.Logger,
) *Fetcher {
	return &Fetcher{
		client:      &http.Client{},
		cfg:         cfg,
		objectStore: objectStore,
		cache:       cache,
		logger:      logger,
	}
}

// Fetch загружает изображение по ссылке и подготавливает его для модели.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.Image, error) {
	const op = "Fetcher.Fetch"

	if rawURL == "" {
		return nil, e.Wrap(op, e.ErrImageURLRequired)
	}

	if f.cache != nil {
		if data, err := f.cache.GetImage(ctx, rawURL); err != nil {
			f.logger.Warnf("image cache lookup failed: %v", err)
		} else if data != nil {
			return f.Prepare(data)
		}
	}

	data, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if f.cache != nil {
		if err := f.cache.SetImage(ctx, rawURL, data); err != nil {
			f.logger.Warnf("image cache store failed: %v", err)
		}
	}

	return f.Prepare(data)
}

// download получает сырые байты изображения по http(s) или s3-ссылке.
func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, e.Wrap(rawURL, e.ErrFetchFailed)
	}

	switch parsed.Scheme {
	case "http", "https":
		return f.downloadHTTP(ctx, rawURL)
	case "s3":
		return f.downloadObject(ctx, parsed)
	default:
		return nil, e.Wrap(fmt.Sprintf("unsupported scheme %q", parsed.Scheme), e.ErrFetchFailed)
	}
}

// downloadHTTP скачивает изображение с повторами на временных ошибках
// (429/500/502/503/504, сетевые сбои) и экспоненциальной задержкой.
// Остальные статусы терминальны и не повторяются.
func (f *Fetcher) downloadHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	const (
		baseJitter = 1 * time.Second
		maxJitter  = 10 * time.Second
	)

	var lastErr error
	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		data, retryable, err := f.attemptHTTP(ctx, rawURL)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !retryable || attempt == f.cfg.MaxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(baseJitter, maxJitter, attempt, jitter.DefaultJitter)
		f.logger.Warnf("image fetch failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(whereami.WhereAmI(), ctx.Err())
		}
	}

	return nil, e.Wrap(lastErr.Error(), e.ErrFetchFailed)
}

// attemptHTTP выполняет одну попытку скачивания с собственным таймаутом.
func (f *Fetcher) attemptHTTP(ctx context.Context, rawURL string) (data []byte, retryable bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
		if err != nil {
			return nil, true, err
		}
		return data, false, nil
	case isTransientStatus(resp.StatusCode):
		return nil, true, fmt.Errorf("transient status %d for %s", resp.StatusCode, rawURL)
	default:
		return nil, false, fmt.Errorf("status %d for %s", resp.StatusCode, rawURL)
	}
}

// downloadObject получает изображение из объектного хранилища по ссылке s3://bucket/key.
func (f *Fetcher) downloadObject(ctx context.Context, parsed *url.URL) ([]byte, error) {
	if f.objectStore == nil {
		return nil, e.ErrImageSourceNotSet
	}

	bucket := parsed.Host
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket == "" || key == "" {
		return nil, e.Wrap(parsed.String(), e.ErrFetchFailed)
	}

	data, err := f.objectStore.Get(ctx, bucket, key)
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrFetchFailed)
	}

	return data, nil
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
