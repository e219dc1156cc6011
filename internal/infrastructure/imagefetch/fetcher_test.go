package imagefetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/pkg/e"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

type fakeObjectStore struct {
	objects map[string][]byte // ключ — "bucket/key"
}

func (f *fakeObjectStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type fakeImageCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
	gets   int
	hits   int
	sets   int
}

func (f *fakeImageCache) GetImage(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if data, ok := f.data[url]; ok {
		f.hits++
		return data, nil
	}
	return nil, nil
}

func (f *fakeImageCache) SetImage(_ context.Context, url string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.data[url] = data
	return nil
}

func fetcherWith(objectStore *fakeObjectStore, cache *fakeImageCache, maxRetries int) *Fetcher {
	fetchCfg := &cfg.FetchCfg{Timeout: 2 * time.Second, MaxRetries: maxRetries}
	if objectStore != nil && cache != nil {
		return NewFetcher(fetchCfg, objectStore, cache, nopLogger{})
	}
	if objectStore != nil {
		return NewFetcher(fetchCfg, objectStore, nil, nopLogger{})
	}
	if cache != nil {
		return NewFetcher(fetchCfg, nil, cache, nopLogger{})
	}
	return NewFetcher(fetchCfg, nil, nil, nopLogger{})
}

func TestFetchHTTPSuccess(t *testing.T) {
	data := opaquePNG(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	f := fetcherWith(nil, nil, 3)

	img, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width != 4 || img.Height != 4 {
		t.Errorf("unexpected dimensions: %dx%d", img.Width, img.Height)
	}
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	data := opaquePNG(t, 4, 4)
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	f := fetcherWith(nil, nil, 3)

	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchDoesNotRetryTerminalStatus(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetcherWith(nil, nil, 3)

	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, e.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("404 must not be retried, got %d attempts", got)
	}
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := fetcherWith(nil, nil, 2)

	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, e.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestFetchEmptyURL(t *testing.T) {
	f := fetcherWith(nil, nil, 3)

	if _, err := f.Fetch(context.Background(), ""); !errors.Is(err, e.ErrImageURLRequired) {
		t.Errorf("expected ErrImageURLRequired, got %v", err)
	}
}

func TestFetchUnsupportedScheme(t *testing.T) {
	f := fetcherWith(nil, nil, 3)

	if _, err := f.Fetch(context.Background(), "ftp://host/image.png"); !errors.Is(err, e.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFetchS3Object(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"catalog/images/red.png": opaquePNG(t, 4, 4),
	}}
	f := fetcherWith(store, nil, 3)

	img, err := f.Fetch(context.Background(), "s3://catalog/images/red.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.MimeType != "image/png" {
		t.Errorf("unexpected mime type: %s", img.MimeType)
	}
}

func TestFetchS3WithoutObjectStore(t *testing.T) {
	f := fetcherWith(nil, nil, 3)

	if _, err := f.Fetch(context.Background(), "s3://catalog/images/red.png"); !errors.Is(err, e.ErrImageSourceNotSet) {
		t.Errorf("expected ErrImageSourceNotSet, got %v", err)
	}
}

func TestFetchUsesCache(t *testing.T) {
	data := opaquePNG(t, 4, 4)
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Write(data)
	}))
	defer srv.Close()

	cache := &fakeImageCache{}
	f := fetcherWith(nil, cache, 3)

	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("second fetch must hit the cache, got %d HTTP requests", got)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.sets != 1 || cache.hits != 1 {
		t.Errorf("expected 1 set and 1 hit, got %d sets, %d hits", cache.sets, cache.hits)
	}
}

func TestFetchCacheStoreFailureDoesNotFailFetch(t *testing.T) {
	data := opaquePNG(t, 4, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	cache := &fakeImageCache{setErr: errors.New("redis: connection refused")}
	f := fetcherWith(nil, cache, 3)

	img, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("cache store failure must not fail the fetch, got %v", err)
	}
	if img == nil || img.Width != 4 {
		t.Errorf("unexpected image: %+v", img)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.sets != 1 {
		t.Errorf("expected 1 attempted cache store, got %d", cache.sets)
	}
}
