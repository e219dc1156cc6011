package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/pkg/e"
)

// --- fakes ---

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}

type fakeCatalogRepo struct {
	mu      sync.Mutex
	items   []domain.Item
	err     error
	calls   atomic.Int32
	entered chan struct{} // закрывается, когда следующий вызов вошел в ItemsWithImages
	release chan struct{} // этот вызов ждет закрытия канала
}

func (f *fakeCatalogRepo) ItemsWithImages(_ context.Context, _ int) ([]domain.Item, error) {
	f.calls.Add(1)
	f.mu.Lock()
	entered, release := f.entered, f.release
	f.entered, f.release = nil, nil
	items, err := f.items, f.err
	f.mu.Unlock()

	if entered != nil {
		close(entered)
		<-release
	}

	if err != nil {
		return nil, err
	}
	return items, nil
}

func (f *fakeCatalogRepo) Ping(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeCatalogRepo) set(items []domain.Item, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
	f.err = err
}

// blockNext паркует следующий вызов ItemsWithImages до закрытия release.
func (f *fakeCatalogRepo) blockNext(entered, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = entered
	f.release = release
}

type fakeML struct {
	loaded     atomic.Bool
	loadErr    error
	vectors    map[string][]float32 // ключ — содержимое domain.Image.Data
	vectorErrs map[string]error
}

func (f *fakeML) EnsureLoaded(_ context.Context) error {
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded.Store(true)
	return nil
}

func (f *fakeML) Loaded() bool { return f.loaded.Load() }

func (f *fakeML) Vectorize(_ context.Context, image *domain.Image) (domain.Embedding, error) {
	key := string(image.Data)
	if err := f.vectorErrs[key]; err != nil {
		return nil, err
	}
	vector, ok := f.vectors[key]
	if !ok {
		return nil, fmt.Errorf("no vector configured for %q", key)
	}
	return domain.NewEmbedding(vector)
}

type fakeImages struct {
	fetchErrs   map[string]error
	prepareErr  error
	prepareData []byte
}

func (f *fakeImages) Fetch(_ context.Context, url string) (*domain.Image, error) {
	if err := f.fetchErrs[url]; err != nil {
		return nil, err
	}
	return &domain.Image{Data: []byte(url), MimeType: "image/jpeg"}, nil
}

func (f *fakeImages) Prepare(data []byte) (*domain.Image, error) {
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	if f.prepareData != nil {
		data = f.prepareData
	}
	return &domain.Image{Data: data, MimeType: "image/jpeg"}, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*IndexRefreshedEvent
}

func (f *fakeEvents) PublishIndexRefreshed(_ context.Context, event *IndexRefreshedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// --- helpers ---

func testItems() []domain.Item {
	return []domain.Item{
		{ID: "1", Name: "red shirt", Price: 10, ImageURL: "http://img/red"},
		{ID: "2", Name: "blue shirt", Price: 20, ImageURL: "http://img/blue"},
		{ID: "3", Name: "green shirt", Price: 30, ImageURL: "http://img/green"},
	}
}

func testVectors() map[string][]float32 {
	return map[string][]float32{
		"http://img/red":   {1, 0, 0},
		"http://img/blue":  {0, 1, 0},
		"http://img/green": {0, 0, 1},
		"query":            {1, 0.1, 0},
	}
}

func newTestUC(catalog *fakeCatalogRepo, ml *fakeML, images *fakeImages, events EventsInfra, eager bool) *SearchUseCase {
	searchCfg := &cfg.SearchCfg{
		TopK:            10,
		Threshold:       0.0,
		CacheEmbeddings: eager,
	}
	return NewSearchUC(catalog, ml, images, events, searchCfg, 4, nopLogger{})
}

func queryReq() *SearchByImageReq {
	return NewSearchByImageReq([]byte("query"), nil, nil)
}

// --- tests ---

func TestSearchByImageSelfSimilarityFirst(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Запрос почти совпадает с вектором первого товара
	if results[0].Item.ID != "1" {
		t.Errorf("expected item 1 first, got %s", results[0].Item.ID)
	}
	if results[0].Rank != 1 {
		t.Errorf("expected rank 1, got %d", results[0].Rank)
	}
	if math.Abs(results[0].Score-1.0) > 0.01 {
		t.Errorf("expected near-perfect score, got %g", results[0].Score)
	}
}

func TestLazyInitRunsOnce(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	const goroutines = 16
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.SearchByImage(context.Background(), queryReq())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := catalog.calls.Load(); got != 1 {
		t.Errorf("expected exactly one catalog load, got %d", got)
	}
}

func TestFailedInitIsRetryable(t *testing.T) {
	catalog := &fakeCatalogRepo{}
	catalog.set(nil, errors.New("connection refused"))
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	if _, err := uc.SearchByImage(context.Background(), queryReq()); !errors.Is(err, e.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	status := uc.Status(context.Background())
	if status.State != "uninitialized" {
		t.Errorf("expected uninitialized state after failed init, got %s", status.State)
	}

	// Хранилище восстановилось — следующий запрос инициализирует заново
	catalog.set(testItems(), nil)

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("unexpected error after recovery: %v", err)
	}
	if len(results) == 0 {
		t.Error("expected results after recovery")
	}
	if got := catalog.calls.Load(); got != 2 {
		t.Errorf("expected 2 catalog loads, got %d", got)
	}
}

func TestSearchByImageFailSoftOnPrepareError(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{prepareErr: e.ErrDecodeFailed}

	uc := newTestUC(catalog, ml, images, nil, true)

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("pipeline failure must not be an operation error, got %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %v", results)
	}
}

func TestSearchByImageFailSoftOnVectorizeError(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{
		vectors:    testVectors(),
		vectorErrs: map[string]error{"query": e.ErrEmbeddingFailed},
	}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("pipeline failure must not be an operation error, got %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %v", results)
	}
}

func TestSearchByURLFailSoftOnFetchError(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{
		fetchErrs: map[string]error{"http://broken": e.ErrFetchFailed},
	}

	uc := newTestUC(catalog, ml, images, nil, true)

	results, err := uc.SearchByURL(context.Background(), NewSearchByURLReq("http://broken", nil, nil))
	if err != nil {
		t.Fatalf("pipeline failure must not be an operation error, got %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil result, got %v", results)
	}
}

func TestImpossibleThresholdGivesEmptyResult(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	threshold := 1.0
	topK := 5
	results, err := uc.SearchByImage(context.Background(), NewSearchByImageReq([]byte("query"), &topK, &threshold))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result at threshold 1.0, got %d", len(results))
	}
}

func TestEmbeddingFailuresSkipItems(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{
		vectors:    testVectors(),
		vectorErrs: map[string]error{"http://img/blue": e.ErrEmbeddingFailed},
	}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results (one item skipped), got %d", len(results))
	}
	for _, res := range results {
		if res.Item.ID == "2" {
			t.Error("item with failed embedding must be excluded")
		}
	}

	status := uc.Status(context.Background())
	if status.TotalItems != 3 || status.IndexedItems != 2 {
		t.Errorf("expected 3 total / 2 indexed, got %d/%d", status.TotalItems, status.IndexedItems)
	}
}

func TestOnDemandModeServesResults(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, false)

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	status := uc.Status(context.Background())
	if status.CacheMode != "on_demand" {
		t.Errorf("expected on_demand cache mode, got %s", status.CacheMode)
	}
	if status.IndexedItems != 0 {
		t.Errorf("on-demand mode must not persist embeddings, indexed: %d", status.IndexedItems)
	}
}

func TestRefreshRebuildsSnapshotAndPublishesEvent(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}
	events := &fakeEvents{}

	uc := newTestUC(catalog, ml, images, events, true)

	if _, err := uc.SearchByImage(context.Background(), queryReq()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// В каталоге появился новый товар
	ml.vectors["http://img/yellow"] = []float32{1, 1, 0}
	catalog.set(append(testItems(), domain.Item{ID: "4", Name: "yellow shirt", ImageURL: "http://img/yellow"}), nil)

	res, err := uc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalItems != 4 || res.IndexedItems != 4 {
		t.Errorf("expected 4/4 after refresh, got %d/%d", res.TotalItems, res.IndexedItems)
	}

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Errorf("expected new item in results, got %d", len(results))
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(events.events))
	}
	event := events.events[0]
	if event.EventID == "" || event.TotalItems != 4 || event.IndexedItems != 4 || event.CacheMode != "eager" {
		t.Errorf("unexpected event: %+v", event)
	}
}

func TestSearchServesPriorSnapshotDuringRefresh(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	if _, err := uc.SearchByImage(context.Background(), queryReq()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Refresh паркуется внутри чтения каталога
	entered := make(chan struct{})
	release := make(chan struct{})
	catalog.blockNext(entered, release)

	refreshDone := make(chan error, 1)
	go func() {
		_, err := uc.Refresh(context.Background())
		refreshDone <- err
	}()
	<-entered

	searchDone := make(chan error, 1)
	go func() {
		results, err := uc.SearchByImage(context.Background(), queryReq())
		if err == nil && len(results) != 3 {
			err = fmt.Errorf("expected 3 results from the prior snapshot, got %d", len(results))
		}
		searchDone <- err
	}()

	select {
	case err := <-searchDone:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("search must serve the prior snapshot during an in-flight refresh, not wait for it")
	}

	close(release)
	if err := <-refreshDone; err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}
}

func TestRefreshIdempotent(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	first, err := uc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := uc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.TotalItems != second.TotalItems || first.IndexedItems != second.IndexedItems {
		t.Errorf("repeated refresh over an unchanged catalog must report the same counts: %+v vs %+v", first, second)
	}

	status := uc.Status(context.Background())
	if status.State != "ready" {
		t.Errorf("expected ready state, got %s", status.State)
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	if _, err := uc.SearchByImage(context.Background(), queryReq()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	catalog.set(nil, errors.New("connection reset"))

	if _, err := uc.Refresh(context.Background()); !errors.Is(err, e.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	status := uc.Status(context.Background())
	if status.State != "ready" {
		t.Errorf("expected ready state after failed refresh, got %s", status.State)
	}

	results, err := uc.SearchByImage(context.Background(), queryReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("previous snapshot must keep serving, got %d results", len(results))
	}
}

func TestStatusHasNoSideEffects(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	status := uc.Status(context.Background())
	if status.State != "uninitialized" {
		t.Errorf("expected uninitialized, got %s", status.State)
	}
	if status.ModelLoaded {
		t.Error("status must not trigger model load")
	}
	if got := catalog.calls.Load(); got != 0 {
		t.Errorf("status must not load the catalog, got %d calls", got)
	}
}

func TestHealthcheckDoesNotTouchModel(t *testing.T) {
	catalog := &fakeCatalogRepo{items: testItems()}
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	if err := uc.Healthcheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ml.Loaded() {
		t.Error("healthcheck must not load the model")
	}
}

func TestHealthcheckStoreUnavailable(t *testing.T) {
	catalog := &fakeCatalogRepo{}
	catalog.set(nil, errors.New("no reachable servers"))
	ml := &fakeML{vectors: testVectors()}
	images := &fakeImages{}

	uc := newTestUC(catalog, ml, images, nil, true)

	if err := uc.Healthcheck(context.Background()); !errors.Is(err, e.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}
