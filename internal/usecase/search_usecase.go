package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/google/uuid"
)

// Состояния жизненного цикла поисковой подсистемы.
// После первого успешного перехода в stateReady подсистема возвращается
// в stateInitializing только на время refresh и никогда — в stateUninitialized.
const (
	stateUninitialized int32 = iota
	stateInitializing
	stateReady
)

func stateString(state int32) string {
	switch state {
	case stateInitializing:
		return "initializing"
	case stateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// SearchUseCase реализует поиск похожих товаров по изображению.
// Инициализация ленивая: каталог загружается при первом поисковом запросе или refresh.
type SearchUseCase struct {
	catalogRepo   CatalogRepository
	ml            MlServiceInfra
	images        ImagesInfra
	events        EventsInfra // может быть nil
	searchCfg     *cfg.SearchCfg
	maxConcurrent int
	logger        logger.Logger

	// initMu сериализует инициализацию и refresh: конкурентные первые вызовы
	// выполняют ровно одну сборку каталога, остальные ждут ее завершения.
	initMu   sync.Mutex
	state    atomic.Int32
	snapshot atomic.Pointer[catalogSnapshot]
}

func NewSearchUC(
	catalogRepo CatalogRepository,
	ml MlServiceInfra,
	images ImagesInfra,
	events EventsInfra,
	searchCfg *cfg.SearchCfg,
	maxConcurrent int,
	logger logger.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		catalogRepo:   catalogRepo,
		ml:            ml,
		images:        images,
		events:        events,
		searchCfg:     searchCfg,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// SearchByImage ищет похожие товары по байтам загруженного изображения.
// Сбои пайплайна (декодирование, векторизация) не являются ошибкой операции:
// они логируются, а вызывающему возвращается пустая выдача.
func (s *SearchUseCase) SearchByImage(ctx context.Context, req *SearchByImageReq) ([]domain.SearchResult, error) {
	const op = "SearchUseCase.SearchByImage"

	if err := s.ensureReady(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	image, err := s.images.Prepare(req.Data)
	if err != nil {
		s.logger.Errorf(e.Wrap(op, err), "failed to prepare query image")
		return []domain.SearchResult{}, nil
	}

	query, err := s.ml.Vectorize(ctx, image)
	if err != nil {
		s.logger.Errorf(e.Wrap(op, err), "failed to vectorize query image")
		return []domain.SearchResult{}, nil
	}

	topK, threshold := s.resolveParams(req.TopK, req.Threshold)
	return s.rank(ctx, query, topK, threshold), nil
}

// SearchByURL ищет похожие товары по URL изображения.
func (s *SearchUseCase) SearchByURL(ctx context.Context, req *SearchByURLReq) ([]domain.SearchResult, error) {
	const op = "SearchUseCase.SearchByURL"

	if err := s.ensureReady(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	image, err := s.images.Fetch(ctx, req.URL)
	if err != nil {
		s.logger.Errorf(e.Wrap(op, err), "failed to fetch query image: %s", req.URL)
		return []domain.SearchResult{}, nil
	}

	query, err := s.ml.Vectorize(ctx, image)
	if err != nil {
		s.logger.Errorf(e.Wrap(op, err), "failed to vectorize query image")
		return []domain.SearchResult{}, nil
	}

	topK, threshold := s.resolveParams(req.TopK, req.Threshold)
	return s.rank(ctx, query, topK, threshold), nil
}

// Refresh полностью перестраивает снимок каталога по текущему состоянию хранилища.
// Поисковые запросы во время перестроения обслуживаются прежним снимком;
// новый публикуется атомарно после полной сборки. При ошибке прежний снимок
// остается действующим.
func (s *SearchUseCase) Refresh(ctx context.Context) (*RefreshRes, error) {
	const op = "SearchUseCase.Refresh"

	s.initMu.Lock()
	defer s.initMu.Unlock()

	prev := s.state.Load()
	s.state.Store(stateInitializing)

	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		if prev == stateReady {
			s.state.Store(stateReady)
		} else {
			s.state.Store(stateUninitialized)
		}

		return nil, e.Wrap(op, err)
	}

	s.snapshot.Store(snap)
	s.state.Store(stateReady)

	res := NewRefreshRes(snap.total(), snap.indexed())
	s.publishRefreshEvent(ctx, res)

	return res, nil
}

// Status возвращает состояние подсистемы. Не инициирует ни загрузку модели,
// ни инициализацию каталога.
func (s *SearchUseCase) Status(_ context.Context) *StatusRes {
	var total, indexed int
	if snap := s.snapshot.Load(); snap != nil {
		total = snap.total()
		indexed = snap.indexed()
	}

	return &StatusRes{
		State:        stateString(s.state.Load()),
		ModelLoaded:  s.ml.Loaded(),
		CacheMode:    s.cacheMode(),
		TotalItems:   total,
		IndexedItems: indexed,
	}
}

// Healthcheck проверяет доступность хранилища каталога. Модель не затрагивается.
func (s *SearchUseCase) Healthcheck(ctx context.Context) error {
	const op = "SearchUseCase.Healthcheck"

	if err := s.catalogRepo.Ping(ctx); err != nil {
		return e.Wrap(op, e.Wrap(err.Error(), e.ErrStoreUnavailable))
	}

	return nil
}

// ensureReady выполняет ленивую инициализацию ровно один раз при конкурентном
// первом доступе. Неудачная инициализация возвращает подсистему в исходное
// состояние и может быть повторена следующим вызовом.
// Опубликованный снимок означает готовность к поиску даже во время идущего
// refresh: такие запросы обслуживаются прежним снимком и не ждут перестроения.
func (s *SearchUseCase) ensureReady(ctx context.Context) error {
	if s.snapshot.Load() != nil {
		return nil
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.snapshot.Load() != nil {
		return nil
	}

	s.state.Store(stateInitializing)

	snap, err := s.buildSnapshot(ctx)
	if err != nil {
		s.state.Store(stateUninitialized)
		return err
	}

	s.snapshot.Store(snap)
	s.state.Store(stateReady)

	return nil
}

// rank вычисляет выдачу для уже готового вектора запроса.
// Пустая выдача — валидный результат, а не ошибка.
func (s *SearchUseCase) rank(ctx context.Context, query domain.Embedding, topK int, threshold float64) []domain.SearchResult {
	snap := s.snapshot.Load()
	if snap == nil || snap.total() == 0 {
		s.logger.Warnf("no catalog items available for comparison")
		return []domain.SearchResult{}
	}

	var candidates []candidate
	if s.searchCfg.CacheEmbeddings {
		candidates = snap.candidates()
	} else {
		candidates = s.onDemandCandidates(ctx, snap)
	}

	results := rankCandidates(query, candidates, topK, threshold)
	s.logger.Infof("found %d similar items (top_k: %d, threshold: %g)", len(results), topK, threshold)

	return results
}

// onDemandCandidates вычисляет эмбеддинги кандидатов на время одного запроса,
// ничего не сохраняя между запросами. Кандидаты, эмбеддинг которых получить
// не удалось, молча исключаются из ранжирования.
func (s *SearchUseCase) onDemandCandidates(ctx context.Context, snap *catalogSnapshot) []candidate {
	embeddings := s.embedItems(ctx, snap.items)

	candidates := make([]candidate, 0, len(snap.items))
	for i, emb := range embeddings {
		if emb == nil {
			continue
		}

		candidates = append(candidates, candidate{item: snap.items[i], embedding: emb})
	}

	return candidates
}

func (s *SearchUseCase) resolveParams(topK *int, threshold *float64) (int, float64) {
	k := s.searchCfg.TopK
	if topK != nil {
		k = *topK
	}

	t := s.searchCfg.Threshold
	if threshold != nil {
		t = *threshold
	}

	return k, t
}

func (s *SearchUseCase) cacheMode() string {
	if s.searchCfg.CacheEmbeddings {
		return "eager"
	}

	return "on_demand"
}

func (s *SearchUseCase) publishRefreshEvent(ctx context.Context, res *RefreshRes) {
	if s.events == nil {
		return
	}

	event := NewIndexRefreshedEvent(
		uuid.NewString(),
		time.Now().UTC().UnixNano(),
		res.TotalItems,
		res.IndexedItems,
		s.cacheMode(),
	)

	if err := s.events.PublishIndexRefreshed(ctx, event); err != nil {
		s.logger.Warnf("failed to publish index refreshed event: %v", err)
	}
}
