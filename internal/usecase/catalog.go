package usecase

import (
	"context"
	"sync"

	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/pkg/e"
)

// catalogSnapshot — неизменяемый снимок каталога. Снимок собирается целиком и
// публикуется атомарной заменой указателя, поэтому читатели никогда не видят
// частично перестроенный кэш.
type catalogSnapshot struct {
	items      []domain.Item               // кандидаты с изображениями, в порядке выдачи хранилища
	embeddings map[string]domain.Embedding // предвычисленные эмбеддинги (только eager-режим)
}

func (s *catalogSnapshot) total() int {
	return len(s.items)
}

func (s *catalogSnapshot) indexed() int {
	return len(s.embeddings)
}

// candidates возвращает кандидатов с валидными эмбеддингами,
// сохраняя исходный порядок товаров.
func (s *catalogSnapshot) candidates() []candidate {
	result := make([]candidate, 0, len(s.embeddings))
	for _, item := range s.items {
		emb, ok := s.embeddings[item.ID]
		if !ok {
			continue
		}

		result = append(result, candidate{item: item, embedding: emb})
	}

	return result
}

// buildSnapshot собирает новый снимок каталога из текущего состояния хранилища.
// В eager-режиме для каждого товара вычисляется эмбеддинг; товары, изображение
// которых не удалось получить или векторизовать, пропускаются с записью в лог.
func (s *SearchUseCase) buildSnapshot(ctx context.Context) (*catalogSnapshot, error) {
	const op = "SearchUseCase.buildSnapshot"

	items, err := s.catalogRepo.ItemsWithImages(ctx, s.searchCfg.MaxItems)
	if err != nil {
		return nil, e.Wrap(op, e.Wrap(err.Error(), e.ErrStoreUnavailable))
	}

	snap := &catalogSnapshot{items: items}

	if !s.searchCfg.CacheEmbeddings {
		s.logger.Infof("catalog loaded: %d items, embeddings will be computed on demand", len(items))
		return snap, nil
	}

	if err := s.ml.EnsureLoaded(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	embeddings := s.embedItems(ctx, items)

	snap.embeddings = make(map[string]domain.Embedding, len(items))
	for i, emb := range embeddings {
		if emb == nil {
			continue
		}

		snap.embeddings[items[i].ID] = emb
	}

	s.logger.Infof("catalog indexed: %d/%d items", snap.indexed(), snap.total())
	return snap, nil
}

// embedItems параллельно (с ограничением конкурентности) получает и векторизует
// изображения товаров. Позиция в результате соответствует позиции товара;
// для неудавшихся товаров остается nil.
func (s *SearchUseCase) embedItems(ctx context.Context, items []domain.Item) []domain.Embedding {
	const op = "SearchUseCase.embedItems"

	embeddings := make([]domain.Embedding, len(items))
	sem := make(chan struct{}, s.maxConcurrent)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item domain.Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			image, err := s.images.Fetch(ctx, item.ImageURL)
			if err != nil {
				s.logger.Warnf("skipping item %s: %v", item.ID, e.Wrap(op, err))
				return
			}

			emb, err := s.ml.Vectorize(ctx, image)
			if err != nil {
				s.logger.Warnf("skipping item %s: %v", item.ID, e.Wrap(op, err))
				return
			}

			embeddings[i] = emb
		}(i, item)
	}
	wg.Wait()

	return embeddings
}
