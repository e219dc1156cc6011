package usecase

import (
	"sort"

	"github.com/DRSN-tech/image-search/internal/domain"
)

// candidate — товар с уже вычисленным эмбеддингом, участвующий в ранжировании.
type candidate struct {
	item      domain.Item
	embedding domain.Embedding
}

// rankCandidates ранжирует кандидатов по косинусной близости к запросу.
// Кандидаты ниже порога отбрасываются, сортировка по убыванию близости стабильна:
// при равных оценках сохраняется исходный порядок кандидатов, что гарантирует
// воспроизводимость выдачи. Результат усечен до topK, ранги плотные, с единицы.
func rankCandidates(query domain.Embedding, candidates []candidate, topK int, threshold float64) []domain.SearchResult {
	scored := make([]domain.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		score := query.Dot(c.embedding)
		if score < threshold {
			continue
		}

		scored = append(scored, domain.NewSearchResult(c.item, score, 0))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	for i := range scored {
		scored[i].Rank = i + 1
	}

	return scored
}
