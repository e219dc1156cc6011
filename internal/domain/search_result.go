package domain

// SearchResult — один элемент ранжированной выдачи поиска по изображению.
// Score — косинусная близость к запросу, Rank — плотный 1-based ранг в выдаче.
type SearchResult struct {
	Item  Item
	Score float64
	Rank  int
}

func NewSearchResult(item Item, score float64, rank int) SearchResult {
	return SearchResult{
		Item:  item,
		Score: score,
		Rank:  rank,
	}
}
