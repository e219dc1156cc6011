package usecase

// SEARCH USECASE

// SearchByImageReq — запрос поиска по загруженным байтам изображения.
// TopK и Threshold опциональны: при nil берутся значения из конфигурации.
type SearchByImageReq struct {
	Data      []byte
	TopK      *int
	Threshold *float64
}

// SearchByURLReq — запрос поиска по URL изображения.
type SearchByURLReq struct {
	URL       string
	TopK      *int
	Threshold *float64
}

// RefreshRes — результат перестроения индекса каталога.
type RefreshRes struct {
	TotalItems   int // количество товаров-кандидатов с изображениями
	IndexedItems int // количество успешно проиндексированных эмбеддингов (0 в on-demand режиме)
}

// StatusRes — снимок состояния поисковой подсистемы для /status.
type StatusRes struct {
	State        string
	ModelLoaded  bool
	CacheMode    string
	TotalItems   int
	IndexedItems int
}

// INFRASTRUCTURE

// IndexRefreshedEvent — событие завершения перестроения индекса для внешних потребителей.
type IndexRefreshedEvent struct {
	EventID      string `json:"event_id"`
	Timestamp    int64  `json:"event_timestamp"`
	TotalItems   int    `json:"total_items"`
	IndexedItems int    `json:"indexed_items"`
	CacheMode    string `json:"cache_mode"`
}

// MAPPERS

func NewSearchByImageReq(data []byte, topK *int, threshold *float64) *SearchByImageReq {
	return &SearchByImageReq{
		Data:      data,
		TopK:      topK,
		Threshold: threshold,
	}
}

func NewSearchByURLReq(url string, topK *int, threshold *float64) *SearchByURLReq {
	return &SearchByURLReq{
		URL:       url,
		TopK:      topK,
		Threshold: threshold,
	}
}

func NewRefreshRes(totalItems, indexedItems int) *RefreshRes {
	return &RefreshRes{
		TotalItems:   totalItems,
		IndexedItems: indexedItems,
	}
}

func NewIndexRefreshedEvent(eventID string, timestamp int64, totalItems, indexedItems int, cacheMode string) *IndexRefreshedEvent {
	return &IndexRefreshedEvent{
		EventID:      eventID,
		Timestamp:    timestamp,
		TotalItems:   totalItems,
		IndexedItems: indexedItems,
		CacheMode:    cacheMode,
	}
}
