package http

import (
	"time"

	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/internal/usecase"
)

// ProductResponse — представление товара каталога в ответе API.
// Имена полей повторяют форму документов каталога.
type ProductResponse struct {
	ID                 string     `json:"id"`
	ProductName        string     `json:"productName"`
	ProductPrice       float64    `json:"productPrice"`
	ProductImage       string     `json:"productImage"`
	ProductCategory    string     `json:"productCategory,omitempty"`
	ProductSize        *float64   `json:"productSize,omitempty"`
	ProductDescription *string    `json:"productDescription,omitempty"`
	AverageRating      *float64   `json:"averageRating,omitempty"`
	TotalRatings       *int64     `json:"totalRatings,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

// SearchResultResponse — один результат поиска с оценкой близости и рангом.
type SearchResultResponse struct {
	Product         ProductResponse `json:"product"`
	SimilarityScore float64         `json:"similarity_score"`
	Rank            int             `json:"rank"`
}

// RefreshResponse — ответ на перестроение индекса.
type RefreshResponse struct {
	Message      string `json:"message"`
	TotalItems   int    `json:"total_items"`
	IndexedItems int    `json:"indexed_items"`
}

// StatusResponse — состояние поисковой подсистемы.
type StatusResponse struct {
	State        string `json:"state"`
	ModelLoaded  bool   `json:"model_loaded"`
	CacheMode    string `json:"cache_mode"`
	TotalItems   int    `json:"total_items"`
	IndexedItems int    `json:"indexed_items"`
}

// HealthResponse — ответ проверки живости.
type HealthResponse struct {
	Status string `json:"status"`
}

// MAPPERS

func toProductResponse(item *domain.Item) ProductResponse {
	return ProductResponse{
		ID:                 item.ID,
		ProductName:        item.Name,
		ProductPrice:       item.Price,
		ProductImage:       item.ImageURL,
		ProductCategory:    item.Category,
		ProductSize:        item.Size,
		ProductDescription: item.Description,
		AverageRating:      item.AverageRating,
		TotalRatings:       item.TotalRatings,
		CreatedAt:          item.CreatedAt,
		UpdatedAt:          item.UpdatedAt,
	}
}

// toSearchResponse всегда возвращает непустой срез: пустой результат
// сериализуется как [], а не null.
func toSearchResponse(results []domain.SearchResult) []SearchResultResponse {
	arr := make([]SearchResultResponse, 0, len(results))
	for i := range results {
		arr = append(arr, SearchResultResponse{
			Product:         toProductResponse(&results[i].Item),
			SimilarityScore: results[i].Score,
			Rank:            results[i].Rank,
		})
	}

	return arr
}

func toRefreshResponse(res *usecase.RefreshRes) *RefreshResponse {
	return &RefreshResponse{
		Message:      "index refreshed",
		TotalItems:   res.TotalItems,
		IndexedItems: res.IndexedItems,
	}
}

func toStatusResponse(res *usecase.StatusRes) *StatusResponse {
	return &StatusResponse{
		State:        res.State,
		ModelLoaded:  res.ModelLoaded,
		CacheMode:    res.CacheMode,
		TotalItems:   res.TotalItems,
		IndexedItems: res.IndexedItems,
	}
}
