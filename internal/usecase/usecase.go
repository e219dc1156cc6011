package usecase

import (
	"context"

	"github.com/DRSN-tech/image-search/internal/domain"
)

type SearchUC interface {
	SearchByImage(ctx context.Context, req *SearchByImageReq) ([]domain.SearchResult, error)
	SearchByURL(ctx context.Context, req *SearchByURLReq) ([]domain.SearchResult, error)
	Refresh(ctx context.Context) (*RefreshRes, error)
	Status(ctx context.Context) *StatusRes
	Healthcheck(ctx context.Context) error
}
