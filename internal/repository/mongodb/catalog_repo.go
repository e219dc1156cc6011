package mongodb

import (
	"context"

	"github.com/DRSN-tech/image-search/internal/cfg"
	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/DRSN-tech/image-search/internal/repository/mongodb/converter"
	"github.com/DRSN-tech/image-search/pkg/e"
	"github.com/DRSN-tech/image-search/pkg/logger"
	"github.com/jimlawless/whereami"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// CatalogRepo реализует репозиторий каталога поверх MongoDB.
type CatalogRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	conv   converter.ItemConverter
	logger logger.Logger
}

func NewCatalogRepo(client *mongo.Client, cfg *cfg.MongoCfg, conv converter.ItemConverter, logger logger.Logger) *CatalogRepo {
	return &CatalogRepo{
		client: client,
		coll:   client.Database(cfg.DBName).Collection(cfg.Collection),
		conv:   conv,
		logger: logger,
	}
}

// ItemsWithImages возвращает товары с непустой ссылкой на изображение.
// Документы, которые не удалось нормализовать, пропускаются с записью в лог.
func (r *CatalogRepo) ItemsWithImages(ctx context.Context, limit int) ([]domain.Item, error) {
	filter := bson.M{
		"productImage": bson.M{"$exists": true, "$nin": bson.A{nil, ""}},
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer cursor.Close(ctx)

	var items []domain.Item
	for cursor.Next(ctx) {
		item, err := r.conv.ToEntity(cursor.Current)
		if err != nil {
			r.logger.Warnf("skipping malformed catalog document: %v", err)
			continue
		}

		items = append(items, *item)
	}
	if err := cursor.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if limit > 0 {
		r.logger.Infof("retrieved %d items with images (limited to %d)", len(items), limit)
	} else {
		r.logger.Infof("retrieved %d items with images", len(items))
	}

	return items, nil
}

func (r *CatalogRepo) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
