package converter

import (
	"fmt"
	"time"

	"github.com/DRSN-tech/image-search/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemConverter нормализует сырые документы каталога в доменную модель.
// Коллекция наполняется внешними загрузчиками, поэтому форма полей плавает:
// цена бывает числом, строкой или Decimal128, категория — строкой,
// ObjectID или вложенным документом.
type ItemConverter interface {
	ToEntity(raw bson.Raw) (*domain.Item, error)
}

type itemConverter struct{}

func NewItemConverter() ItemConverter {
	return &itemConverter{}
}

func (c *itemConverter) ToEntity(raw bson.Raw) (*domain.Item, error) {
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	id, err := stringID(doc["_id"])
	if err != nil {
		return nil, err
	}

	name, ok := doc["productName"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("document %s: missing productName", id)
	}

	price, err := toFloat(doc["productPrice"])
	if err != nil {
		return nil, fmt.Errorf("document %s: productPrice: %w", id, err)
	}

	item := &domain.Item{
		ID:       id,
		Name:     name,
		Price:    price,
		Category: toCategory(doc["productCategory"]),
	}

	if v, ok := doc["productImage"].(string); ok {
		item.ImageURL = v
	}
	if v, err := toFloat(doc["productSize"]); err == nil && doc["productSize"] != nil {
		item.Size = &v
	}
	if v, ok := doc["productDescription"].(string); ok {
		item.Description = &v
	}
	if v, err := toFloat(doc["averageRating"]); err == nil && doc["averageRating"] != nil {
		item.AverageRating = &v
	}
	if v, err := toInt(doc["totalRatings"]); err == nil && doc["totalRatings"] != nil {
		item.TotalRatings = &v
	}
	if v, ok := toTime(doc["createdAt"]); ok {
		item.CreatedAt = &v
	}
	if v, ok := toTime(doc["updatedAt"]); ok {
		item.UpdatedAt = &v
	}

	return item, nil
}

func stringID(v any) (string, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		if id == "" {
			return "", fmt.Errorf("empty _id")
		}
		return id, nil
	default:
		return "", fmt.Errorf("unsupported _id type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", n, err)
		}
		return d.InexactFloat64(), nil
	case primitive.Decimal128:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return 0, fmt.Errorf("parse decimal128 %q: %w", n.String(), err)
		}
		return d.InexactFloat64(), nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unsupported integer type %T", v)
	}
}

// toCategory принимает строку, ObjectID или вложенный документ с полем name.
func toCategory(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case primitive.ObjectID:
		return c.Hex()
	case bson.M:
		if name, ok := c["name"].(string); ok {
			return name
		}
		if name, ok := c["categoryName"].(string); ok {
			return name
		}
		return ""
	default:
		return ""
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC(), true
	case time.Time:
		return t.UTC(), true
	default:
		return time.Time{}, false
	}
}
