package mongo

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
)

type menuDocument struct {
	ID          bson.RawValue `bson:"_id"`
	Name        string        `bson:"name"`
	Description string        `bson:"description"`
	Price       bson.RawValue `bson:"price"`
	Image       string        `bson:"image"`
	Category    string        `bson:"category"`
	Available   *bool         `bson:"available,omitempty"`
}

// MenuRepository reads the catalog collection.
type MenuRepository struct {
	coll *mongo.Collection
}

var _ menu.Repository = (*MenuRepository)(nil)

func NewMenuRepository(db *mongo.Database, collection string) *MenuRepository {
	return &MenuRepository{coll: db.Collection(collection)}
}

func (r *MenuRepository) All(ctx context.Context) ([]menu.Item, error) {
	cur, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("menu find: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]menu.Item, 0)
	for cur.Next(ctx) {
		var doc menuDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("menu decode: %w", err)
		}
		it, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("menu cursor: %w", err)
	}
	return items, nil
}

func (d menuDocument) toDomain() (menu.Item, error) {
	id, err := idString(d.ID)
	if err != nil {
		return menu.Item{}, err
	}
	price, err := priceDecimal(d.Price)
	if err != nil {
		return menu.Item{}, fmt.Errorf("menu item %s: %w", id, err)
	}
	return menu.Item{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Image:       d.Image,
		Category:    d.Category,
		Available:   d.Available,
	}, nil
}

// idString accepts ObjectID and string ids.
func idString(v bson.RawValue) (string, error) {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex(), nil
	}
	if s, ok := v.StringValueOK(); ok {
		return s, nil
	}
	return "", fmt.Errorf("menu item: unsupported _id type %s", v.Type)
}

// priceDecimal reads a price stored as double, int, Decimal128 or string.
func priceDecimal(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case bsontype.Double:
		return decimal.NewFromFloat(v.Double()), nil
	case bsontype.Int32:
		return decimal.NewFromInt32(v.Int32()), nil
	case bsontype.Int64:
		return decimal.NewFromInt(v.Int64()), nil
	case bsontype.Decimal128:
		return decimal.NewFromString(v.Decimal128().String())
	case bsontype.String:
		return decimal.NewFromString(v.StringValue())
	case bsontype.Null, bsontype.Type(0):
		return decimal.Zero, nil
	}
	return decimal.Decimal{}, fmt.Errorf("unsupported price type %s", v.Type)
}
