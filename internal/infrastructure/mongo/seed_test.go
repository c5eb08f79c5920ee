package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/menu"
)

// seedMenu replaces the catalog with items. Prices are stored as doubles,
// the same shape the storefront's catalog has always used.
func seedMenu(ctx context.Context, db *mongo.Database, collection string, items []menu.Item) (int, error) {
	coll := db.Collection(collection)
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, fmt.Errorf("menu clear: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	docs := make([]any, 0, len(items))
	for _, it := range items {
		price, _ := it.Price.Float64()
		doc := bson.D{
			{Key: "name", Value: it.Name},
			{Key: "description", Value: it.Description},
			{Key: "price", Value: price},
			{Key: "image", Value: it.Image},
			{Key: "category", Value: it.Category},
		}
		if it.ID != "" {
			doc = append(bson.D{{Key: "_id", Value: it.ID}}, doc...)
		}
		if it.Available != nil {
			doc = append(doc, bson.E{Key: "available", Value: *it.Available})
		}
		docs = append(docs, doc)
	}

	res, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("menu insert: %w", err)
	}
	return len(res.InsertedIDs), nil
}
