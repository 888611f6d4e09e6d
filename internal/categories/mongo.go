package categories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trackadmission/go-services/internal/database"
)

// MongoRepo stores categories in the "categories" collection.
type MongoRepo struct {
	col *database.Collection
}

func NewMongoRepo(col *database.Collection) *MongoRepo { return &MongoRepo{col: col} }

func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return m.col.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "metadata.displayOrder", Value: 1}, {Key: "name", Value: 1}}},
	})
}

func (m *MongoRepo) List(ctx context.Context) ([]Category, error) {
	out := []Category{}
	opts := options.Find().SetSort(bson.D{{Key: "metadata.displayOrder", Value: 1}, {Key: "name", Value: 1}})
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		list := []Category{}
		if err := cur.All(ctx, &list); err != nil {
			return err
		}
		out = list
		return nil
	})
	return out, err
}

func (m *MongoRepo) Insert(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	stored, err := database.ObjectIDDoc(c)
	if err != nil {
		return err
	}
	return m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		_, err := col.InsertOne(ctx, stored)
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	})
}

func (m *MongoRepo) Update(ctx context.Context, id string, in Input, now time.Time) (*Category, error) {
	update := bson.M{"$set": bson.M{
		"name":        in.Name,
		"slug":        in.Slug,
		"description": in.Description,
		"metadata":    in.Metadata,
		"updatedAt":   now,
	}}
	var c Category
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return col.FindOneAndUpdate(ctx, database.IDFilter(id), update, opts).Decode(&c)
	})
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicate
	case err != nil:
		return nil, err
	}
	return &c, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	return m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		res, err := col.DeleteOne(ctx, database.IDFilter(id))
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}
