package trending

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trackadmission/go-services/internal/database"
)

// MongoRepo stores entries in the "trendings" collection.
type MongoRepo struct {
	col *database.Collection
}

func NewMongoRepo(col *database.Collection) *MongoRepo { return &MongoRepo{col: col} }

func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return m.col.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
	})
}

func (m *MongoRepo) Insert(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = primitive.NewObjectID().Hex()
	}
	stored, err := database.ObjectIDDoc(e, "blogId")
	if err != nil {
		return err
	}
	return m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		_, err := col.InsertOne(ctx, stored)
		return err
	})
}

// Trim keeps the newest max entries. Ids break createdAt ties since ObjectIDs grow over time.
func (m *MongoRepo) Trim(ctx context.Context, max int) (int, error) {
	var removed int
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
			SetSkip(int64(max)).
			SetProjection(bson.M{"_id": 1})
		cur, err := col.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		var stale []struct {
			ID string `bson:"_id"`
		}
		if err := cur.All(ctx, &stale); err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		ids := make([]string, len(stale))
		for i, s := range stale {
			ids[i] = s.ID
		}
		res, err := col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": database.IDValues(ids)}})
		if err != nil {
			return err
		}
		removed = int(res.DeletedCount)
		return nil
	})
	return removed, err
}

func (m *MongoRepo) List(ctx context.Context) ([]Entry, error) {
	out := []Entry{}
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		cur, err := col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "position", Value: -1}}))
		if err != nil {
			return err
		}
		list := []Entry{}
		if err := cur.All(ctx, &list); err != nil {
			return err
		}
		out = list
		return nil
	})
	return out, err
}

func (m *MongoRepo) Upsert(ctx context.Context, e *Entry) error {
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	update := bson.M{
		"$set":         bson.M{"blogId": database.IDValue(e.BlogID), "position": e.Position, "updatedAt": e.UpdatedAt},
		"$setOnInsert": bson.M{"createdAt": created},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	return m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		var got Entry
		if err := col.FindOneAndUpdate(ctx, database.IDFilter(e.ID), update, opts).Decode(&got); err != nil {
			return err
		}
		*e = got
		return nil
	})
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
