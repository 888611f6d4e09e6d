package leads

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trackadmission/go-services/internal/database"
)

// MongoRepo stores leads in the "forms" collection.
type MongoRepo struct {
	col *database.Collection
}

func NewMongoRepo(col *database.Collection) *MongoRepo { return &MongoRepo{col: col} }

func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return m.col.EnsureIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "phone", Value: 1}}},
	})
}

func (m *MongoRepo) Insert(ctx context.Context, l *Lead) error {
	if l.ID == "" {
		l.ID = primitive.NewObjectID().Hex()
	}
	stored, err := database.ObjectIDDoc(l)
	if err != nil {
		return err
	}
	return m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		_, err := col.InsertOne(ctx, stored)
		return err
	})
}

func (m *MongoRepo) List(ctx context.Context, status Status, skip, limit int) ([]Lead, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))
	var (
		out   []Lead
		total int64
	)
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		n, err := col.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		cur, err := col.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		list := []Lead{}
		if err := cur.All(ctx, &list); err != nil {
			return err
		}
		out, total = list, n
		return nil
	})
	return out, total, err
}

func (m *MongoRepo) SetStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	var l Lead
	err := m.col.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		return col.FindOneAndUpdate(ctx, database.IDFilter(id), bson.M{"$set": bson.M{"status": status}}, opts).Decode(&l)
	})
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
