package database

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// Collection binds a named collection to the Manager so repositories never
// hold a raw client. Every call goes through WithConnection.
type Collection struct {
	m    *Manager
	db   string
	name string
}

// Collection returns a handle for db.name resolved on each call.
func (m *Manager) Collection(db, name string) *Collection {
	return &Collection{m: m, db: db, name: name}
}

func (c *Collection) Name() string { return c.name }

// Do runs fn against the live collection, reconnecting once if the connection drops.
func (c *Collection) Do(ctx context.Context, fn func(ctx context.Context, col *mongo.Collection) error) error {
	return c.m.WithConnection(ctx, func(ctx context.Context, conn Conn) error {
		return fn(ctx, conn.Database(c.db).Collection(c.name))
	})
}

// EnsureIndexes creates the given indexes. Existing identical indexes are left alone.
func (c *Collection) EnsureIndexes(ctx context.Context, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	return c.Do(ctx, func(ctx context.Context, col *mongo.Collection) error {
		_, err := col.Indexes().CreateMany(ctx, models)
		return err
	})
}
