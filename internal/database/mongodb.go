package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trackadmission/go-services/internal/config"
)

// PoolOptions bounds the driver's connection pool and network timeouts.
type PoolOptions struct {
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	HeartbeatInterval      time.Duration
	MaxConnIdleTime        time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
	MaxConnecting          uint64
}

// PoolOptionsFromConfig maps the MongoDB config block onto driver pool options.
func PoolOptionsFromConfig(c config.MongoDBConfig) PoolOptions {
	return PoolOptions{
		ConnectTimeout:         c.Timeout,
		ServerSelectionTimeout: c.ServerSelectionTimeout,
		SocketTimeout:          c.SocketTimeout,
		HeartbeatInterval:      c.HeartbeatInterval,
		MaxConnIdleTime:        c.MaxConnIdleTime,
		MaxPoolSize:            c.MaxPoolSize,
		MinPoolSize:            c.MinPoolSize,
		MaxConnecting:          c.MaxConnecting,
	}
}

// OptionsFromConfig maps the retry and keep-alive settings onto manager options.
func OptionsFromConfig(c config.MongoDBConfig) Options {
	return Options{
		MaxRetries:     c.MaxRetries,
		BaseDelay:      c.RetryBaseDelay,
		AttemptTimeout: c.Timeout,
		PingInterval:   c.PingInterval,
		StalePingAfter: c.StalePingAfter,
	}
}

func (p PoolOptions) clientOptions(uri string) *options.ClientOptions {
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	if p.ConnectTimeout > 0 {
		opts.SetConnectTimeout(p.ConnectTimeout)
	}
	if p.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(p.ServerSelectionTimeout)
	}
	if p.SocketTimeout > 0 {
		opts.SetSocketTimeout(p.SocketTimeout)
	}
	if p.HeartbeatInterval > 0 {
		opts.SetHeartbeatInterval(p.HeartbeatInterval)
	}
	if p.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(p.MaxConnIdleTime)
	}
	if p.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(p.MaxPoolSize)
	}
	if p.MinPoolSize > 0 {
		opts.SetMinPoolSize(p.MinPoolSize)
	}
	if p.MaxConnecting > 0 {
		opts.SetMaxConnecting(p.MaxConnecting)
	}
	return opts
}

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, pool PoolOptions) (*mongo.Client, error) {
	if pool.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pool.ConnectTimeout)
		defer cancel()
	}
	client, err := mongo.Connect(ctx, pool.clientOptions(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// MongoDialer dials a MongoDB deployment for the connection manager.
type MongoDialer struct {
	URI  string
	Pool PoolOptions
}

func (d *MongoDialer) Dial(ctx context.Context) (Conn, error) {
	client, err := ConnectMongo(ctx, d.URI, d.Pool)
	if err != nil {
		return nil, err
	}
	return &mongoConn{client: client}, nil
}

type mongoConn struct {
	client *mongo.Client
}

// Ping runs the lightweight admin "ping" command.
func (c *mongoConn) Ping(ctx context.Context) error {
	return c.client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (c *mongoConn) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *mongoConn) Database(name string) *mongo.Database {
	return c.client.Database(name)
}
