package database

import (
	"context"
	"log"
	"time"

	"go-dashboards/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/fx"
)

const (
	connectTimeout = 10 * time.Second
	maxPoolSize    = 200
)

// MongodbDB wraps the application database handle shared by all repositories.
type MongodbDB struct {
	DB *mongo.Database
}

// NewDatabase connects to MongoDB and disconnects when the app stops.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.AppId).
		SetMaxPoolSize(maxPoolSize).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	db := &MongodbDB{DB: client.Database(cfg.DBName)}
	if err := db.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	log.Printf("Connected to MongoDB database %q", cfg.DBName)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting from MongoDB...")
			return client.Disconnect(ctx)
		},
	})

	return db, nil
}

// Ping checks that the primary is reachable.
func (m *MongodbDB) Ping(ctx context.Context) error {
	return m.DB.Client().Ping(ctx, readpref.Primary())
}
