// internal/infrastructure/database/mongodb/connection.go
package mongodb

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps the MongoDB client and the catalog database
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// NewConnection connects to MongoDB and verifies the primary is reachable
func NewConnection(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.WithField("database", cfg.Mongo.Database).Info("MongoDB connection established")
	return &Client{client: client, database: client.Database(cfg.Mongo.Database)}, nil
}

// Database returns the catalog database
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Health pings the primary
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
