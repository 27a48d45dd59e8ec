package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
)

// AccountsCollection holds one document per account.
const AccountsCollection = "accounts"

func (m *Manager) openMongo(ctx context.Context) (*mongo.Database, error) {
	connectCtx, cancel := m.connectContext(ctx)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(m.config.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongodb: %w", err)
	}

	name := mongoDatabaseName(m.config.DSN, m.config.Name)
	db := client.Database(name)
	if err := ensureMongoIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	m.logger.Info("connected to mongodb", zap.String("database", name))
	return db, nil
}

// mongoDatabaseName prefers the database named in the URI path, as in
// mongodb://host/gatekeep, over database.name.
func mongoDatabaseName(uri, fallback string) string {
	cs, err := connstring.Parse(uri)
	if err != nil || cs.Database == "" {
		return fallback
	}
	return cs.Database
}

func ensureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(AccountsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func closeMongo(db *mongo.Database) error {
	return db.Client().Disconnect(context.Background())
}
