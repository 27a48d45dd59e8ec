package account

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/config"
	"github.com/elskow/gatekeep/internal/database"
)

// TestMongoStoreIntegration needs a reachable server, e.g.
// GATEKEEP_TEST_MONGO_URI=mongodb://localhost:27017.
func TestMongoStoreIntegration(t *testing.T) {
	uri := os.Getenv("GATEKEEP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GATEKEEP_TEST_MONGO_URI not set")
	}

	runStoreContract(t, func(t *testing.T) Store {
		name := fmt.Sprintf("gatekeep_test_%d", time.Now().UnixNano())
		manager, err := database.NewManager(&config.DatabaseConfig{
			Driver:         config.DriverMongoDB,
			DSN:            uri,
			Name:           name,
			ConnectTimeout: 5 * time.Second,
		}, zap.NewNop())
		require.NoError(t, err)

		t.Cleanup(func() {
			ctx := context.Background()
			client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
			if err == nil {
				_ = client.Database(name).Drop(ctx)
				_ = client.Disconnect(ctx)
			}
			_ = manager.Close()
		})

		return NewMongoStore(manager.Mongo())
	})
}

func TestMongoDocumentFieldNames(t *testing.T) {
	lockUntil := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	doc := documentFromAccount(&Account{
		ID:            "id-1",
		Email:         "grace@example.com",
		PasswordHash:  "hash",
		LoginAttempts: 2,
		LockUntil:     &lockUntil,
		Version:       7,
	})

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	for _, key := range []string{"_id", "email", "password", "loginAttempts", "lockUntil", "version"} {
		require.Contains(t, m, key)
	}
}
