// Package mongo hosts the relationship directory: the viewer→subject links
// the visibility engine consults when a viewer is not the subject itself.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const appName = "identity-service"

// Config carries the directory connection settings. ConnectTimeout bounds
// both the initial dial and the verification ping; callers normally populate
// it from MONGO_CONNECT_TIMEOUT.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Connect opens the client backing the relationship directory and verifies
// connectivity before handing it out. The directory is read on every
// visibility computation, so a database that cannot answer a ping at startup
// is treated as fatal rather than degraded.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("relationship directory connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("relationship directory ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}
