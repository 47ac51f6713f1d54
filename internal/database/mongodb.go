package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// Collection names
const (
	CollectionComplianceRecords  = "agent_compliance_records"
	CollectionRemediationActions = "remediation_actions"
	CollectionAlerts             = "alerts"
)

// NewMongoDB creates a new MongoDB connection with connection pooling
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	if dbName == "" {
		dbName = "complians"
	}

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	log.Printf("✅ MongoDB connected (database: %s)", dbName)
	return db, nil
}

// Database returns the underlying mongo database handle
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Client returns the underlying mongo client
func (m *MongoDB) Client() *mongo.Client {
	return m.client
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping verifies the connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// extractDBName pulls the database name out of a MongoDB URI.
// mongodb://host:port/dbname?opts -> dbname
func extractDBName(uri string) string {
	withoutScheme := uri
	if idx := strings.Index(uri, "://"); idx >= 0 {
		withoutScheme = uri[idx+3:]
	}

	slashIdx := strings.Index(withoutScheme, "/")
	if slashIdx < 0 || slashIdx == len(withoutScheme)-1 {
		return ""
	}

	dbName := withoutScheme[slashIdx+1:]
	if qIdx := strings.Index(dbName, "?"); qIdx >= 0 {
		dbName = dbName[:qIdx]
	}
	return dbName
}
