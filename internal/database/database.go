package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a query execution failure.
	ErrQuery = errors.New("query error")

	// ErrPrecondition indicates a conditional write whose precondition no
	// longer held at write time.
	ErrPrecondition = errors.New("write precondition failed")
)

// Collection names. All documents are partitioned by guild_id within their
// collection.
const (
	CollectionQuests     = "quests"
	CollectionUsers      = "users"
	CollectionCharacters = "characters"
	CollectionSummaries  = "summaries"
)

// Config holds database configuration
type Config struct {
	URI      string
	Database string
}

// Mongo wraps a MongoDB client scoped to the application database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	config Config
}

// NewMongo creates an unconnected Mongo instance
func NewMongo(cfg Config) *Mongo {
	return &Mongo{config: cfg}
}

// Connect establishes the connection and verifies it with a ping
func (m *Mongo) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.config.URI))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("%w: ping failed: %v", ErrConnection, err)
	}

	m.client = client
	m.db = client.Database(m.config.Database)
	return nil
}

// Close disconnects the client
func (m *Mongo) Close() error {
	if m.client != nil {
		return m.client.Disconnect(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (m *Mongo) Ping(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("%w: not connected", ErrConnection)
	}
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Collection returns a handle to a named collection
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Drop removes the entire database. Only test harnesses tearing down a
// throwaway database should call this.
func (m *Mongo) Drop(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("%w: not connected", ErrConnection)
	}
	if err := m.db.Drop(ctx); err != nil {
		return fmt.Errorf("%w: dropping database: %v", ErrQuery, err)
	}
	return nil
}

// EnsureIndexes creates the indexes the repositories rely on. Safe to call
// repeatedly; index creation is idempotent.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	guildScoped := mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, name := range []string{
		CollectionQuests, CollectionUsers, CollectionCharacters, CollectionSummaries,
	} {
		if _, err := m.Collection(name).Indexes().CreateOne(ctx, guildScoped); err != nil {
			return fmt.Errorf("%w: creating index on %s: %v", ErrQuery, name, err)
		}
	}

	// Users are also looked up by Discord snowflake within a guild.
	discordIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "discord_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.Collection(CollectionUsers).Indexes().CreateOne(ctx, discordIdx); err != nil {
		return fmt.Errorf("%w: creating discord index: %v", ErrQuery, err)
	}
	return nil
}
