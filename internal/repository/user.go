package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
)

// UserRepository handles guild member data access
type UserRepository struct {
	db *database.Mongo
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Mongo) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) collection() *mongo.Collection {
	return r.db.Collection(database.CollectionUsers)
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.collection().InsertOne(ctx, user)
	return wrapWriteErr(err)
}

// Get retrieves a user by guild-scoped ID
func (r *UserRepository) Get(ctx context.Context, guildID string, id ident.ID) (*model.User, error) {
	var user model.User
	err := r.collection().FindOne(ctx, byID(guildID, id)).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: user %s in guild %s", database.ErrNotFound, id, guildID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return &user, nil
}

// GetByDiscordID retrieves a user by their Discord snowflake within a guild
func (r *UserRepository) GetByDiscordID(ctx context.Context, guildID, discordID string) (*model.User, error) {
	var user model.User
	filter := bson.M{"guild_id": guildID, "discord_id": discordID}
	err := r.collection().FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: discord user %s in guild %s", database.ErrNotFound, discordID, guildID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return &user, nil
}

// Upsert inserts the user or replaces it wholesale
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	_, err := r.collection().ReplaceOne(ctx, byID(user.GuildID, user.ID), user,
		options.Replace().SetUpsert(true))
	return wrapWriteErr(err)
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, guildID string, id ident.ID) error {
	res, err := r.collection().DeleteOne(ctx, byID(guildID, id))
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: user %s in guild %s", database.ErrNotFound, id, guildID)
	}
	return nil
}

// Exists reports whether a user with the ID exists in the guild. Satisfies
// ident.ExistsFunc for collision checking at generation time.
func (r *UserRepository) Exists(ctx context.Context, guildID string, id ident.ID) (bool, error) {
	count, err := r.collection().CountDocuments(ctx, byID(guildID, id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return count > 0, nil
}

// ListByGuild retrieves all users in a guild in join order
func (r *UserRepository) ListByGuild(ctx context.Context, guildID string, opts ListOptions) ([]*model.User, error) {
	return r.list(ctx, bson.M{"guild_id": guildID}, opts)
}

// ListByRole retrieves a guild's users holding one role
func (r *UserRepository) ListByRole(ctx context.Context, guildID string, role model.Role, opts ListOptions) ([]*model.User, error) {
	return r.list(ctx, bson.M{"guild_id": guildID, "roles": role}, opts)
}

func (r *UserRepository) list(ctx context.Context, filter bson.M, opts ListOptions) ([]*model.User, error) {
	fo := findOptions(opts)
	fo.SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "id", Value: 1}})

	cur, err := r.collection().Find(ctx, filter, fo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	defer cur.Close(ctx)

	users := make([]*model.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return users, nil
}
