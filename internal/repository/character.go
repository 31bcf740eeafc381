package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
)

// CharacterRepository handles player character data access
type CharacterRepository struct {
	db *database.Mongo
}

// NewCharacterRepository creates a new character repository
func NewCharacterRepository(db *database.Mongo) *CharacterRepository {
	return &CharacterRepository{db: db}
}

func (r *CharacterRepository) collection() *mongo.Collection {
	return r.db.Collection(database.CollectionCharacters)
}

// Create inserts a new character
func (r *CharacterRepository) Create(ctx context.Context, character *model.Character) error {
	character.CreatedOn = time.Now().UTC()
	_, err := r.collection().InsertOne(ctx, character)
	return wrapWriteErr(err)
}

// Get retrieves a character by guild-scoped ID
func (r *CharacterRepository) Get(ctx context.Context, guildID string, id ident.ID) (*model.Character, error) {
	var character model.Character
	err := r.collection().FindOne(ctx, byID(guildID, id)).Decode(&character)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: character %s in guild %s", database.ErrNotFound, id, guildID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return &character, nil
}

// Upsert inserts the character or replaces it wholesale
func (r *CharacterRepository) Upsert(ctx context.Context, character *model.Character) error {
	if character.CreatedOn.IsZero() {
		character.CreatedOn = time.Now().UTC()
	}
	_, err := r.collection().ReplaceOne(ctx, byID(character.GuildID, character.ID), character,
		options.Replace().SetUpsert(true))
	return wrapWriteErr(err)
}

// Delete removes a character
func (r *CharacterRepository) Delete(ctx context.Context, guildID string, id ident.ID) error {
	res, err := r.collection().DeleteOne(ctx, byID(guildID, id))
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: character %s in guild %s", database.ErrNotFound, id, guildID)
	}
	return nil
}

// Exists reports whether a character with the ID exists in the guild.
// Satisfies ident.ExistsFunc for collision checking at generation time.
func (r *CharacterRepository) Exists(ctx context.Context, guildID string, id ident.ID) (bool, error) {
	count, err := r.collection().CountDocuments(ctx, byID(guildID, id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return count > 0, nil
}

// ListByOwner retrieves a user's characters in creation order
func (r *CharacterRepository) ListByOwner(ctx context.Context, guildID string, ownerID ident.ID, opts ListOptions) ([]*model.Character, error) {
	return r.list(ctx, bson.M{"guild_id": guildID, "owner_id": ownerID}, opts)
}

// ListByGuild retrieves all characters in a guild in creation order
func (r *CharacterRepository) ListByGuild(ctx context.Context, guildID string, opts ListOptions) ([]*model.Character, error) {
	return r.list(ctx, bson.M{"guild_id": guildID}, opts)
}

func (r *CharacterRepository) list(ctx context.Context, filter bson.M, opts ListOptions) ([]*model.Character, error) {
	cur, err := r.collection().Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	defer cur.Close(ctx)

	characters := make([]*model.Character, 0)
	if err := cur.All(ctx, &characters); err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return characters, nil
}
