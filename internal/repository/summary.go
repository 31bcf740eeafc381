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

// SummaryRepository handles quest summary data access
type SummaryRepository struct {
	db *database.Mongo
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *database.Mongo) *SummaryRepository {
	return &SummaryRepository{db: db}
}

func (r *SummaryRepository) collection() *mongo.Collection {
	return r.db.Collection(database.CollectionSummaries)
}

// Create inserts a new summary
func (r *SummaryRepository) Create(ctx context.Context, summary *model.Summary) error {
	summary.CreatedOn = time.Now().UTC()
	_, err := r.collection().InsertOne(ctx, summary)
	return wrapWriteErr(err)
}

// Get retrieves a summary by guild-scoped ID
func (r *SummaryRepository) Get(ctx context.Context, guildID string, id ident.ID) (*model.Summary, error) {
	var summary model.Summary
	err := r.collection().FindOne(ctx, byID(guildID, id)).Decode(&summary)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: summary %s in guild %s", database.ErrNotFound, id, guildID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return &summary, nil
}

// Upsert inserts the summary or replaces it wholesale
func (r *SummaryRepository) Upsert(ctx context.Context, summary *model.Summary) error {
	if summary.CreatedOn.IsZero() {
		summary.CreatedOn = time.Now().UTC()
	}
	_, err := r.collection().ReplaceOne(ctx, byID(summary.GuildID, summary.ID), summary,
		options.Replace().SetUpsert(true))
	return wrapWriteErr(err)
}

// Delete removes a summary
func (r *SummaryRepository) Delete(ctx context.Context, guildID string, id ident.ID) error {
	res, err := r.collection().DeleteOne(ctx, byID(guildID, id))
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: summary %s in guild %s", database.ErrNotFound, id, guildID)
	}
	return nil
}

// Exists reports whether a summary with the ID exists in the guild.
// Satisfies ident.ExistsFunc for collision checking at generation time.
func (r *SummaryRepository) Exists(ctx context.Context, guildID string, id ident.ID) (bool, error) {
	count, err := r.collection().CountDocuments(ctx, byID(guildID, id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return count > 0, nil
}

// ListByQuest retrieves a quest's summaries in creation order
func (r *SummaryRepository) ListByQuest(ctx context.Context, guildID string, questID ident.ID, opts ListOptions) ([]*model.Summary, error) {
	return r.list(ctx, bson.M{"guild_id": guildID, "quest_id": questID}, opts)
}

// ListByAuthor retrieves summaries written by one user
func (r *SummaryRepository) ListByAuthor(ctx context.Context, guildID string, authorID ident.ID, opts ListOptions) ([]*model.Summary, error) {
	return r.list(ctx, bson.M{"guild_id": guildID, "author_id": authorID}, opts)
}

func (r *SummaryRepository) list(ctx context.Context, filter bson.M, opts ListOptions) ([]*model.Summary, error) {
	cur, err := r.collection().Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	defer cur.Close(ctx)

	summaries := make([]*model.Summary, 0)
	if err := cur.All(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return summaries, nil
}
