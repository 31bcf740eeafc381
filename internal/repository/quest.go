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

// QuestRepository handles quest data access
type QuestRepository struct {
	db *database.Mongo
}

// NewQuestRepository creates a new quest repository
func NewQuestRepository(db *database.Mongo) *QuestRepository {
	return &QuestRepository{db: db}
}

func (r *QuestRepository) collection() *mongo.Collection {
	return r.db.Collection(database.CollectionQuests)
}

// Create inserts a new quest
func (r *QuestRepository) Create(ctx context.Context, quest *model.Quest) error {
	now := time.Now().UTC()
	quest.CreatedOn = now
	quest.UpdatedOn = now

	_, err := r.collection().InsertOne(ctx, quest)
	return wrapWriteErr(err)
}

// Get retrieves a quest by guild-scoped ID
func (r *QuestRepository) Get(ctx context.Context, guildID string, id ident.ID) (*model.Quest, error) {
	var quest model.Quest
	err := r.collection().FindOne(ctx, byID(guildID, id)).Decode(&quest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: quest %s in guild %s", database.ErrNotFound, id, guildID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return &quest, nil
}

// Update replaces the stored quest, but only while its status is still
// expectedStatus. A concurrent transition makes the filter match nothing and
// the caller gets database.ErrPrecondition.
func (r *QuestRepository) Update(ctx context.Context, quest *model.Quest, expectedStatus model.QuestStatus) error {
	quest.UpdatedOn = time.Now().UTC()

	filter := byID(quest.GuildID, quest.ID)
	filter["status"] = expectedStatus

	res, err := r.collection().ReplaceOne(ctx, filter, quest)
	if err != nil {
		return wrapWriteErr(err)
	}
	if res.MatchedCount == 0 {
		exists, err := r.Exists(ctx, quest.GuildID, quest.ID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: quest %s in guild %s", database.ErrNotFound, quest.ID, quest.GuildID)
		}
		return fmt.Errorf("%w: quest %s is no longer %s", database.ErrPrecondition, quest.ID, expectedStatus)
	}
	return nil
}

// Upsert inserts the quest or replaces it wholesale, regardless of status.
func (r *QuestRepository) Upsert(ctx context.Context, quest *model.Quest) error {
	now := time.Now().UTC()
	if quest.CreatedOn.IsZero() {
		quest.CreatedOn = now
	}
	quest.UpdatedOn = now

	_, err := r.collection().ReplaceOne(ctx, byID(quest.GuildID, quest.ID), quest,
		options.Replace().SetUpsert(true))
	return wrapWriteErr(err)
}

// Delete removes a quest
func (r *QuestRepository) Delete(ctx context.Context, guildID string, id ident.ID) error {
	res, err := r.collection().DeleteOne(ctx, byID(guildID, id))
	if err != nil {
		return fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: quest %s in guild %s", database.ErrNotFound, id, guildID)
	}
	return nil
}

// Exists reports whether a quest with the ID exists in the guild. Satisfies
// ident.ExistsFunc for collision checking at generation time.
func (r *QuestRepository) Exists(ctx context.Context, guildID string, id ident.ID) (bool, error) {
	count, err := r.collection().CountDocuments(ctx, byID(guildID, id), options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return count > 0, nil
}

// ListByGuild retrieves all quests in a guild in creation order
func (r *QuestRepository) ListByGuild(ctx context.Context, guildID string, opts ListOptions) ([]*model.Quest, error) {
	return r.list(ctx, bson.M{"guild_id": guildID}, opts)
}

// ListByStatus retrieves a guild's quests in one lifecycle state
func (r *QuestRepository) ListByStatus(ctx context.Context, guildID string, status model.QuestStatus, opts ListOptions) ([]*model.Quest, error) {
	return r.list(ctx, bson.M{"guild_id": guildID, "status": status}, opts)
}

// ListByReferee retrieves a guild's quests run by one referee
func (r *QuestRepository) ListByReferee(ctx context.Context, guildID string, refereeID ident.ID, opts ListOptions) ([]*model.Quest, error) {
	return r.list(ctx, bson.M{"guild_id": guildID, "referee_id": refereeID}, opts)
}

// ListNeedingSummary retrieves completed quests still waiting on a summary
func (r *QuestRepository) ListNeedingSummary(ctx context.Context, guildID string, opts ListOptions) ([]*model.Quest, error) {
	return r.list(ctx, bson.M{"guild_id": guildID, "summary_needed": true}, opts)
}

// GuildIDs returns the distinct guilds holding quests. Used by background
// scans that walk every guild; all other reads stay guild-scoped.
func (r *QuestRepository) GuildIDs(ctx context.Context) ([]string, error) {
	values, err := r.collection().Distinct(ctx, "guild_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}

	guildIDs := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			guildIDs = append(guildIDs, s)
		}
	}
	return guildIDs, nil
}

func (r *QuestRepository) list(ctx context.Context, filter bson.M, opts ListOptions) ([]*model.Quest, error) {
	cur, err := r.collection().Find(ctx, filter, findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	defer cur.Close(ctx)

	quests := make([]*model.Quest, 0)
	if err := cur.All(ctx, &quests); err != nil {
		return nil, fmt.Errorf("%w: %v", database.ErrQuery, err)
	}
	return quests, nil
}
