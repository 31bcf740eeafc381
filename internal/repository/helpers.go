package repository

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/ident"
)

// ListOptions controls pagination for list queries. Results are always
// ordered by created_on ascending with id as a tiebreaker, so pages are
// stable across calls.
type ListOptions struct {
	Limit  int64
	Offset int64
}

// DefaultListLimit caps unbounded list calls.
const DefaultListLimit = 100

func findOptions(opts ListOptions) *options.FindOptions {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	fo := options.Find().
		SetSort(bson.D{{Key: "created_on", Value: 1}, {Key: "id", Value: 1}}).
		SetLimit(limit)
	if opts.Offset > 0 {
		fo.SetSkip(opts.Offset)
	}
	return fo
}

// byID is the canonical guild-scoped identity filter.
func byID(guildID string, id ident.ID) bson.M {
	return bson.M{"guild_id": guildID, "id": id}
}

// wrapWriteErr translates driver errors into the package's sentinel errors.
func wrapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", database.ErrDuplicate, err)
	}
	return fmt.Errorf("%w: %v", database.ErrQuery, err)
}
