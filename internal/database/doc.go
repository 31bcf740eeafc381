// Package database provides database connectivity for the Questboard API.
//
// The database package wraps the MongoDB driver and provides a consistent
// entry point for data access across the application.
//
// # Connection Management
//
//	db := database.NewMongo(database.Config{
//	    URI:      "mongodb://localhost:27017",
//	    Database: "questboard",
//	})
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//
// Repositories obtain collection handles via db.Collection(name). Every
// document carries a guild_id field and repositories always filter on it;
// the compound (guild_id, id) unique index created by EnsureIndexes backs
// that access pattern.
//
// # Error Types
//
// Standard errors are defined for common failure cases:
//   - ErrNotFound: document does not exist
//   - ErrDuplicate: unique constraint violation
//   - ErrConnection: connection or ping failure
//   - ErrQuery: query execution failure
//   - ErrPrecondition: conditional write lost its precondition
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // Handle missing document
//	}
package database
