// Package repository implements the data access layer for the Questboard API.
//
// The repository package contains all database operations using MongoDB.
// Each repository struct handles CRUD operations for a specific domain entity.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts the database handle
//   - Methods implement specific data operations (Create, Get, Upsert, Delete, etc.)
//   - Results are decoded straight into model structs via bson tags
//
// # Guild Partitioning
//
// Every document carries a guild_id and every filter includes it. Identifiers
// are unique within a guild only; cross-guild reads are impossible by
// construction because no method accepts a filter without a guild.
//
// # Conditional Writes
//
// Quest updates that depend on the lifecycle state go through Update with an
// expected status. The filter carries the expectation, so a concurrent
// transition makes the write match nothing and the caller gets
// database.ErrPrecondition instead of silently clobbering the newer state.
//
// # Example Usage
//
//	repo := NewQuestRepository(db)
//	quest, err := repo.Get(ctx, guildID, questID)
//	if err != nil {
//	    if errors.Is(err, database.ErrNotFound) {
//	        // Handle not found
//	    }
//	    return err
//	}
package repository
