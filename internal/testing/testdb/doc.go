// Package testdb provides test database utilities for the Questboard API.
//
// The testdb package manages MongoDB connections for acceptance tests with
// automatic setup, index creation, and cleanup.
//
// # Test Database Setup
//
// Create a test database for each test:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    // Use tdb.DB for database operations
//	}
//
// Tests are skipped unless TEST_MONGO_URI (or MONGO_URI) points at a running
// MongoDB instance.
//
// # Isolation
//
// Each test gets its own throwaway database, dropped on Close:
//
//	tdb := testdb.New(t) // database: questboard_test_<nano>_<n>
//
// For subtests that can share one database, use NewShared and call
// SetupSubtest at the start of each t.Run block to reset the collections.
package testdb
