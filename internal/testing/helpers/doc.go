// Package helpers provides test utility functions for the Questboard API.
//
// The helpers package contains common test utilities for HTTP request
// construction, response assertions, and test data manipulation.
//
// # Service Tokens
//
// Mint tokens the way a deployed integration would hold them:
//
//	svc := helpers.NewTestJWTService(t)
//	token := helpers.ServiceToken(t, svc, guildID)
//
// # HTTP Requests
//
// Build authenticated requests against handlers:
//
//	req := helpers.NewRequest(t, "POST", "/v1/guilds/g/quests").
//	    WithServiceToken(token).
//	    WithActor(referee.ID).
//	    WithBody(body).
//	    Build()
//
// # Assertion Helpers
//
// Validate responses and stored documents:
//
//	helpers.AssertStatus(t, resp, http.StatusCreated)
//	helpers.AssertProblemDetails(t, resp, 409, model.ErrCodeConflict)
//	helpers.AssertDocumentExists(t, db, database.CollectionQuests, guildID, quest.ID)
package helpers
