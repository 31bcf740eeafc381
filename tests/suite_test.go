// Package tests contains end-to-end acceptance tests for the Questboard API.
//
// These tests run against a real MongoDB instance to validate actual
// database behavior including status-conditional writes and index
// constraints.
//
// To run tests:
//  1. Start MongoDB: docker run -p 27017:27017 mongo:7
//  2. Run tests: TEST_MONGO_URI=mongodb://localhost:27017 go test ./tests/...
//
// Environment variables:
//
//	TEST_MONGO_URI - MongoDB connection string (tests skip when unset)
package tests

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ravenhall/questboard/internal/repository"
	"github.com/ravenhall/questboard/internal/service"
	"github.com/ravenhall/questboard/internal/testing/fixtures"
	"github.com/ravenhall/questboard/internal/testing/testdb"
)

// testClock is a movable clock shared by every service in an env, so tests
// can cross time-based gates like the nudge cooldown without sleeping.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Now().UTC().Truncate(time.Millisecond)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// env wires the full service stack against an isolated test database.
type env struct {
	tdb   *testdb.TestDB
	f     *fixtures.Factory
	clock *testClock

	quests     *service.QuestService
	users      *service.UserService
	characters *service.CharacterService
	summaries  *service.SummaryService

	questRepo *repository.QuestRepository
	userRepo  *repository.UserRepository
	charRepo  *repository.CharacterRepository
}

// newEnv creates a fresh database and the services under test. The database
// is dropped when the test finishes.
func newEnv(t *testing.T) *env {
	t.Helper()

	tdb := testdb.New(t)
	t.Cleanup(tdb.Close)

	clock := newTestClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	questRepo := repository.NewQuestRepository(tdb.DB)
	userRepo := repository.NewUserRepository(tdb.DB)
	charRepo := repository.NewCharacterRepository(tdb.DB)
	summaryRepo := repository.NewSummaryRepository(tdb.DB)

	quests := service.NewQuestService(service.QuestServiceConfig{
		QuestRepo: questRepo,
		UserRepo:  userRepo,
		CharRepo:  charRepo,
		Recorder:  service.NopRecorder{},
		Logger:    logger,
		NowFunc:   clock.Now,
	})
	users := service.NewUserService(service.UserServiceConfig{
		UserRepo: userRepo,
		NowFunc:  clock.Now,
	})
	characters := service.NewCharacterService(service.CharacterServiceConfig{
		CharRepo: charRepo,
		UserRepo: userRepo,
		NowFunc:  clock.Now,
	})
	summaries := service.NewSummaryService(service.SummaryServiceConfig{
		SummaryRepo:  summaryRepo,
		QuestService: quests,
		Recorder:     service.NopRecorder{},
		NowFunc:      clock.Now,
	})

	return &env{
		tdb:        tdb,
		f:          fixtures.New(tdb.DB),
		clock:      clock,
		quests:     quests,
		users:      users,
		characters: characters,
		summaries:  summaries,
		questRepo:  questRepo,
		userRepo:   userRepo,
		charRepo:   charRepo,
	}
}

func (e *env) ctx() context.Context {
	return e.tdb.Ctx()
}

func (e *env) guild() string {
	return e.f.GuildID
}
