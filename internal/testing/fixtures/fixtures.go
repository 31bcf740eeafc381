package fixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/repository"
	"github.com/ravenhall/questboard/internal/service"
)

// DefaultGuildID is the guild every fixture belongs to unless overridden.
const DefaultGuildID = "guild-acceptance"

// Factory creates test entities in the database
type Factory struct {
	GuildID string

	users      *repository.UserRepository
	quests     *repository.QuestRepository
	characters *repository.CharacterRepository
	summaries  *repository.SummaryRepository

	counter atomic.Int64
}

// New creates a new fixture factory scoped to DefaultGuildID.
func New(db *database.Mongo) *Factory {
	return &Factory{
		GuildID:    DefaultGuildID,
		users:      repository.NewUserRepository(db),
		quests:     repository.NewQuestRepository(db),
		characters: repository.NewCharacterRepository(db),
		summaries:  repository.NewSummaryRepository(db),
	}
}

// nextID mints a unique postal-style identifier for the prefix. Bodies are
// derived from a process-wide counter, so collisions within a test run are
// impossible without consulting the database.
func (f *Factory) nextID(prefix string) ident.ID {
	n := f.counter.Add(1)
	body := fmt.Sprintf("%c%d%c%d%c%d",
		'A'+byte(n%26), n%10,
		'A'+byte((n/26)%26), (n/10)%10,
		'A'+byte((n/676)%26), (n/100)%10,
	)
	return ident.MustParse(prefix, prefix+body)
}

// ctx returns a context with timeout
func ctx() context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = cancel
	return c
}

// Actor builds the service-layer acting identity for a stored user.
func Actor(u *model.User) service.Actor {
	return service.Actor{UserID: u.ID, Roles: u.Roles}
}

// ============================================================================
// User fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	DiscordID string
	Roles     []model.Role
	JoinedAt  time.Time
}

// WithDiscordID overrides the generated Discord snowflake.
func WithDiscordID(id string) func(*UserOpts) {
	return func(o *UserOpts) { o.DiscordID = id }
}

// CreateMember creates a plain MEMBER with optional customizations.
func (f *Factory) CreateMember(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	n := f.counter.Add(1)
	o := &UserOpts{
		DiscordID: fmt.Sprintf("10000000000%05d", n),
		Roles:     []model.Role{model.RoleMember},
		JoinedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	for _, fn := range opts {
		fn(o)
	}

	user := model.NewUser(f.nextID(ident.PrefixUser), f.GuildID, o.DiscordID, o.JoinedAt)
	for _, role := range o.Roles {
		if err := user.GrantRole(role); err != nil {
			t.Fatalf("fixtures: granting role %s: %v", role, err)
		}
	}

	if err := f.users.Create(ctx(), user); err != nil {
		t.Fatalf("fixtures: creating user: %v", err)
	}
	return user
}

// CreatePlayer creates a user holding MEMBER and PLAYER.
func (f *Factory) CreatePlayer(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()
	opts = append(opts, func(o *UserOpts) {
		o.Roles = []model.Role{model.RoleMember, model.RolePlayer}
	})
	return f.CreateMember(t, opts...)
}

// CreateReferee creates a user holding MEMBER, PLAYER and REFEREE.
func (f *Factory) CreateReferee(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()
	opts = append(opts, func(o *UserOpts) {
		o.Roles = []model.Role{model.RoleMember, model.RolePlayer, model.RoleReferee}
	})
	return f.CreateMember(t, opts...)
}

// CreateAdmin creates a user holding every role including ADMIN.
func (f *Factory) CreateAdmin(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()
	opts = append(opts, func(o *UserOpts) {
		o.Roles = []model.Role{model.RoleMember, model.RolePlayer, model.RoleReferee, model.RoleAdmin}
	})
	return f.CreateMember(t, opts...)
}

// ============================================================================
// Character fixtures
// ============================================================================

// CharacterOpts customizes character creation
type CharacterOpts struct {
	Name  string
	Class string
	Level int
}

// CreateCharacter creates a character owned by the user and links it to the
// owner's member record.
func (f *Factory) CreateCharacter(t *testing.T, owner *model.User, opts ...func(*CharacterOpts)) *model.Character {
	t.Helper()

	n := f.counter.Add(1)
	o := &CharacterOpts{
		Name:  fmt.Sprintf("Hero %d", n),
		Class: "Fighter",
		Level: 3,
	}
	for _, fn := range opts {
		fn(o)
	}

	character := &model.Character{
		ID:        f.nextID(ident.PrefixCharacter),
		GuildID:   f.GuildID,
		OwnerID:   owner.ID,
		Name:      o.Name,
		Class:     o.Class,
		Level:     o.Level,
		CreatedOn: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := f.characters.Create(ctx(), character); err != nil {
		t.Fatalf("fixtures: creating character: %v", err)
	}

	owner.LinkCharacter(character.ID)
	if err := f.users.Upsert(ctx(), owner); err != nil {
		t.Fatalf("fixtures: linking character to owner: %v", err)
	}
	return character
}

// ============================================================================
// Quest fixtures
// ============================================================================

// QuestOpts customizes quest creation
type QuestOpts struct {
	Title      string
	StartingAt time.Time
	Duration   time.Duration
	Status     model.QuestStatus
	ChannelID  string
	MessageID  string
}

// WithStatus pre-positions the quest in a lifecycle state. Announced and
// later states get Discord linkage attached automatically.
func WithStatus(status model.QuestStatus) func(*QuestOpts) {
	return func(o *QuestOpts) { o.Status = status }
}

// CreateQuest creates a quest run by the referee. The default is a DRAFT
// starting in 24 hours.
func (f *Factory) CreateQuest(t *testing.T, referee *model.User, opts ...func(*QuestOpts)) *model.Quest {
	t.Helper()

	n := f.counter.Add(1)
	now := time.Now().UTC().Truncate(time.Millisecond)
	o := &QuestOpts{
		Title:      fmt.Sprintf("The Vault of Trial %d", n),
		StartingAt: now.Add(24 * time.Hour),
		Duration:   3 * time.Hour,
		Status:     model.QuestStatusDraft,
	}
	for _, fn := range opts {
		fn(o)
	}

	quest := &model.Quest{
		ID:         f.nextID(ident.PrefixQuest),
		GuildID:    f.GuildID,
		RefereeID:  referee.ID,
		Title:      o.Title,
		StartingAt: o.StartingAt,
		Duration:   o.Duration,
		Status:     o.Status,
		Signups:    []model.Signup{},
		SummaryIDs: []ident.ID{},
		CreatedOn:  now,
		UpdatedOn:  now,
	}
	if o.Status != model.QuestStatusDraft {
		quest.ChannelID = o.ChannelID
		quest.MessageID = o.MessageID
		if quest.ChannelID == "" {
			quest.ChannelID = fmt.Sprintf("chan-%d", n)
		}
		if quest.MessageID == "" {
			quest.MessageID = fmt.Sprintf("msg-%d", n)
		}
	}
	if o.Status == model.QuestStatusCompleted {
		quest.SummaryNeeded = true
	}

	if err := f.quests.Create(ctx(), quest); err != nil {
		t.Fatalf("fixtures: creating quest: %v", err)
	}
	return quest
}

// CreateAnnouncedQuest creates a quest already published to a channel.
func (f *Factory) CreateAnnouncedQuest(t *testing.T, referee *model.User, opts ...func(*QuestOpts)) *model.Quest {
	t.Helper()
	opts = append(opts, WithStatus(model.QuestStatusAnnounced))
	return f.CreateQuest(t, referee, opts...)
}

// CreateCompletedQuest creates a finished quest still awaiting its summary.
func (f *Factory) CreateCompletedQuest(t *testing.T, referee *model.User, opts ...func(*QuestOpts)) *model.Quest {
	t.Helper()
	opts = append(opts, WithStatus(model.QuestStatusCompleted))
	return f.CreateQuest(t, referee, opts...)
}

// ============================================================================
// Summary fixtures
// ============================================================================

// SummaryOpts customizes summary creation
type SummaryOpts struct {
	Kind       model.SummaryKind
	Title      string
	Players    []ident.ID
	Characters []ident.ID
}

// CreateSummary creates a referee-kind summary of the quest written by the
// author. It does not touch the quest's summary linkage; use the summary
// service when the attach side effects matter.
func (f *Factory) CreateSummary(t *testing.T, author *model.User, quest *model.Quest, opts ...func(*SummaryOpts)) *model.Summary {
	t.Helper()

	n := f.counter.Add(1)
	o := &SummaryOpts{
		Kind:  model.SummaryKindReferee,
		Title: fmt.Sprintf("Session Report %d", n),
	}
	for _, fn := range opts {
		fn(o)
	}

	summary := &model.Summary{
		ID:          f.nextID(ident.PrefixSummary),
		GuildID:     f.GuildID,
		QuestID:     quest.ID,
		AuthorID:    author.ID,
		Kind:        o.Kind,
		Raw:         "The party descended into the vault and lived to tell of it.",
		Title:       o.Title,
		Description: "What happened down in the vault.",
		Players:     o.Players,
		Characters:  o.Characters,
		CreatedOn:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := f.summaries.Create(ctx(), summary); err != nil {
		t.Fatalf("fixtures: creating summary: %v", err)
	}
	return summary
}
