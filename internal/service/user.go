package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/repository"
)

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, guildID string, id ident.ID) (*model.User, error)
	GetByDiscordID(ctx context.Context, guildID, discordID string) (*model.User, error)
	Upsert(ctx context.Context, user *model.User) error
	Exists(ctx context.Context, guildID string, id ident.ID) (bool, error)
	ListByGuild(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.User, error)
	ListByRole(ctx context.Context, guildID string, role model.Role, opts repository.ListOptions) ([]*model.User, error)
}

// UserService handles member provisioning, roles, and engagement telemetry
type UserService struct {
	repo    UserRepository
	idgen   *ident.Generator
	nowFunc func() time.Time
}

// UserServiceConfig holds configuration for the user service
type UserServiceConfig struct {
	UserRepo UserRepository

	// NowFunc overrides the clock, for tests. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewUserService creates a new user service
func NewUserService(cfg UserServiceConfig) *UserService {
	nowFunc := cfg.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &UserService{
		repo:    cfg.UserRepo,
		idgen:   ident.NewGenerator(cfg.UserRepo.Exists),
		nowFunc: nowFunc,
	}
}

// Provision returns the guild member for a Discord account, creating a fresh
// MEMBER record on first contact. Idempotent.
func (s *UserService) Provision(ctx context.Context, guildID, discordID string) (*model.User, error) {
	user, err := s.repo.GetByDiscordID(ctx, guildID, discordID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	id, err := s.idgen.Generate(ctx, ident.PrefixUser, guildID)
	if err != nil {
		return nil, fmt.Errorf("generating user id: %w", err)
	}

	user = model.NewUser(id, guildID, discordID, s.nowFunc())
	if err := s.repo.Create(ctx, user); err != nil {
		// Lost a provisioning race; the winner's record is authoritative.
		if errors.Is(err, database.ErrDuplicate) {
			return s.repo.GetByDiscordID(ctx, guildID, discordID)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Get retrieves a user
func (s *UserService) Get(ctx context.Context, guildID string, userID ident.ID) (*model.User, error) {
	return s.load(ctx, guildID, userID)
}

// GetByDiscordID retrieves a user by Discord snowflake
func (s *UserService) GetByDiscordID(ctx context.Context, guildID, discordID string) (*model.User, error) {
	user, err := s.repo.GetByDiscordID(ctx, guildID, discordID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: discord %s", ErrUserNotFound, discordID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// List retrieves users in a guild, optionally filtered to one role
func (s *UserService) List(ctx context.Context, guildID string, role *model.Role, limit, offset int) ([]*model.User, error) {
	opts := repository.ListOptions{Limit: int64(limit), Offset: int64(offset)}
	if role != nil {
		return s.repo.ListByRole(ctx, guildID, *role, opts)
	}
	return s.repo.ListByGuild(ctx, guildID, opts)
}

// GrantRole grants a role to a user. Admin only; the role ladder is enforced
// by the user entity.
func (s *UserService) GrantRole(ctx context.Context, guildID string, actor Actor, userID ident.ID, role model.Role) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	user, err := s.load(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if err := user.GrantRole(role); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RevokeRole removes a role from a user. Admin only.
func (s *UserService) RevokeRole(ctx context.Context, guildID string, actor Actor, userID ident.ID, role model.Role) (*model.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}

	user, err := s.load(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	user.RevokeRole(role)
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RecordMessage counts a message toward a member's engagement, provisioning
// the member if needed
func (s *UserService) RecordMessage(ctx context.Context, guildID, discordID string) error {
	user, err := s.Provision(ctx, guildID, discordID)
	if err != nil {
		return err
	}
	user.RecordMessage(s.nowFunc())
	return s.repo.Upsert(ctx, user)
}

// RecordReaction counts a reaction given or received
func (s *UserService) RecordReaction(ctx context.Context, guildID, discordID string, given bool) error {
	user, err := s.Provision(ctx, guildID, discordID)
	if err != nil {
		return err
	}
	user.RecordReaction(given, s.nowFunc())
	return s.repo.Upsert(ctx, user)
}

// RecordVoice adds voice channel time in hours
func (s *UserService) RecordVoice(ctx context.Context, guildID, discordID string, hours float64) error {
	user, err := s.Provision(ctx, guildID, discordID)
	if err != nil {
		return err
	}
	user.RecordVoice(hours, s.nowFunc())
	return s.repo.Upsert(ctx, user)
}

func (s *UserService) load(ctx context.Context, guildID string, userID ident.ID) (*model.User, error) {
	user, err := s.repo.Get(ctx, guildID, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
