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

// CharacterRepository defines the interface for character storage
type CharacterRepository interface {
	Create(ctx context.Context, character *model.Character) error
	Get(ctx context.Context, guildID string, id ident.ID) (*model.Character, error)
	Upsert(ctx context.Context, character *model.Character) error
	Delete(ctx context.Context, guildID string, id ident.ID) error
	Exists(ctx context.Context, guildID string, id ident.ID) (bool, error)
	ListByOwner(ctx context.Context, guildID string, ownerID ident.ID, opts repository.ListOptions) ([]*model.Character, error)
	ListByGuild(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Character, error)
}

// CharacterUserRepository defines the user access the character service needs
// for linking characters to their owners
type CharacterUserRepository interface {
	Get(ctx context.Context, guildID string, id ident.ID) (*model.User, error)
	Upsert(ctx context.Context, user *model.User) error
}

// CharacterService handles player character management
type CharacterService struct {
	repo     CharacterRepository
	userRepo CharacterUserRepository
	idgen    *ident.Generator
	nowFunc  func() time.Time
}

// CharacterServiceConfig holds configuration for the character service
type CharacterServiceConfig struct {
	CharRepo CharacterRepository
	UserRepo CharacterUserRepository

	// NowFunc overrides the clock, for tests. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewCharacterService creates a new character service
func NewCharacterService(cfg CharacterServiceConfig) *CharacterService {
	nowFunc := cfg.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &CharacterService{
		repo:     cfg.CharRepo,
		userRepo: cfg.UserRepo,
		idgen:    ident.NewGenerator(cfg.CharRepo.Exists),
		nowFunc:  nowFunc,
	}
}

// CreateCharacterRequest carries the fields for a new character
type CreateCharacterRequest struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Level int    `json:"level"`
}

// Create registers a character owned by the acting player and links it to
// their member record
func (s *CharacterService) Create(ctx context.Context, guildID string, actor Actor, req CreateCharacterRequest) (*model.Character, error) {
	if !actor.IsPlayer() {
		return nil, ErrNotAPlayer
	}

	character := &model.Character{
		GuildID: guildID,
		OwnerID: actor.UserID,
		Name:    req.Name,
		Class:   req.Class,
		Level:   req.Level,
	}
	if err := character.Validate(); err != nil {
		return nil, err
	}

	id, err := s.idgen.Generate(ctx, ident.PrefixCharacter, guildID)
	if err != nil {
		return nil, fmt.Errorf("generating character id: %w", err)
	}
	character.ID = id

	if err := s.repo.Create(ctx, character); err != nil {
		return nil, fmt.Errorf("creating character: %w", err)
	}

	// Link to the owner's record; the character is authoritative either way.
	if user, err := s.userRepo.Get(ctx, guildID, actor.UserID); err == nil {
		user.LinkCharacter(character.ID)
		_ = s.userRepo.Upsert(ctx, user)
	}

	return character, nil
}

// Get retrieves a character
func (s *CharacterService) Get(ctx context.Context, guildID string, characterID ident.ID) (*model.Character, error) {
	return s.load(ctx, guildID, characterID)
}

// ListByOwner retrieves a user's characters
func (s *CharacterService) ListByOwner(ctx context.Context, guildID string, ownerID ident.ID, limit, offset int) ([]*model.Character, error) {
	opts := repository.ListOptions{Limit: int64(limit), Offset: int64(offset)}
	return s.repo.ListByOwner(ctx, guildID, ownerID, opts)
}

// List retrieves all characters in a guild
func (s *CharacterService) List(ctx context.Context, guildID string, limit, offset int) ([]*model.Character, error) {
	opts := repository.ListOptions{Limit: int64(limit), Offset: int64(offset)}
	return s.repo.ListByGuild(ctx, guildID, opts)
}

// Delete retires a character. Owner or admin only.
func (s *CharacterService) Delete(ctx context.Context, guildID string, actor Actor, characterID ident.ID) error {
	character, err := s.load(ctx, guildID, characterID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && !character.OwnedBy(actor.UserID) {
		return ErrCharacterNotOwned
	}

	if err := s.repo.Delete(ctx, guildID, characterID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCharacterNotFound, characterID)
		}
		return err
	}

	if user, err := s.userRepo.Get(ctx, guildID, character.OwnerID); err == nil {
		user.UnlinkCharacter(characterID)
		_ = s.userRepo.Upsert(ctx, user)
	}
	return nil
}

func (s *CharacterService) load(ctx context.Context, guildID string, characterID ident.ID) (*model.Character, error) {
	character, err := s.repo.Get(ctx, guildID, characterID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, characterID)
	}
	if err != nil {
		return nil, err
	}
	return character, nil
}
