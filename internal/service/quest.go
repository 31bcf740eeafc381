package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ravenhall/questboard/internal/database"
	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/repository"
)

// QuestRepository defines the interface for quest storage
type QuestRepository interface {
	Create(ctx context.Context, quest *model.Quest) error
	Get(ctx context.Context, guildID string, id ident.ID) (*model.Quest, error)
	Update(ctx context.Context, quest *model.Quest, expectedStatus model.QuestStatus) error
	Delete(ctx context.Context, guildID string, id ident.ID) error
	Exists(ctx context.Context, guildID string, id ident.ID) (bool, error)
	ListByGuild(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error)
	ListByStatus(ctx context.Context, guildID string, status model.QuestStatus, opts repository.ListOptions) ([]*model.Quest, error)
	ListByReferee(ctx context.Context, guildID string, refereeID ident.ID, opts repository.ListOptions) ([]*model.Quest, error)
	ListNeedingSummary(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error)
}

// QuestUserRepository defines the user access the quest service needs for
// engagement bookkeeping
type QuestUserRepository interface {
	Get(ctx context.Context, guildID string, id ident.ID) (*model.User, error)
	Upsert(ctx context.Context, user *model.User) error
}

// QuestCharacterRepository defines the character access the quest service
// needs for signup ownership checks
type QuestCharacterRepository interface {
	Get(ctx context.Context, guildID string, id ident.ID) (*model.Character, error)
	Upsert(ctx context.Context, character *model.Character) error
}

// QuestService drives the quest lifecycle
type QuestService struct {
	repo     QuestRepository
	userRepo QuestUserRepository
	charRepo QuestCharacterRepository
	idgen    *ident.Generator
	recorder Recorder
	logger   *slog.Logger
	nowFunc  func() time.Time
}

// QuestServiceConfig holds configuration for the quest service
type QuestServiceConfig struct {
	QuestRepo QuestRepository
	UserRepo  QuestUserRepository
	CharRepo  QuestCharacterRepository
	Recorder  Recorder
	Logger    *slog.Logger

	// NowFunc overrides the clock, for tests. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewQuestService creates a new quest service
func NewQuestService(cfg QuestServiceConfig) *QuestService {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NewSlogRecorder(cfg.Logger)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	nowFunc := cfg.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &QuestService{
		repo:     cfg.QuestRepo,
		userRepo: cfg.UserRepo,
		charRepo: cfg.CharRepo,
		idgen:    ident.NewGenerator(cfg.QuestRepo.Exists),
		recorder: recorder,
		logger:   logger,
		nowFunc:  nowFunc,
	}
}

// CreateQuestRequest carries the fields a referee provides for a new quest
type CreateQuestRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	StartingAt  time.Time     `json:"starting_at"`
	Duration    time.Duration `json:"duration"`
	ImageURL    string        `json:"image_url"`
}

// Create drafts a new quest owned by the acting referee
func (s *QuestService) Create(ctx context.Context, guildID string, actor Actor, req CreateQuestRequest) (*model.Quest, error) {
	if !actor.IsReferee() && !actor.IsAdmin() {
		return nil, ErrNotAReferee
	}

	now := s.nowFunc()
	quest := &model.Quest{
		GuildID:     guildID,
		RefereeID:   actor.UserID,
		Title:       req.Title,
		Description: req.Description,
		StartingAt:  req.StartingAt,
		Duration:    req.Duration,
		ImageURL:    req.ImageURL,
		Status:      model.QuestStatusDraft,
	}
	if err := quest.ValidateNew(now); err != nil {
		return nil, err
	}

	id, err := s.idgen.Generate(ctx, ident.PrefixQuest, guildID)
	if err != nil {
		return nil, fmt.Errorf("generating quest id: %w", err)
	}
	quest.ID = id

	if err := s.repo.Create(ctx, quest); err != nil {
		return nil, fmt.Errorf("creating quest: %w", err)
	}

	s.record(ctx, model.EventQuestCreated, guildID, quest.ID, actor)
	return quest, nil
}

// Get retrieves a quest
func (s *QuestService) Get(ctx context.Context, guildID string, questID ident.ID) (*model.Quest, error) {
	return s.load(ctx, guildID, questID)
}

// QuestListFilter selects which quests to list. At most one dimension may be
// set; an empty filter lists the whole guild.
type QuestListFilter struct {
	Status         *model.QuestStatus
	RefereeID      *ident.ID
	NeedingSummary bool
}

func (f QuestListFilter) dimensions() int {
	n := 0
	if f.Status != nil {
		n++
	}
	if f.RefereeID != nil {
		n++
	}
	if f.NeedingSummary {
		n++
	}
	return n
}

// List retrieves quests in a guild. Combining filter dimensions is rejected
// before any repository call.
func (s *QuestService) List(ctx context.Context, guildID string, filter QuestListFilter, limit, offset int) ([]*model.Quest, error) {
	if filter.dimensions() > 1 {
		return nil, fmt.Errorf("%w: set at most one of status, referee, needing_summary", ErrAmbiguousFilter)
	}
	opts := repository.ListOptions{Limit: int64(limit), Offset: int64(offset)}
	switch {
	case filter.Status != nil:
		return s.repo.ListByStatus(ctx, guildID, *filter.Status, opts)
	case filter.RefereeID != nil:
		return s.repo.ListByReferee(ctx, guildID, *filter.RefereeID, opts)
	case filter.NeedingSummary:
		return s.repo.ListNeedingSummary(ctx, guildID, opts)
	default:
		return s.repo.ListByGuild(ctx, guildID, opts)
	}
}

// Announce publishes a draft quest and attaches the Discord message it was
// announced with
func (s *QuestService) Announce(ctx context.Context, guildID string, actor Actor, questID ident.ID, channelID, messageID string) (*model.Quest, error) {
	return s.transition(ctx, guildID, actor, questID, model.EventQuestAnnounced, func(q *model.Quest) error {
		return q.Announce(channelID, messageID)
	})
}

// CloseSignups stops accepting new signups
func (s *QuestService) CloseSignups(ctx context.Context, guildID string, actor Actor, questID ident.ID) (*model.Quest, error) {
	return s.transition(ctx, guildID, actor, questID, model.EventSignupsClosed, (*model.Quest).CloseSignups)
}

// MarkRunning records that the session has started
func (s *QuestService) MarkRunning(ctx context.Context, guildID string, actor Actor, questID ident.ID) (*model.Quest, error) {
	return s.transition(ctx, guildID, actor, questID, model.EventQuestRunning, (*model.Quest).MarkRunning)
}

// MarkCompleted records that the session finished and credits participation
// to the selected players, their characters, and the referee
func (s *QuestService) MarkCompleted(ctx context.Context, guildID string, actor Actor, questID ident.ID) (*model.Quest, error) {
	quest, err := s.transition(ctx, guildID, actor, questID, model.EventQuestCompleted, (*model.Quest).MarkCompleted)
	if err != nil {
		return nil, err
	}
	s.creditCompletion(ctx, quest)
	return quest, nil
}

// MarkCancelled cancels the quest from any non-terminal state
func (s *QuestService) MarkCancelled(ctx context.Context, guildID string, actor Actor, questID ident.ID) (*model.Quest, error) {
	return s.transition(ctx, guildID, actor, questID, model.EventQuestCancelled, (*model.Quest).MarkCancelled)
}

// Nudge re-promotes an announced quest, subject to the cooldown window
func (s *QuestService) Nudge(ctx context.Context, guildID string, actor Actor, questID ident.ID) (*model.Quest, error) {
	quest, err := s.load(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(quest, actor); err != nil {
		return nil, err
	}

	prev := quest.Status
	if err := quest.Nudge(s.nowFunc()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, quest, prev); err != nil {
		return nil, err
	}

	s.record(ctx, model.EventNudgeSent, guildID, quest.ID, actor)
	return quest, nil
}

// AddSignup applies the acting player to a quest with one of their characters
func (s *QuestService) AddSignup(ctx context.Context, guildID string, actor Actor, questID, characterID ident.ID) (*model.Quest, error) {
	if !actor.IsPlayer() {
		return nil, ErrNotAPlayer
	}

	character, err := s.charRepo.Get(ctx, guildID, characterID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCharacterNotFound, characterID)
	}
	if err != nil {
		return nil, err
	}
	if !character.OwnedBy(actor.UserID) {
		return nil, ErrCharacterNotOwned
	}

	quest, err := s.load(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}

	prev := quest.Status
	if err := quest.AddSignup(actor.UserID, characterID, s.nowFunc()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, quest, prev); err != nil {
		return nil, err
	}

	s.record(ctx, model.EventSignupAdded, guildID, quest.ID, actor)
	return quest, nil
}

// SelectSignup promotes a user's applied signup to selected
func (s *QuestService) SelectSignup(ctx context.Context, guildID string, actor Actor, questID, userID ident.ID) (*model.Quest, error) {
	quest, err := s.load(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(quest, actor); err != nil {
		return nil, err
	}

	prev := quest.Status
	if err := quest.SelectSignup(userID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, quest, prev); err != nil {
		return nil, err
	}

	s.record(ctx, model.EventSignupSelected, guildID, quest.ID, actor)
	return quest, nil
}

// RemoveSignup drops a user's signup. Players may withdraw themselves; the
// quest's referee and admins may remove anyone.
func (s *QuestService) RemoveSignup(ctx context.Context, guildID string, actor Actor, questID, userID ident.ID) (*model.Quest, error) {
	quest, err := s.load(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}
	if userID != actor.UserID {
		if err := s.authorizeOwner(quest, actor); err != nil {
			return nil, ErrNotSignupOwner
		}
	}

	prev := quest.Status
	if err := quest.RemoveSignup(userID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, quest, prev); err != nil {
		return nil, err
	}

	s.record(ctx, model.EventSignupRemoved, guildID, quest.ID, actor)
	return quest, nil
}

// Delete removes a quest. Admins may delete any quest; referees only their
// own drafts.
func (s *QuestService) Delete(ctx context.Context, guildID string, actor Actor, questID ident.ID) error {
	quest, err := s.load(ctx, guildID, questID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		if quest.RefereeID != actor.UserID {
			return ErrNotQuestReferee
		}
		if quest.Status != model.QuestStatusDraft {
			return fmt.Errorf("%w: only draft quests can be deleted by their referee", model.ErrInvalidState)
		}
	}

	if err := s.repo.Delete(ctx, guildID, questID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrQuestNotFound, questID)
		}
		return err
	}

	s.record(ctx, model.EventQuestDeleted, guildID, questID, actor)
	return nil
}

// AttachSummary links a stored summary to its quest and clears the
// summary-needed flag. Called by the summary service after creation.
func (s *QuestService) AttachSummary(ctx context.Context, guildID string, actor Actor, questID, summaryID ident.ID) (*model.Quest, error) {
	quest, err := s.load(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}

	prev := quest.Status
	quest.AttachSummary(summaryID)
	if err := s.save(ctx, quest, prev); err != nil {
		return nil, err
	}
	return quest, nil
}

// ===== Internals =====

func (s *QuestService) load(ctx context.Context, guildID string, questID ident.ID) (*model.Quest, error) {
	quest, err := s.repo.Get(ctx, guildID, questID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrQuestNotFound, questID)
	}
	if err != nil {
		return nil, err
	}
	return quest, nil
}

// save persists a quest transition conditioned on the status it was read at.
// A lost precondition surfaces as ErrConflict so callers re-read and retry
// instead of overwriting a newer state.
func (s *QuestService) save(ctx context.Context, quest *model.Quest, expected model.QuestStatus) error {
	err := s.repo.Update(ctx, quest, expected)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrPrecondition):
		return fmt.Errorf("%w: quest %s changed concurrently", ErrConflict, quest.ID)
	case errors.Is(err, database.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrQuestNotFound, quest.ID)
	default:
		return err
	}
}

func (s *QuestService) authorizeOwner(quest *model.Quest, actor Actor) error {
	if actor.IsAdmin() || quest.RefereeID == actor.UserID {
		return nil
	}
	return ErrNotQuestReferee
}

func (s *QuestService) transition(ctx context.Context, guildID string, actor Actor, questID ident.ID, event string, fn func(*model.Quest) error) (*model.Quest, error) {
	quest, err := s.load(ctx, guildID, questID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwner(quest, actor); err != nil {
		return nil, err
	}

	prev := quest.Status
	if err := fn(quest); err != nil {
		return nil, err
	}
	if err := s.save(ctx, quest, prev); err != nil {
		return nil, err
	}

	s.record(ctx, event, guildID, quest.ID, actor)
	return quest, nil
}

// creditCompletion bumps play counters for selected players, their
// characters, and the referee. Failures here must not undo the completed
// quest, so they are logged and skipped.
func (s *QuestService) creditCompletion(ctx context.Context, quest *model.Quest) {
	now := s.nowFunc()

	for _, signup := range quest.Signups {
		if signup.Status != model.SignupStatusSelected {
			continue
		}

		user, err := s.userRepo.Get(ctx, quest.GuildID, signup.UserID)
		if err != nil {
			s.logger.WarnContext(ctx, "crediting player failed",
				"quest_id", quest.ID, "user_id", signup.UserID, "error", err)
		} else {
			if user.Player == nil {
				user.Player = &model.PlayerProfile{}
			}
			user.Player.QuestsPlayed++
			t := now
			user.Player.LastPlayedAt = &t
			if err := s.userRepo.Upsert(ctx, user); err != nil {
				s.logger.WarnContext(ctx, "saving player credit failed",
					"quest_id", quest.ID, "user_id", signup.UserID, "error", err)
			}
		}

		character, err := s.charRepo.Get(ctx, quest.GuildID, signup.CharacterID)
		if err != nil {
			s.logger.WarnContext(ctx, "crediting character failed",
				"quest_id", quest.ID, "character_id", signup.CharacterID, "error", err)
			continue
		}
		character.RecordPlayed(now)
		if err := s.charRepo.Upsert(ctx, character); err != nil {
			s.logger.WarnContext(ctx, "saving character credit failed",
				"quest_id", quest.ID, "character_id", signup.CharacterID, "error", err)
		}
	}

	referee, err := s.userRepo.Get(ctx, quest.GuildID, quest.RefereeID)
	if err != nil {
		s.logger.WarnContext(ctx, "crediting referee failed",
			"quest_id", quest.ID, "user_id", quest.RefereeID, "error", err)
		return
	}
	if referee.Referee == nil {
		referee.Referee = &model.RefereeProfile{}
	}
	referee.Referee.QuestsRun++
	t := now
	referee.Referee.LastRanAt = &t
	if err := s.userRepo.Upsert(ctx, referee); err != nil {
		s.logger.WarnContext(ctx, "saving referee credit failed",
			"quest_id", quest.ID, "user_id", quest.RefereeID, "error", err)
	}
}

func (s *QuestService) record(ctx context.Context, event, guildID string, questID ident.ID, actor Actor) {
	s.recorder.Record(ctx, model.DomainEvent{
		Event:     event,
		GuildID:   guildID,
		QuestID:   questID.String(),
		ActorID:   actor.UserID.String(),
		Timestamp: s.nowFunc(),
	})
}
