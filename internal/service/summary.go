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

// SummaryRepository defines the interface for summary storage
type SummaryRepository interface {
	Create(ctx context.Context, summary *model.Summary) error
	Get(ctx context.Context, guildID string, id ident.ID) (*model.Summary, error)
	Upsert(ctx context.Context, summary *model.Summary) error
	Exists(ctx context.Context, guildID string, id ident.ID) (bool, error)
	ListByQuest(ctx context.Context, guildID string, questID ident.ID, opts repository.ListOptions) ([]*model.Summary, error)
	ListByAuthor(ctx context.Context, guildID string, authorID ident.ID, opts repository.ListOptions) ([]*model.Summary, error)
}

// SummaryQuestService is the slice of the quest service the summary service
// uses to attach summaries to their quests
type SummaryQuestService interface {
	Get(ctx context.Context, guildID string, questID ident.ID) (*model.Quest, error)
	AttachSummary(ctx context.Context, guildID string, actor Actor, questID, summaryID ident.ID) (*model.Quest, error)
}

// SummaryService handles quest write-ups
type SummaryService struct {
	repo     SummaryRepository
	quests   SummaryQuestService
	idgen    *ident.Generator
	recorder Recorder
	nowFunc  func() time.Time
}

// SummaryServiceConfig holds configuration for the summary service
type SummaryServiceConfig struct {
	SummaryRepo  SummaryRepository
	QuestService SummaryQuestService
	Recorder     Recorder

	// NowFunc overrides the clock, for tests. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewSummaryService creates a new summary service
func NewSummaryService(cfg SummaryServiceConfig) *SummaryService {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NewSlogRecorder(nil)
	}
	nowFunc := cfg.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &SummaryService{
		repo:     cfg.SummaryRepo,
		quests:   cfg.QuestService,
		idgen:    ident.NewGenerator(cfg.SummaryRepo.Exists),
		recorder: recorder,
		nowFunc:  nowFunc,
	}
}

// CreateSummaryRequest carries the fields for a new summary
type CreateSummaryRequest struct {
	QuestID     ident.ID          `json:"quest_id"`
	Kind        model.SummaryKind `json:"kind"`
	Raw         string            `json:"raw"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Players     []ident.ID        `json:"players"`
	Characters  []ident.ID        `json:"characters"`
}

// Create writes a summary for a completed quest and attaches it. Player
// summaries require the PLAYER role; referee summaries require the author to
// be the quest's referee (or an admin).
func (s *SummaryService) Create(ctx context.Context, guildID string, actor Actor, req CreateSummaryRequest) (*model.Summary, error) {
	quest, err := s.quests.Get(ctx, guildID, req.QuestID)
	if err != nil {
		return nil, err
	}
	if quest.Status != model.QuestStatusCompleted {
		return nil, fmt.Errorf("%w: %s is %s", ErrQuestNotCompleted, quest.ID, quest.Status)
	}

	switch req.Kind {
	case model.SummaryKindPlayer:
		if !actor.IsPlayer() {
			return nil, ErrNotAPlayer
		}
	case model.SummaryKindReferee:
		if !actor.IsAdmin() && quest.RefereeID != actor.UserID {
			return nil, ErrNotQuestReferee
		}
	}

	summary := &model.Summary{
		GuildID:     guildID,
		QuestID:     req.QuestID,
		AuthorID:    actor.UserID,
		Kind:        req.Kind,
		Raw:         req.Raw,
		Title:       req.Title,
		Description: req.Description,
		Players:     req.Players,
		Characters:  req.Characters,
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}

	id, err := s.idgen.Generate(ctx, ident.PrefixSummary, guildID)
	if err != nil {
		return nil, fmt.Errorf("generating summary id: %w", err)
	}
	summary.ID = id

	if err := s.repo.Create(ctx, summary); err != nil {
		return nil, fmt.Errorf("creating summary: %w", err)
	}

	if _, err := s.quests.AttachSummary(ctx, guildID, actor, quest.ID, summary.ID); err != nil {
		return nil, fmt.Errorf("attaching summary to quest: %w", err)
	}

	s.recorder.Record(ctx, model.DomainEvent{
		Event:     model.EventSummaryCreated,
		GuildID:   guildID,
		QuestID:   quest.ID.String(),
		ActorID:   actor.UserID.String(),
		Timestamp: s.nowFunc(),
	})
	return summary, nil
}

// Get retrieves a summary
func (s *SummaryService) Get(ctx context.Context, guildID string, summaryID ident.ID) (*model.Summary, error) {
	return s.load(ctx, guildID, summaryID)
}

// ListByQuest retrieves a quest's summaries
func (s *SummaryService) ListByQuest(ctx context.Context, guildID string, questID ident.ID, limit, offset int) ([]*model.Summary, error) {
	opts := repository.ListOptions{Limit: int64(limit), Offset: int64(offset)}
	return s.repo.ListByQuest(ctx, guildID, questID, opts)
}

// ListByAuthor retrieves summaries written by one user
func (s *SummaryService) ListByAuthor(ctx context.Context, guildID string, authorID ident.ID, limit, offset int) ([]*model.Summary, error) {
	opts := repository.ListOptions{Limit: int64(limit), Offset: int64(offset)}
	return s.repo.ListByAuthor(ctx, guildID, authorID, opts)
}

// EditSummaryRequest carries replacement content for an existing summary
type EditSummaryRequest struct {
	Raw         string `json:"raw"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Edit replaces a summary's content. Author or admin only.
func (s *SummaryService) Edit(ctx context.Context, guildID string, actor Actor, summaryID ident.ID, req EditSummaryRequest) (*model.Summary, error) {
	summary, err := s.load(ctx, guildID, summaryID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && summary.AuthorID != actor.UserID {
		return nil, ErrNotSummaryAuthor
	}

	if err := summary.Edit(req.Raw, req.Title, req.Description, s.nowFunc()); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, summary); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, model.DomainEvent{
		Event:     model.EventSummaryEdited,
		GuildID:   guildID,
		QuestID:   summary.QuestID.String(),
		ActorID:   actor.UserID.String(),
		Timestamp: s.nowFunc(),
	})
	return summary, nil
}

// LinkQuest cross-references another quest from a summary. Author or admin.
func (s *SummaryService) LinkQuest(ctx context.Context, guildID string, actor Actor, summaryID, questID ident.ID) (*model.Summary, error) {
	summary, err := s.load(ctx, guildID, summaryID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && summary.AuthorID != actor.UserID {
		return nil, ErrNotSummaryAuthor
	}
	if _, err := s.quests.Get(ctx, guildID, questID); err != nil {
		return nil, err
	}

	summary.LinkQuest(questID)
	if err := s.repo.Upsert(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// LinkSummary cross-references another summary. Author or admin.
func (s *SummaryService) LinkSummary(ctx context.Context, guildID string, actor Actor, summaryID, otherID ident.ID) (*model.Summary, error) {
	summary, err := s.load(ctx, guildID, summaryID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && summary.AuthorID != actor.UserID {
		return nil, ErrNotSummaryAuthor
	}
	if _, err := s.load(ctx, guildID, otherID); err != nil {
		return nil, err
	}

	summary.LinkSummary(otherID)
	if err := s.repo.Upsert(ctx, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *SummaryService) load(ctx context.Context, guildID string, summaryID ident.ID) (*model.Summary, error) {
	summary, err := s.repo.Get(ctx, guildID, summaryID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSummaryNotFound, summaryID)
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}
