package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ravenhall/questboard/internal/ident"
)

// SummaryKind distinguishes who wrote a quest summary.
type SummaryKind string

// Summary kinds.
const (
	SummaryKindPlayer  SummaryKind = "PLAYER"
	SummaryKindReferee SummaryKind = "REFEREE"
)

// Summary is a write-up of a quest session. A quest may accumulate many
// summaries; each has its own lifecycle and references its quest by ID
// rather than being owned by it.
type Summary struct {
	ID       ident.ID    `json:"id" bson:"id"`
	GuildID  string      `json:"guild_id" bson:"guild_id"`
	QuestID  ident.ID    `json:"quest_id" bson:"quest_id"`
	AuthorID ident.ID    `json:"author_id" bson:"author_id"`
	Kind     SummaryKind `json:"kind" bson:"kind"`

	Raw         string `json:"raw" bson:"raw"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	CreatedOn    time.Time  `json:"created_on" bson:"created_on"`
	LastEditedAt *time.Time `json:"last_edited_at,omitempty" bson:"last_edited_at,omitempty"`

	Players    []ident.ID `json:"players" bson:"players"`
	Characters []ident.ID `json:"characters" bson:"characters"`

	LinkedQuests    []ident.ID `json:"linked_quests" bson:"linked_quests"`
	LinkedSummaries []ident.ID `json:"linked_summaries" bson:"linked_summaries"`
}

// Validate checks the summary's content invariants. Player-kind summaries
// must reference at least one player and one character.
func (s *Summary) Validate() error {
	if s.Kind != SummaryKindPlayer && s.Kind != SummaryKindReferee {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSummary, s.Kind)
	}
	if s.GuildID == "" {
		return fmt.Errorf("%w: guild_id is required", ErrInvalidSummary)
	}
	if s.QuestID.IsZero() {
		return fmt.Errorf("%w: quest_id is required", ErrInvalidSummary)
	}
	if strings.TrimSpace(s.Raw) == "" {
		return fmt.Errorf("%w: content cannot be empty", ErrInvalidSummary)
	}
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidSummary)
	}
	if strings.TrimSpace(s.Description) == "" {
		return fmt.Errorf("%w: description cannot be empty", ErrInvalidSummary)
	}
	if s.Kind == SummaryKindPlayer {
		if len(s.Players) == 0 {
			return fmt.Errorf("%w: at least one player must be referenced", ErrInvalidSummary)
		}
		if len(s.Characters) == 0 {
			return fmt.Errorf("%w: at least one character must be referenced", ErrInvalidSummary)
		}
	}
	return nil
}

// Edit replaces the summary content and stamps the edit time.
func (s *Summary) Edit(raw, title, description string, now time.Time) error {
	prevRaw, prevTitle, prevDesc := s.Raw, s.Title, s.Description
	s.Raw, s.Title, s.Description = raw, title, description
	if err := s.Validate(); err != nil {
		s.Raw, s.Title, s.Description = prevRaw, prevTitle, prevDesc
		return err
	}
	t := now
	s.LastEditedAt = &t
	return nil
}

// LinkQuest adds a cross-reference to another quest. Idempotent.
func (s *Summary) LinkQuest(questID ident.ID) {
	for _, id := range s.LinkedQuests {
		if id == questID {
			return
		}
	}
	s.LinkedQuests = append(s.LinkedQuests, questID)
}

// LinkSummary adds a cross-reference to another summary. Idempotent.
func (s *Summary) LinkSummary(summaryID ident.ID) {
	for _, id := range s.LinkedSummaries {
		if id == summaryID {
			return
		}
	}
	s.LinkedSummaries = append(s.LinkedSummaries, summaryID)
}
