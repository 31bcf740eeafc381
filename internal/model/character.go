package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ravenhall/questboard/internal/ident"
)

// Character is a player character belonging to exactly one user. Signups
// require the applying user to own the character they field.
type Character struct {
	ID      ident.ID `json:"id" bson:"id"`
	GuildID string   `json:"guild_id" bson:"guild_id"`
	OwnerID ident.ID `json:"owner_id" bson:"owner_id"`

	Name  string `json:"name" bson:"name"`
	Class string `json:"class,omitempty" bson:"class,omitempty"`
	Level int    `json:"level" bson:"level"`

	CreatedOn    time.Time  `json:"created_on" bson:"created_on"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty" bson:"last_played_at,omitempty"`
	QuestsPlayed int        `json:"quests_played" bson:"quests_played"`
}

// Validate checks the character's invariants.
func (c *Character) Validate() error {
	if c.GuildID == "" {
		return fmt.Errorf("%w: guild_id is required", ErrInvalidCharacter)
	}
	if c.OwnerID.IsZero() {
		return fmt.Errorf("%w: owner_id is required", ErrInvalidCharacter)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCharacter)
	}
	if c.Level < 0 {
		return fmt.Errorf("%w: level cannot be negative", ErrInvalidCharacter)
	}
	return nil
}

// OwnedBy reports whether the character belongs to the user.
func (c *Character) OwnedBy(userID ident.ID) bool {
	return c.OwnerID == userID
}

// RecordPlayed bumps the play counters after a completed quest.
func (c *Character) RecordPlayed(now time.Time) {
	c.QuestsPlayed++
	t := now
	c.LastPlayedAt = &t
}
