package model

import (
	"time"

	"github.com/ravenhall/questboard/internal/ident"
)

// Role is a guild-scoped capability granted to a user.
type Role string

// Guild roles. Every user starts as MEMBER; PLAYER unlocks signups; REFEREE
// unlocks quest ownership and requires PLAYER first; ADMIN is unrestricted.
const (
	RoleMember  Role = "MEMBER"
	RolePlayer  Role = "PLAYER"
	RoleReferee Role = "REFEREE"
	RoleAdmin   Role = "ADMIN"
)

// RoleSet is an ordered, duplicate-free collection of roles.
type RoleSet []Role

// Has reports whether the set contains the role.
func (rs RoleSet) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// PlayerProfile tracks a user's activity as a player.
type PlayerProfile struct {
	QuestsPlayed int        `json:"quests_played" bson:"quests_played"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty" bson:"last_played_at,omitempty"`
}

// RefereeProfile tracks a user's activity as a referee.
type RefereeProfile struct {
	QuestsRun int        `json:"quests_run" bson:"quests_run"`
	LastRanAt *time.Time `json:"last_ran_at,omitempty" bson:"last_ran_at,omitempty"`
}

// User is a guild member enriched with role and engagement telemetry.
// Created on first interaction with the bot in a guild.
type User struct {
	ID        ident.ID `json:"id" bson:"id"`
	GuildID   string   `json:"guild_id" bson:"guild_id"`
	DiscordID string   `json:"discord_id" bson:"discord_id"`
	Roles     RoleSet  `json:"roles" bson:"roles"`

	JoinedAt     time.Time  `json:"joined_at" bson:"joined_at"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty" bson:"last_active_at,omitempty"`

	// Engagement counters.
	MessagesCount     int     `json:"messages_count" bson:"messages_count"`
	ReactionsGiven    int     `json:"reactions_given" bson:"reactions_given"`
	ReactionsReceived int     `json:"reactions_received" bson:"reactions_received"`
	VoiceHours        float64 `json:"voice_hours" bson:"voice_hours"`

	Player  *PlayerProfile  `json:"player,omitempty" bson:"player,omitempty"`
	Referee *RefereeProfile `json:"referee,omitempty" bson:"referee,omitempty"`

	CharacterIDs []ident.ID `json:"character_ids" bson:"character_ids"`
}

// NewUser creates a freshly provisioned MEMBER.
func NewUser(id ident.ID, guildID, discordID string, now time.Time) *User {
	return &User{
		ID:        id,
		GuildID:   guildID,
		DiscordID: discordID,
		Roles:     RoleSet{RoleMember},
		JoinedAt:  now,
	}
}

// HasRole reports whether the user holds the role.
func (u *User) HasRole(role Role) bool {
	return u.Roles.Has(role)
}

// GrantRole adds a role, enforcing the role ladder: REFEREE requires PLAYER.
// Granting an already-held role is a no-op.
func (u *User) GrantRole(role Role) error {
	if u.HasRole(role) {
		return nil
	}
	if role == RoleReferee && !u.HasRole(RolePlayer) {
		return ErrRefereeRequiresPlayer
	}
	u.Roles = append(u.Roles, role)
	switch role {
	case RolePlayer:
		if u.Player == nil {
			u.Player = &PlayerProfile{}
		}
	case RoleReferee:
		if u.Referee == nil {
			u.Referee = &RefereeProfile{}
		}
	}
	return nil
}

// RevokeRole removes a role if held. MEMBER cannot be revoked.
func (u *User) RevokeRole(role Role) {
	if role == RoleMember {
		return
	}
	for i, r := range u.Roles {
		if r == role {
			u.Roles = append(u.Roles[:i], u.Roles[i+1:]...)
			return
		}
	}
}

// Touch records activity at the given time.
func (u *User) Touch(now time.Time) {
	t := now
	u.LastActiveAt = &t
}

// RecordMessage bumps the message counter.
func (u *User) RecordMessage(now time.Time) {
	u.MessagesCount++
	u.Touch(now)
}

// RecordReaction bumps the reaction counters.
func (u *User) RecordReaction(given bool, now time.Time) {
	if given {
		u.ReactionsGiven++
	} else {
		u.ReactionsReceived++
	}
	u.Touch(now)
}

// RecordVoice adds voice time in hours.
func (u *User) RecordVoice(hours float64, now time.Time) {
	if hours > 0 {
		u.VoiceHours += hours
	}
	u.Touch(now)
}

// LinkCharacter associates a character with the user. Idempotent.
func (u *User) LinkCharacter(characterID ident.ID) {
	for _, id := range u.CharacterIDs {
		if id == characterID {
			return
		}
	}
	u.CharacterIDs = append(u.CharacterIDs, characterID)
}

// UnlinkCharacter removes the association if present.
func (u *User) UnlinkCharacter(characterID ident.ID) {
	for i, id := range u.CharacterIDs {
		if id == characterID {
			u.CharacterIDs = append(u.CharacterIDs[:i], u.CharacterIDs[i+1:]...)
			return
		}
	}
}
