package model

import "time"

// Domain event names emitted by lifecycle operations.
const (
	EventQuestCreated   = "quest_created"
	EventQuestAnnounced = "quest_announced"
	EventSignupAdded    = "signup_added"
	EventSignupSelected = "signup_selected"
	EventSignupRemoved  = "signup_removed"
	EventSignupsClosed  = "signups_closed"
	EventQuestRunning   = "quest_running"
	EventQuestCompleted = "quest_completed"
	EventQuestCancelled = "quest_cancelled"
	EventQuestDeleted   = "quest_deleted"
	EventNudgeSent      = "nudge_sent"
	EventSummaryCreated = "summary_created"
	EventSummaryEdited  = "summary_edited"
)

// DomainEvent is the structured fact emitted after every state-changing
// lifecycle operation. It is sink-agnostic; the telemetry collaborator
// decides how to format and ship it.
type DomainEvent struct {
	Event     string    `json:"event"`
	GuildID   string    `json:"guild_id"`
	QuestID   string    `json:"quest_id,omitempty"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}
