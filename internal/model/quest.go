package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ravenhall/questboard/internal/ident"
)

// QuestStatus is the lifecycle state of a quest.
type QuestStatus string

// Quest lifecycle states. The legal transitions are
// DRAFT → ANNOUNCED → SIGNUP_CLOSED → RUNNING → COMPLETED, with CANCELLED
// reachable from any non-terminal state and RUNNING also reachable directly
// from ANNOUNCED (a referee may start without formally closing signups).
const (
	QuestStatusDraft        QuestStatus = "DRAFT"
	QuestStatusAnnounced    QuestStatus = "ANNOUNCED"
	QuestStatusSignupClosed QuestStatus = "SIGNUP_CLOSED"
	QuestStatusRunning      QuestStatus = "RUNNING"
	QuestStatusCompleted    QuestStatus = "COMPLETED"
	QuestStatusCancelled    QuestStatus = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s QuestStatus) Terminal() bool {
	return s == QuestStatusCompleted || s == QuestStatusCancelled
}

// SignupStatus is the state of a single player signup within a quest.
type SignupStatus string

// Signup states.
const (
	SignupStatusApplied  SignupStatus = "APPLIED"
	SignupStatusSelected SignupStatus = "SELECTED"
)

// Quest duration constraints, carried over from the publishing rules.
const (
	MinQuestDuration = 15 * time.Minute
	MaxQuestDuration = 24 * time.Hour
)

// NudgeCooldown is the minimum wall-clock gap between nudges of one quest.
// The timestamp lives on the quest document so the gate survives restarts.
const NudgeCooldown = 48 * time.Hour

// Signup is a player's request to join a quest with a specific character.
// It is a plain value owned by its quest: no back-pointer, no identity of
// its own. Repository round trips replace the whole sequence.
type Signup struct {
	UserID      ident.ID     `json:"user_id" bson:"user_id"`
	CharacterID ident.ID     `json:"character_id" bson:"character_id"`
	Status      SignupStatus `json:"status" bson:"status"`
	AppliedAt   time.Time    `json:"applied_at" bson:"applied_at"`
}

// Quest is a scheduled tabletop session run by a referee.
type Quest struct {
	ID        ident.ID `json:"id" bson:"id"`
	GuildID   string   `json:"guild_id" bson:"guild_id"`
	RefereeID ident.ID `json:"referee_id" bson:"referee_id"`

	Title       string        `json:"title" bson:"title"`
	Description string        `json:"description,omitempty" bson:"description,omitempty"`
	StartingAt  time.Time     `json:"starting_at" bson:"starting_at"`
	Duration    time.Duration `json:"duration" bson:"duration"`
	ImageURL    string        `json:"image_url,omitempty" bson:"image_url,omitempty"`

	// Discord linkage, attached when the quest is announced.
	ChannelID string `json:"channel_id,omitempty" bson:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty" bson:"message_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty" bson:"thread_id,omitempty"`

	Status        QuestStatus `json:"status" bson:"status"`
	LastNudgedAt  *time.Time  `json:"last_nudged_at,omitempty" bson:"last_nudged_at,omitempty"`
	SummaryNeeded bool        `json:"summary_needed" bson:"summary_needed"`

	// Signups in request order.
	Signups    []Signup   `json:"signups" bson:"signups"`
	SummaryIDs []ident.ID `json:"summary_ids" bson:"summary_ids"`

	CreatedOn time.Time `json:"created_on" bson:"created_on"`
	UpdatedOn time.Time `json:"updated_on" bson:"updated_on"`
}

// ValidateNew checks the invariants enforced at creation time. StartingAt
// must be in the future relative to now; it is not re-checked on later
// transitions.
func (q *Quest) ValidateNew(now time.Time) error {
	if q.GuildID == "" {
		return fmt.Errorf("%w: guild_id is required", ErrInvalidQuest)
	}
	if q.RefereeID.IsZero() {
		return fmt.Errorf("%w: referee_id is required", ErrInvalidQuest)
	}
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuest)
	}
	if q.Duration < MinQuestDuration || q.Duration > MaxQuestDuration {
		return fmt.Errorf("%w: duration must be between %s and %s", ErrInvalidQuest,
			MinQuestDuration, MaxQuestDuration)
	}
	if !q.StartingAt.After(now) {
		return fmt.Errorf("%w: starting time must be in the future", ErrInvalidQuest)
	}
	if q.ImageURL != "" &&
		!strings.HasPrefix(q.ImageURL, "http://") &&
		!strings.HasPrefix(q.ImageURL, "https://") {
		return fmt.Errorf("%w: image URL must start with http:// or https://", ErrInvalidQuest)
	}
	return nil
}

// Announce publishes a draft quest, attaching the Discord message it was
// announced with.
func (q *Quest) Announce(channelID, messageID string) error {
	if q.Status != QuestStatusDraft {
		return fmt.Errorf("%w: cannot announce quest in status %s", ErrInvalidState, q.Status)
	}
	q.Status = QuestStatusAnnounced
	q.ChannelID = channelID
	q.MessageID = messageID
	return nil
}

// CloseSignups stops accepting new signups.
func (q *Quest) CloseSignups() error {
	if q.Status != QuestStatusAnnounced {
		return fmt.Errorf("%w: cannot close signups in status %s", ErrInvalidState, q.Status)
	}
	q.Status = QuestStatusSignupClosed
	return nil
}

// MarkRunning records that the session has started.
func (q *Quest) MarkRunning() error {
	if q.Status != QuestStatusSignupClosed && q.Status != QuestStatusAnnounced {
		return fmt.Errorf("%w: cannot start quest in status %s", ErrInvalidState, q.Status)
	}
	q.Status = QuestStatusRunning
	return nil
}

// MarkCompleted records that the session finished and flags the quest as
// needing a summary.
func (q *Quest) MarkCompleted() error {
	if q.Status != QuestStatusRunning {
		return fmt.Errorf("%w: cannot complete quest in status %s", ErrInvalidState, q.Status)
	}
	q.Status = QuestStatusCompleted
	q.SummaryNeeded = true
	return nil
}

// MarkCancelled cancels the quest from any non-terminal state.
func (q *Quest) MarkCancelled() error {
	if q.Status.Terminal() {
		return fmt.Errorf("%w: cannot cancel quest in status %s", ErrInvalidState, q.Status)
	}
	q.Status = QuestStatusCancelled
	return nil
}

// SignupOpen reports whether new signups are currently accepted.
func (q *Quest) SignupOpen() bool {
	return q.Status == QuestStatusAnnounced
}

// AddSignup appends an APPLIED signup. A player may field different
// characters across quests, but the same (user, character) pair must not
// apply twice to one quest.
func (q *Quest) AddSignup(userID, characterID ident.ID, now time.Time) error {
	if !q.SignupOpen() {
		return fmt.Errorf("%w: signups are not open in status %s", ErrInvalidState, q.Status)
	}
	for _, s := range q.Signups {
		if s.UserID == userID && s.CharacterID == characterID {
			return fmt.Errorf("%w: %s already applied with %s", ErrDuplicateSignup, userID, characterID)
		}
	}
	q.Signups = append(q.Signups, Signup{
		UserID:      userID,
		CharacterID: characterID,
		Status:      SignupStatusApplied,
		AppliedAt:   now,
	})
	return nil
}

// SelectSignup promotes a user's APPLIED signup to SELECTED.
func (q *Quest) SelectSignup(userID ident.ID) error {
	for i, s := range q.Signups {
		if s.UserID == userID && s.Status == SignupStatusApplied {
			q.Signups[i].Status = SignupStatusSelected
			return nil
		}
	}
	return fmt.Errorf("%w: no applied signup for %s", ErrSignupNotFound, userID)
}

// RemoveSignup drops a user's signup regardless of its status.
func (q *Quest) RemoveSignup(userID ident.ID) error {
	for i, s := range q.Signups {
		if s.UserID == userID {
			q.Signups = append(q.Signups[:i], q.Signups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: no signup for %s", ErrSignupNotFound, userID)
}

// FindSignup returns the user's signup, if any.
func (q *Quest) FindSignup(userID ident.ID) (Signup, bool) {
	for _, s := range q.Signups {
		if s.UserID == userID {
			return s, true
		}
	}
	return Signup{}, false
}

// Nudge re-promotes an announced quest, gated by NudgeCooldown. On success
// it stamps LastNudgedAt with now; within the window it returns a
// CooldownError carrying the remaining wait.
func (q *Quest) Nudge(now time.Time) error {
	if q.Status != QuestStatusAnnounced && q.Status != QuestStatusSignupClosed {
		return fmt.Errorf("%w: cannot nudge quest in status %s", ErrInvalidState, q.Status)
	}
	if q.LastNudgedAt != nil {
		elapsed := now.Sub(*q.LastNudgedAt)
		if elapsed < NudgeCooldown {
			return &CooldownError{Remaining: NudgeCooldown - elapsed}
		}
	}
	t := now
	q.LastNudgedAt = &t
	return nil
}

// AttachSummary links a summary to the quest and clears the summary-needed
// flag. Attaching the same summary twice is a no-op.
func (q *Quest) AttachSummary(summaryID ident.ID) {
	for _, id := range q.SummaryIDs {
		if id == summaryID {
			return
		}
	}
	q.SummaryIDs = append(q.SummaryIDs, summaryID)
	q.SummaryNeeded = false
}
