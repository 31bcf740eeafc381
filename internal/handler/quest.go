package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

// QuestHandler handles quest lifecycle endpoints
type QuestHandler struct {
	quests *service.QuestService
	users  ActorDirectory
}

// NewQuestHandler creates a new quest handler
func NewQuestHandler(quests *service.QuestService, users ActorDirectory) *QuestHandler {
	return &QuestHandler{
		quests: quests,
		users:  users,
	}
}

// CreateQuestRequest carries the wire form of a new quest. Duration travels
// in minutes; the engine works in time.Duration.
type CreateQuestRequest struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartingAt      time.Time `json:"starting_at"`
	DurationMinutes int       `json:"duration_minutes"`
	ImageURL        string    `json:"image_url,omitempty"`
}

// Create handles POST /v1/guilds/{guildId}/quests
func (h *QuestHandler) Create(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req CreateQuestRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	quest, err := h.quests.Create(r.Context(), guildID, actor, service.CreateQuestRequest{
		Title:       req.Title,
		Description: req.Description,
		StartingAt:  req.StartingAt,
		Duration:    time.Duration(req.DurationMinutes) * time.Minute,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, quest, map[string]string{
		"self": "/v1/guilds/" + guildID + "/quests/" + quest.ID.String(),
	})
}

// Get handles GET /v1/guilds/{guildId}/quests/{questId}
func (h *QuestHandler) Get(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	quest, err := h.quests.Get(r.Context(), guildID, questID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, quest, nil)
}

// List handles GET /v1/guilds/{guildId}/quests
// Optional filters: ?status=, ?referee=, ?needing_summary=true
func (h *QuestHandler) List(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	limit, offset := listWindow(r)

	var filter service.QuestListFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.QuestStatus(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("referee"); raw != "" {
		refereeID, err := ident.Parse(ident.PrefixUser, raw)
		if err != nil {
			WriteError(w, model.NewBadRequestError("malformed referee filter"))
			return
		}
		filter.RefereeID = &refereeID
	}
	if r.URL.Query().Get("needing_summary") == "true" {
		filter.NeedingSummary = true
	}

	quests, err := h.quests.List(r.Context(), guildID, filter, limit, offset)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, quests, &PaginationInfo{Limit: limit, Offset: offset}, nil)
}

// AnnounceRequest carries the Discord linkage recorded at announce time
type AnnounceRequest struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Announce handles POST /v1/guilds/{guildId}/quests/{questId}/announce
func (h *QuestHandler) Announce(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req AnnounceRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	quest, err := h.quests.Announce(r.Context(), guildID, actor, questID, req.ChannelID, req.MessageID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, quest, nil)
}

// CloseSignups handles POST /v1/guilds/{guildId}/quests/{questId}/close-signups
func (h *QuestHandler) CloseSignups(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.quests.CloseSignups)
}

// Start handles POST /v1/guilds/{guildId}/quests/{questId}/start
func (h *QuestHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.quests.MarkRunning)
}

// Complete handles POST /v1/guilds/{guildId}/quests/{questId}/complete
func (h *QuestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.quests.MarkCompleted)
}

// Cancel handles POST /v1/guilds/{guildId}/quests/{questId}/cancel
func (h *QuestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.quests.MarkCancelled)
}

// Nudge handles POST /v1/guilds/{guildId}/quests/{questId}/nudge
func (h *QuestHandler) Nudge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.quests.Nudge)
}

func (h *QuestHandler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, guildID string, actor service.Actor, questID ident.ID) (*model.Quest, error)) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	quest, err := fn(r.Context(), guildID, actor, questID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, quest, nil)
}

// Delete handles DELETE /v1/guilds/{guildId}/quests/{questId}
func (h *QuestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	if err := h.quests.Delete(r.Context(), guildID, actor, questID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// AddSignupRequest names the character the actor signs up with
type AddSignupRequest struct {
	CharacterID ident.ID `json:"character_id"`
}

// AddSignup handles POST /v1/guilds/{guildId}/quests/{questId}/signups
func (h *QuestHandler) AddSignup(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req AddSignupRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	quest, err := h.quests.AddSignup(r.Context(), guildID, actor, questID, req.CharacterID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, quest, nil)
}

// SelectSignup handles POST /v1/guilds/{guildId}/quests/{questId}/signups/{userId}/select
func (h *QuestHandler) SelectSignup(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	userID, pd := parsePathID(r, "userId", ident.PrefixUser)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	quest, err := h.quests.SelectSignup(r.Context(), guildID, actor, questID, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, quest, nil)
}

// RemoveSignup handles DELETE /v1/guilds/{guildId}/quests/{questId}/signups/{userId}
func (h *QuestHandler) RemoveSignup(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	userID, pd := parsePathID(r, "userId", ident.PrefixUser)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	quest, err := h.quests.RemoveSignup(r.Context(), guildID, actor, questID, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, quest, nil)
}
