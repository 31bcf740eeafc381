package handler

import (
	"net/http"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

// SummaryHandler handles quest write-up endpoints
type SummaryHandler struct {
	summaries *service.SummaryService
	users     ActorDirectory
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summaries *service.SummaryService, users ActorDirectory) *SummaryHandler {
	return &SummaryHandler{
		summaries: summaries,
		users:     users,
	}
}

// Create handles POST /v1/guilds/{guildId}/summaries
func (h *SummaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req service.CreateSummaryRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	summary, err := h.summaries.Create(r.Context(), guildID, actor, req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, summary, map[string]string{
		"self":  "/v1/guilds/" + guildID + "/summaries/" + summary.ID.String(),
		"quest": "/v1/guilds/" + guildID + "/quests/" + summary.QuestID.String(),
	})
}

// Get handles GET /v1/guilds/{guildId}/summaries/{summaryId}
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	summaryID, pd := parsePathID(r, "summaryId", ident.PrefixSummary)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	summary, err := h.summaries.Get(r.Context(), guildID, summaryID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, summary, nil)
}

// ListByQuest handles GET /v1/guilds/{guildId}/quests/{questId}/summaries
func (h *SummaryHandler) ListByQuest(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	questID, pd := parsePathID(r, "questId", ident.PrefixQuest)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	limit, offset := listWindow(r)

	summaries, err := h.summaries.ListByQuest(r.Context(), guildID, questID, limit, offset)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, summaries, &PaginationInfo{Limit: limit, Offset: offset}, nil)
}

// List handles GET /v1/guilds/{guildId}/summaries with a required ?author= filter
func (h *SummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	limit, offset := listWindow(r)

	raw := r.URL.Query().Get("author")
	if raw == "" {
		WriteError(w, model.NewBadRequestError("author filter required"))
		return
	}
	authorID, err := ident.Parse(ident.PrefixUser, raw)
	if err != nil {
		WriteError(w, model.NewBadRequestError("malformed author filter"))
		return
	}

	summaries, err := h.summaries.ListByAuthor(r.Context(), guildID, authorID, limit, offset)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, summaries, &PaginationInfo{Limit: limit, Offset: offset}, nil)
}

// Edit handles PATCH /v1/guilds/{guildId}/summaries/{summaryId}
func (h *SummaryHandler) Edit(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	summaryID, pd := parsePathID(r, "summaryId", ident.PrefixSummary)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req service.EditSummaryRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	summary, err := h.summaries.Edit(r.Context(), guildID, actor, summaryID, req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, summary, nil)
}

// LinkRequest names the entity a summary is cross-referenced to
type LinkRequest struct {
	QuestID   ident.ID `json:"quest_id,omitempty"`
	SummaryID ident.ID `json:"summary_id,omitempty"`
}

// LinkQuest handles POST /v1/guilds/{guildId}/summaries/{summaryId}/links/quests
func (h *SummaryHandler) LinkQuest(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	summaryID, pd := parsePathID(r, "summaryId", ident.PrefixSummary)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req LinkRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	summary, err := h.summaries.LinkQuest(r.Context(), guildID, actor, summaryID, req.QuestID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, summary, nil)
}

// LinkSummary handles POST /v1/guilds/{guildId}/summaries/{summaryId}/links/summaries
func (h *SummaryHandler) LinkSummary(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	summaryID, pd := parsePathID(r, "summaryId", ident.PrefixSummary)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req LinkRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	summary, err := h.summaries.LinkSummary(r.Context(), guildID, actor, summaryID, req.SummaryID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, summary, nil)
}
