package handler

import (
	"net/http"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

// UserHandler handles guild member endpoints
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ProvisionRequest carries the Discord identity of a member to provision
type ProvisionRequest struct {
	DiscordID string `json:"discord_id"`
}

// Provision handles POST /v1/guilds/{guildId}/users
// Creating an already-known member returns the stored record unchanged.
func (h *UserHandler) Provision(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")

	var req ProvisionRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.DiscordID == "" {
		WriteError(w, model.NewValidationError("discord_id is required"))
		return
	}

	user, err := h.users.Provision(r.Context(), guildID, req.DiscordID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, user, map[string]string{
		"self": "/v1/guilds/" + guildID + "/users/" + user.ID.String(),
	})
}

// Get handles GET /v1/guilds/{guildId}/users/{userId}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	userID, pd := parsePathID(r, "userId", ident.PrefixUser)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	user, err := h.users.Get(r.Context(), guildID, userID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}

// GetByDiscordID handles GET /v1/guilds/{guildId}/users/discord/{discordId}
func (h *UserHandler) GetByDiscordID(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	discordID := r.PathValue("discordId")
	if discordID == "" {
		WriteError(w, model.NewBadRequestError("discordId required"))
		return
	}

	user, err := h.users.GetByDiscordID(r.Context(), guildID, discordID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}

// List handles GET /v1/guilds/{guildId}/users with optional ?role= filter
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	limit, offset := listWindow(r)

	var role *model.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed := model.Role(raw)
		role = &parsed
	}

	users, err := h.users.List(r.Context(), guildID, role, limit, offset)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, users, &PaginationInfo{Limit: limit, Offset: offset}, nil)
}

// RoleRequest names the role being granted
type RoleRequest struct {
	Role model.Role `json:"role"`
}

// GrantRole handles POST /v1/guilds/{guildId}/users/{userId}/roles
func (h *UserHandler) GrantRole(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
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

	var req RoleRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.users.GrantRole(r.Context(), guildID, actor, userID, req.Role)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}

// RevokeRole handles DELETE /v1/guilds/{guildId}/users/{userId}/roles/{role}
func (h *UserHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
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

	role := model.Role(r.PathValue("role"))
	user, err := h.users.RevokeRole(r.Context(), guildID, actor, userID, role)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, user, nil)
}

// TelemetryRequest carries one engagement fact observed by the bot
type TelemetryRequest struct {
	DiscordID  string  `json:"discord_id"`
	Kind       string  `json:"kind"` // message, reaction, voice
	Given      bool    `json:"given,omitempty"`
	VoiceHours float64 `json:"voice_hours,omitempty"`
}

// RecordTelemetry handles POST /v1/guilds/{guildId}/telemetry
func (h *UserHandler) RecordTelemetry(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")

	var req TelemetryRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.DiscordID == "" {
		WriteError(w, model.NewValidationError("discord_id is required"))
		return
	}

	var err error
	switch req.Kind {
	case "message":
		err = h.users.RecordMessage(r.Context(), guildID, req.DiscordID)
	case "reaction":
		err = h.users.RecordReaction(r.Context(), guildID, req.DiscordID, req.Given)
	case "voice":
		err = h.users.RecordVoice(r.Context(), guildID, req.DiscordID, req.VoiceHours)
	default:
		WriteError(w, model.NewValidationError("unknown telemetry kind"))
		return
	}
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
