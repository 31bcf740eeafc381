package handler

import (
	"net/http"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

// CharacterHandler handles character endpoints
type CharacterHandler struct {
	characters *service.CharacterService
	users      ActorDirectory
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(characters *service.CharacterService, users ActorDirectory) *CharacterHandler {
	return &CharacterHandler{
		characters: characters,
		users:      users,
	}
}

// Create handles POST /v1/guilds/{guildId}/characters
func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	var req service.CreateCharacterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	character, err := h.characters.Create(r.Context(), guildID, actor, req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, character, map[string]string{
		"self": "/v1/guilds/" + guildID + "/characters/" + character.ID.String(),
	})
}

// Get handles GET /v1/guilds/{guildId}/characters/{characterId}
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	characterID, pd := parsePathID(r, "characterId", ident.PrefixCharacter)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	character, err := h.characters.Get(r.Context(), guildID, characterID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, character, nil)
}

// List handles GET /v1/guilds/{guildId}/characters with optional ?owner= filter
func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	limit, offset := listWindow(r)

	var characters []*model.Character
	var err error
	if raw := r.URL.Query().Get("owner"); raw != "" {
		ownerID, perr := ident.Parse(ident.PrefixUser, raw)
		if perr != nil {
			WriteError(w, model.NewBadRequestError("malformed owner filter"))
			return
		}
		characters, err = h.characters.ListByOwner(r.Context(), guildID, ownerID, limit, offset)
	} else {
		characters, err = h.characters.List(r.Context(), guildID, limit, offset)
	}
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteCollection(w, http.StatusOK, characters, &PaginationInfo{Limit: limit, Offset: offset}, nil)
}

// Delete handles DELETE /v1/guilds/{guildId}/characters/{characterId}
func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guildId")
	characterID, pd := parsePathID(r, "characterId", ident.PrefixCharacter)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	actor, pd := resolveActor(r.Context(), h.users, guildID, r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	if err := h.characters.Delete(r.Context(), guildID, actor, characterID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}
