package tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
	"github.com/ravenhall/questboard/internal/testing/fixtures"
)

/*
FEATURE: Quest Summaries
DOMAIN: Summaries

ACCEPTANCE CRITERIA:
===================

AC-SUMM-001: Referee Summary
  GIVEN a completed quest awaiting a summary
  WHEN its referee writes a referee-kind summary
  THEN the summary is stored and attached to the quest
  AND the quest's summary-needed flag clears

AC-SUMM-002: Quest Must Be Completed
  GIVEN a quest that is not COMPLETED
  WHEN anyone writes a summary for it
  THEN the request fails

AC-SUMM-003: Player Summary References
  GIVEN a completed quest
  WHEN a player writes a player-kind summary without referencing
       players and characters
  THEN the request fails validation
  AND succeeds once the references are present

AC-SUMM-004: Editing
  GIVEN a stored summary
  WHEN its author edits the content
  THEN the new content is stored with an edit timestamp
  AND a non-author cannot edit

AC-SUMM-005: Cross-Links
  GIVEN two summaries and another quest
  WHEN the author links them
  THEN the links are stored
  AND repeating a link does not duplicate it

AC-SUMM-006: Listing
  GIVEN several summaries across quests and authors
  WHEN they are listed by quest or by author
  THEN only the matching summaries return
*/

func refereeSummaryRequest(questID ident.ID) service.CreateSummaryRequest {
	return service.CreateSummaryRequest{
		QuestID:     questID,
		Kind:        model.SummaryKindReferee,
		Raw:         "# The Sunken Keep\nThe party prevailed.",
		Title:       "The Sunken Keep",
		Description: "How the keep was cleared.",
	}
}

func TestSummaries_RefereeSummary(t *testing.T) {
	// AC-SUMM-001: Referee Summary
	e := newEnv(t)
	referee := e.f.CreateReferee(t)
	quest := e.f.CreateCompletedQuest(t, referee)
	require.True(t, quest.SummaryNeeded)

	summary, err := e.summaries.Create(e.ctx(), e.guild(), fixtures.Actor(referee), refereeSummaryRequest(quest.ID))
	require.NoError(t, err)
	assert.Equal(t, referee.ID, summary.AuthorID)
	assert.Equal(t, quest.ID, summary.QuestID)

	stored, err := e.questRepo.Get(e.ctx(), e.guild(), quest.ID)
	require.NoError(t, err)
	assert.False(t, stored.SummaryNeeded, "attaching a summary clears the flag")
	assert.Contains(t, stored.SummaryIDs, summary.ID)
}

func TestSummaries_QuestMustBeCompleted(t *testing.T) {
	// AC-SUMM-002: Quest Must Be Completed
	e := newEnv(t)
	referee := e.f.CreateReferee(t)
	quest := e.f.CreateAnnouncedQuest(t, referee)

	_, err := e.summaries.Create(e.ctx(), e.guild(), fixtures.Actor(referee), refereeSummaryRequest(quest.ID))
	require.ErrorIs(t, err, service.ErrQuestNotCompleted)
}

func TestSummaries_PlayerSummaryReferences(t *testing.T) {
	// AC-SUMM-003: Player Summary References
	e := newEnv(t)
	referee := e.f.CreateReferee(t)
	player := e.f.CreatePlayer(t)
	character := e.f.CreateCharacter(t, player)
	quest := e.f.CreateCompletedQuest(t, referee)

	req := service.CreateSummaryRequest{
		QuestID:     quest.ID,
		Kind:        model.SummaryKindPlayer,
		Raw:         "We barely made it out.",
		Title:       "A Player's Account",
		Description: "The keep from the floor's perspective.",
	}
	_, err := e.summaries.Create(e.ctx(), e.guild(), fixtures.Actor(player), req)
	require.ErrorIs(t, err, model.ErrInvalidSummary)

	req.Players = []ident.ID{player.ID}
	req.Characters = []ident.ID{character.ID}
	summary, err := e.summaries.Create(e.ctx(), e.guild(), fixtures.Actor(player), req)
	require.NoError(t, err)
	assert.Equal(t, model.SummaryKindPlayer, summary.Kind)
}

func TestSummaries_Editing(t *testing.T) {
	// AC-SUMM-004: Editing
	e := newEnv(t)
	referee := e.f.CreateReferee(t)
	other := e.f.CreateReferee(t)
	quest := e.f.CreateCompletedQuest(t, referee)
	summary := e.f.CreateSummary(t, referee, quest)

	req := service.EditSummaryRequest{
		Raw:         "Revised account of the descent.",
		Title:       "Session Report, Revised",
		Description: "Corrected after the table's feedback.",
	}
	_, err := e.summaries.Edit(e.ctx(), e.guild(), fixtures.Actor(other), summary.ID, req)
	require.ErrorIs(t, err, service.ErrNotSummaryAuthor)

	edited, err := e.summaries.Edit(e.ctx(), e.guild(), fixtures.Actor(referee), summary.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Session Report, Revised", edited.Title)
	require.NotNil(t, edited.LastEditedAt)

	stored, err := e.summaries.Get(e.ctx(), e.guild(), summary.ID)
	require.NoError(t, err)
	assert.Equal(t, "Revised account of the descent.", stored.Raw)
}

func TestSummaries_CrossLinks(t *testing.T) {
	// AC-SUMM-005: Cross-Links
	e := newEnv(t)
	referee := e.f.CreateReferee(t)
	quest := e.f.CreateCompletedQuest(t, referee)
	otherQuest := e.f.CreateCompletedQuest(t, referee)
	summary := e.f.CreateSummary(t, referee, quest)
	otherSummary := e.f.CreateSummary(t, referee, otherQuest)
	actor := fixtures.Actor(referee)

	linked, err := e.summaries.LinkQuest(e.ctx(), e.guild(), actor, summary.ID, otherQuest.ID)
	require.NoError(t, err)
	assert.Equal(t, []ident.ID{otherQuest.ID}, linked.LinkedQuests)

	// Linking again is a no-op.
	linked, err = e.summaries.LinkQuest(e.ctx(), e.guild(), actor, summary.ID, otherQuest.ID)
	require.NoError(t, err)
	assert.Len(t, linked.LinkedQuests, 1)

	linked, err = e.summaries.LinkSummary(e.ctx(), e.guild(), actor, summary.ID, otherSummary.ID)
	require.NoError(t, err)
	assert.Equal(t, []ident.ID{otherSummary.ID}, linked.LinkedSummaries)
}

func TestSummaries_Listing(t *testing.T) {
	// AC-SUMM-006: Listing
	e := newEnv(t)
	referee := e.f.CreateReferee(t)
	scribe := e.f.CreateReferee(t)
	questA := e.f.CreateCompletedQuest(t, referee)
	questB := e.f.CreateCompletedQuest(t, scribe)

	e.f.CreateSummary(t, referee, questA)
	e.f.CreateSummary(t, referee, questA)
	e.f.CreateSummary(t, scribe, questB)

	byQuest, err := e.summaries.ListByQuest(e.ctx(), e.guild(), questA.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, byQuest, 2)

	byAuthor, err := e.summaries.ListByAuthor(e.ctx(), e.guild(), scribe.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, questB.ID, byAuthor[0].QuestID)
}
