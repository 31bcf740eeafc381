package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
)

// questFooterPrefix is the contract between announcement messages and the
// rest of the system: the footer is the only place the quest ID lives.
const questFooterPrefix = "Quest ID: "

// ErrNoQuestFooter reports an embed that carries no quest linkage.
var ErrNoQuestFooter = errors.New("embed has no quest footer")

var statusColors = map[model.QuestStatus]int{
	model.QuestStatusDraft:        0x95a5a6,
	model.QuestStatusAnnounced:    0x3498db,
	model.QuestStatusSignupClosed: 0xe67e22,
	model.QuestStatusRunning:      0x9b59b6,
	model.QuestStatusCompleted:    0x2ecc71,
	model.QuestStatusCancelled:    0xe74c3c,
}

// BuildQuestEmbed renders a quest as a Discord embed. The footer carries the
// formatted quest ID and must survive edits verbatim.
func BuildQuestEmbed(quest *model.Quest) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       quest.Title,
		Description: quest.Description,
		Color:       statusColors[quest.Status],
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: string(quest.Status), Inline: true},
			{Name: "Starts", Value: fmt.Sprintf("<t:%d:F>", quest.StartingAt.Unix()), Inline: true},
			{Name: "Duration", Value: quest.Duration.String(), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: questFooterPrefix + quest.ID.String(),
		},
	}

	if quest.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: quest.ImageURL}
	}

	if len(quest.Signups) > 0 {
		var lines []string
		for _, signup := range quest.Signups {
			marker := "•"
			if signup.Status == model.SignupStatusSelected {
				marker = "★"
			}
			lines = append(lines, fmt.Sprintf("%s %s (%s)", marker, signup.UserID, signup.CharacterID))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Signups (%d)", len(quest.Signups)),
			Value: strings.Join(lines, "\n"),
		})
	}

	return embed
}

// QuestIDFromFooter recovers the quest ID from an announcement embed.
func QuestIDFromFooter(embed *discordgo.MessageEmbed) (ident.ID, error) {
	if embed == nil || embed.Footer == nil {
		return ident.ID{}, ErrNoQuestFooter
	}
	raw, found := strings.CutPrefix(embed.Footer.Text, questFooterPrefix)
	if !found {
		return ident.ID{}, ErrNoQuestFooter
	}
	return ident.Parse(ident.PrefixQuest, strings.TrimSpace(raw))
}

// questIDFromMessage scans a message's embeds for the quest footer.
func questIDFromMessage(msg *discordgo.Message) (ident.ID, error) {
	if msg == nil {
		return ident.ID{}, ErrNoQuestFooter
	}
	for _, embed := range msg.Embeds {
		if id, err := QuestIDFromFooter(embed); err == nil {
			return id, nil
		}
	}
	return ident.ID{}, ErrNoQuestFooter
}
