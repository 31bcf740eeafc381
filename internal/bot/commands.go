package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

const signupButtonID = "quest-signup"

// commandDefinitions returns the slash commands the bot registers on start.
// Everything is a subcommand of /quest so the guild's command list stays
// short.
func commandDefinitions() []*discordgo.ApplicationCommand {
	questIDOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "quest-id",
		Description: "Quest identifier, e.g. QUESA1B2C3",
		Required:    true,
	}

	lifecycleSub := func(name, description string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: description,
			Options:     []*discordgo.ApplicationCommandOption{questIDOption},
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "quest",
			Description: "Run quests from draft to summary",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Draft a new quest",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "title",
							Description: "Quest title",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "starts-in-hours",
							Description: "Hours from now until the session starts",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "duration-minutes",
							Description: "Planned session length in minutes",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "description",
							Description: "Quest description",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "image-url",
							Description: "Cover image URL",
						},
					},
				},
				lifecycleSub("announce", "Publish a draft quest in this channel"),
				lifecycleSub("close-signups", "Stop accepting signups"),
				lifecycleSub("start", "Mark the session as running"),
				lifecycleSub("complete", "Mark the session as finished"),
				lifecycleSub("cancel", "Cancel the quest"),
				lifecycleSub("nudge", "Re-promote an announced quest"),
			},
		},
	}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "quest" || len(data.Options) == 0 || i.GuildID == "" || i.Member == nil {
		return
	}
	sub := data.Options[0]

	ctx, cancel := handlerContext()
	defer cancel()

	actor, err := b.resolveActor(ctx, i.GuildID, i.Member.User.ID)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	switch sub.Name {
	case "create":
		b.handleCreate(ctx, s, i, actor, sub.Options)
	case "announce":
		b.handleAnnounce(ctx, s, i, actor, sub.Options)
	case "close-signups":
		b.handleTransition(ctx, s, i, actor, sub.Options, "Signups closed", b.quests.CloseSignups)
	case "start":
		b.handleTransition(ctx, s, i, actor, sub.Options, "Quest running", b.quests.MarkRunning)
	case "complete":
		b.handleTransition(ctx, s, i, actor, sub.Options, "Quest completed, summary wanted", b.quests.MarkCompleted)
	case "cancel":
		b.handleTransition(ctx, s, i, actor, sub.Options, "Quest cancelled", b.quests.MarkCancelled)
	case "nudge":
		b.handleNudge(ctx, s, i, actor, sub.Options)
	}
}

func (b *Bot) handleCreate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, actor service.Actor, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	req := service.CreateQuestRequest{}
	for _, opt := range opts {
		switch opt.Name {
		case "title":
			req.Title = opt.StringValue()
		case "description":
			req.Description = opt.StringValue()
		case "starts-in-hours":
			req.StartingAt = time.Now().Add(time.Duration(opt.IntValue()) * time.Hour)
		case "duration-minutes":
			req.Duration = time.Duration(opt.IntValue()) * time.Minute
		case "image-url":
			req.ImageURL = opt.StringValue()
		}
	}

	quest, err := b.quests.Create(ctx, i.GuildID, actor, req)
	if err != nil {
		b.replyError(s, i, err)
		return
	}
	b.replyEphemeral(s, i, fmt.Sprintf("Drafted **%s** as `%s`. Announce it with `/quest announce`.", quest.Title, quest.ID))
}

// handleAnnounce posts the embed first so its channel and message IDs can be
// recorded on the quest; a failed transition cleans the message up again.
func (b *Bot) handleAnnounce(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, actor service.Actor, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	questID, err := questIDOptionValue(opts)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	quest, err := b.quests.Get(ctx, i.GuildID, questID)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	msg, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{BuildQuestEmbed(quest)},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Sign Up",
						Style:    discordgo.PrimaryButton,
						CustomID: signupButtonID,
					},
				},
			},
		},
	})
	if err != nil {
		b.replyError(s, i, fmt.Errorf("posting announcement: %w", err))
		return
	}

	quest, err = b.quests.Announce(ctx, i.GuildID, actor, questID, i.ChannelID, msg.ID)
	if err != nil {
		_ = s.ChannelMessageDelete(i.ChannelID, msg.ID)
		b.replyError(s, i, err)
		return
	}

	b.refreshAnnouncement(quest)
	b.replyEphemeral(s, i, fmt.Sprintf("Announced `%s`.", quest.ID))
}

func (b *Bot) handleTransition(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, actor service.Actor, opts []*discordgo.ApplicationCommandInteractionDataOption, verb string,
	fn func(ctx context.Context, guildID string, actor service.Actor, questID ident.ID) (*model.Quest, error)) {
	questID, err := questIDOptionValue(opts)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	quest, err := fn(ctx, i.GuildID, actor, questID)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	b.refreshAnnouncement(quest)
	b.replyEphemeral(s, i, fmt.Sprintf("%s: `%s`.", verb, quest.ID))
}

func (b *Bot) handleNudge(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, actor service.Actor, opts []*discordgo.ApplicationCommandInteractionDataOption) {
	questID, err := questIDOptionValue(opts)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	quest, err := b.quests.Nudge(ctx, i.GuildID, actor, questID)
	if err != nil {
		var cooldown *model.CooldownError
		if errors.As(err, &cooldown) {
			b.replyEphemeral(s, i, fmt.Sprintf("Nudge on cooldown. Try again in %s.", cooldown.Remaining.Round(time.Minute)))
			return
		}
		b.replyError(s, i, err)
		return
	}

	// Re-promote in the quest's announcement channel.
	if quest.ChannelID != "" {
		if _, err := s.ChannelMessageSendEmbed(quest.ChannelID, BuildQuestEmbed(quest)); err != nil {
			b.logger.Warn("posting nudge failed", "quest_id", quest.ID, "error", err)
		}
	}
	b.replyEphemeral(s, i, fmt.Sprintf("Nudged `%s`.", quest.ID))
}

// handleComponent buffers a signup button press. The quest comes from the
// message footer; the character is the presser's only registered one, since
// the button cannot carry a choice.
func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.MessageComponentData().CustomID != signupButtonID || i.GuildID == "" || i.Member == nil {
		return
	}

	questID, err := questIDFromMessage(i.Message)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	ctx, cancel := handlerContext()
	defer cancel()

	discordID := i.Member.User.ID
	user, err := b.users.Provision(ctx, i.GuildID, discordID)
	if err != nil {
		b.replyError(s, i, err)
		return
	}

	characters, err := b.characters.ListByOwner(ctx, i.GuildID, user.ID, 2, 0)
	if err != nil {
		b.replyError(s, i, err)
		return
	}
	switch len(characters) {
	case 0:
		b.replyEphemeral(s, i, "You have no registered character. Create one first.")
		return
	case 1:
		// fall through with the single character
	default:
		b.replyEphemeral(s, i, fmt.Sprintf("You have several characters. Sign up via the API with the one you want, e.g. `%s`.", characters[0].ID))
		return
	}

	queued := b.buffer.Add(SignupPress{
		GuildID:     i.GuildID,
		QuestID:     questID,
		DiscordID:   discordID,
		CharacterID: characters[0].ID,
		PressedAt:   time.Now(),
	})
	if !queued {
		b.replyEphemeral(s, i, "Your signup is already on its way.")
		return
	}
	b.replyEphemeral(s, i, fmt.Sprintf("Signing **%s** up for `%s`.", characters[0].Name, questID))
}

// ===== Helpers =====

func (b *Bot) resolveActor(ctx context.Context, guildID, discordID string) (service.Actor, error) {
	user, err := b.users.Provision(ctx, guildID, discordID)
	if err != nil {
		return service.Actor{}, err
	}
	return service.Actor{UserID: user.ID, Roles: user.Roles}, nil
}

func questIDOptionValue(opts []*discordgo.ApplicationCommandInteractionDataOption) (ident.ID, error) {
	for _, opt := range opts {
		if opt.Name == "quest-id" {
			return ident.Parse(ident.PrefixQuest, opt.StringValue())
		}
	}
	return ident.ID{}, errors.New("quest-id option missing")
}

func (b *Bot) replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("interaction reply failed", "error", err)
	}
}

func (b *Bot) replyError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	b.replyEphemeral(s, i, "That didn't work: "+err.Error())
}
