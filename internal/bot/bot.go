package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

// Bot bridges the Discord gateway to the quest services.
type Bot struct {
	session    *discordgo.Session
	appID      string
	quests     *service.QuestService
	users      *service.UserService
	characters *service.CharacterService
	buffer     *SignupBuffer
	voice      *voiceTracker
	logger     *slog.Logger
}

// Config holds configuration for the bot
type Config struct {
	Token      string
	AppID      string
	Quests     *service.QuestService
	Users      *service.UserService
	Characters *service.CharacterService
	Logger     *slog.Logger

	// FlushInterval overrides the signup buffer cadence. Defaults to 5s.
	FlushInterval time.Duration
}

// New creates the bot and wires its gateway handlers. The session is not
// opened until Start.
func New(cfg Config) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bot{
		session:    session,
		appID:      cfg.AppID,
		quests:     cfg.Quests,
		users:      cfg.Users,
		characters: cfg.Characters,
		voice:      newVoiceTracker(),
		logger:     logger,
	}
	b.buffer = NewSignupBuffer(SignupBufferConfig{
		Flush:    b.applySignup,
		Interval: cfg.FlushInterval,
		Logger:   logger,
	})

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates

	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMessage)
	session.AddHandler(b.onReactionAdd)
	session.AddHandler(b.onVoiceState)

	return b, nil
}

// Start opens the gateway connection, registers the slash commands, and
// starts the signup flush loop.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}

	if _, err := b.session.ApplicationCommandBulkOverwrite(b.appID, "", commandDefinitions()); err != nil {
		_ = b.session.Close()
		return fmt.Errorf("registering commands: %w", err)
	}

	b.buffer.Start()
	b.logger.Info("bot started", "app_id", b.appID)
	return nil
}

// Stop flushes pending signups and closes the gateway connection.
func (b *Bot) Stop() error {
	b.buffer.Stop()
	err := b.session.Close()
	b.logger.Info("bot stopped")
	return err
}

// applySignup is the buffer's flush target: one press becomes one AddSignup
// call, subject to every engine guard.
func (b *Bot) applySignup(ctx context.Context, press SignupPress) error {
	user, err := b.users.Provision(ctx, press.GuildID, press.DiscordID)
	if err != nil {
		return err
	}
	actor := service.Actor{UserID: user.ID, Roles: user.Roles}

	quest, err := b.quests.AddSignup(ctx, press.GuildID, actor, press.QuestID, press.CharacterID)
	if err != nil {
		return err
	}
	b.refreshAnnouncement(quest)
	return nil
}

// ===== Engagement telemetry =====

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" || m.Author == nil || m.Author.Bot {
		return
	}
	ctx, cancel := handlerContext()
	defer cancel()

	if err := b.users.RecordMessage(ctx, m.GuildID, m.Author.ID); err != nil {
		b.logger.Warn("recording message failed", "guild_id", m.GuildID, "discord_id", m.Author.ID, "error", err)
	}
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.GuildID == "" {
		return
	}
	ctx, cancel := handlerContext()
	defer cancel()

	if err := b.users.RecordReaction(ctx, r.GuildID, r.UserID, true); err != nil {
		b.logger.Warn("recording reaction failed", "guild_id", r.GuildID, "discord_id", r.UserID, "error", err)
		return
	}

	// Credit the author of the reacted-to message if it can be fetched.
	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil || msg.Author == nil || msg.Author.Bot || msg.Author.ID == r.UserID {
		return
	}
	if err := b.users.RecordReaction(ctx, r.GuildID, msg.Author.ID, false); err != nil {
		b.logger.Warn("recording received reaction failed", "guild_id", r.GuildID, "discord_id", msg.Author.ID, "error", err)
	}
}

func (b *Bot) onVoiceState(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.GuildID == "" {
		return
	}

	hours, done := b.voice.update(v.GuildID, v.UserID, v.ChannelID, time.Now())
	if !done {
		return
	}

	ctx, cancel := handlerContext()
	defer cancel()
	if err := b.users.RecordVoice(ctx, v.GuildID, v.UserID, hours); err != nil {
		b.logger.Warn("recording voice time failed", "guild_id", v.GuildID, "discord_id", v.UserID, "error", err)
	}
}

// RemindSummary posts a reminder into the quest's announcement channel.
// Satisfies jobs.SummaryNotifier.
func (b *Bot) RemindSummary(ctx context.Context, quest *model.Quest) error {
	if quest.ChannelID == "" {
		b.logger.Info("quest awaiting summary has no channel", "quest_id", quest.ID)
		return nil
	}
	_, err := b.session.ChannelMessageSend(quest.ChannelID,
		fmt.Sprintf("**%s** finished but has no summary yet. Referees, `%s` is waiting on its write-up.", quest.Title, quest.ID))
	return err
}

// refreshAnnouncement re-renders the announcement embed after a signup
// change so the message reflects the stored roster.
func (b *Bot) refreshAnnouncement(quest *model.Quest) {
	if quest.ChannelID == "" || quest.MessageID == "" {
		return
	}
	if _, err := b.session.ChannelMessageEditEmbed(quest.ChannelID, quest.MessageID, BuildQuestEmbed(quest)); err != nil {
		b.logger.Warn("refreshing announcement failed",
			"quest_id", quest.ID, "channel_id", quest.ChannelID, "error", err)
	}
}

func handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// voiceTracker remembers when each member entered voice so the leave event
// can be turned into a duration.
type voiceTracker struct {
	mu       sync.Mutex
	sessions map[string]time.Time
}

func newVoiceTracker() *voiceTracker {
	return &voiceTracker{sessions: make(map[string]time.Time)}
}

// update records a voice state change. It returns the session length in
// hours, and whether a session just ended.
func (t *voiceTracker) update(guildID, userID, channelID string, now time.Time) (float64, bool) {
	key := guildID + ":" + userID

	t.mu.Lock()
	defer t.mu.Unlock()

	started, active := t.sessions[key]
	if channelID != "" {
		if !active {
			t.sessions[key] = now
		}
		return 0, false
	}
	if !active {
		return 0, false
	}
	delete(t.sessions, key)
	return now.Sub(started).Hours(), true
}
