package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/repository"
)

// SummaryReminderSource is the storage surface the reminder scan needs:
// which guilds exist, and which of their quests still owe a summary.
type SummaryReminderSource interface {
	GuildIDs(ctx context.Context) ([]string, error)
	ListNeedingSummary(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error)
}

// SummaryNotifier delivers one reminder. The bot posts into the quest's
// announcement channel; the server falls back to a log record.
type SummaryNotifier interface {
	RemindSummary(ctx context.Context, quest *model.Quest) error
}

// SlogNotifier writes reminders as structured log records.
type SlogNotifier struct {
	Logger *slog.Logger
}

func (n SlogNotifier) RemindSummary(ctx context.Context, quest *model.Quest) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "quest awaiting summary",
		"guild_id", quest.GuildID,
		"quest_id", quest.ID,
		"referee_id", quest.RefereeID)
	return nil
}

// SummaryReminder periodically scans for completed quests whose summary is
// still outstanding and pings their referees.
type SummaryReminder struct {
	source   SummaryReminderSource
	notifier SummaryNotifier
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewSummaryReminder creates a new summary reminder job
func NewSummaryReminder(source SummaryReminderSource, notifier SummaryNotifier, interval time.Duration) *SummaryReminder {
	if interval == 0 {
		interval = 6 * time.Hour
	}
	if notifier == nil {
		notifier = SlogNotifier{}
	}
	return &SummaryReminder{
		source:   source,
		notifier: notifier,
		interval: interval,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins the reminder job
func (j *SummaryReminder) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.logger.Info("summary reminder started", "interval", j.interval)
}

// Stop gracefully stops the reminder job
func (j *SummaryReminder) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("summary reminder stopped")
}

// IsRunning returns whether the job is running
func (j *SummaryReminder) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *SummaryReminder) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := j.RunOnce(ctx); err != nil {
				j.logger.Error("summary reminder scan failed", "error", err)
			}
			cancel()
		case <-j.stopCh:
			return
		}
	}
}

// RunOnce performs one scan across all guilds. A failed notification is
// logged and does not stop the scan.
func (j *SummaryReminder) RunOnce(ctx context.Context) error {
	guildIDs, err := j.source.GuildIDs(ctx)
	if err != nil {
		return err
	}

	for _, guildID := range guildIDs {
		quests, err := j.source.ListNeedingSummary(ctx, guildID, repository.ListOptions{Limit: 100})
		if err != nil {
			j.logger.Error("listing quests needing summary failed", "guild_id", guildID, "error", err)
			continue
		}
		for _, quest := range quests {
			if err := j.notifier.RemindSummary(ctx, quest); err != nil {
				j.logger.Warn("summary reminder delivery failed",
					"guild_id", guildID, "quest_id", quest.ID, "error", err)
			}
		}
	}
	return nil
}
