package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/repository"
)

type mockReminderSource struct {
	guildIDsFunc func(ctx context.Context) ([]string, error)
	listFunc     func(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error)
}

func (m *mockReminderSource) GuildIDs(ctx context.Context) ([]string, error) {
	if m.guildIDsFunc != nil {
		return m.guildIDsFunc(ctx)
	}
	return nil, nil
}

func (m *mockReminderSource) ListNeedingSummary(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, guildID, opts)
	}
	return nil, nil
}

type captureNotifier struct {
	reminded []ident.ID
	err      error
}

func (n *captureNotifier) RemindSummary(ctx context.Context, quest *model.Quest) error {
	n.reminded = append(n.reminded, quest.ID)
	return n.err
}

func pendingQuest(body string) *model.Quest {
	return &model.Quest{
		ID:            ident.MustParse(ident.PrefixQuest, body),
		GuildID:       "guild-1",
		Status:        model.QuestStatusCompleted,
		SummaryNeeded: true,
	}
}

func TestSummaryReminder_RemindsEveryPendingQuest(t *testing.T) {
	source := &mockReminderSource{
		guildIDsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"guild-1", "guild-2"}, nil
		},
		listFunc: func(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error) {
			if guildID == "guild-1" {
				return []*model.Quest{pendingQuest("QUESA1B2C3"), pendingQuest("QUESB1C2D3")}, nil
			}
			return nil, nil
		},
	}
	notifier := &captureNotifier{}

	job := NewSummaryReminder(source, notifier, time.Hour)
	require.NoError(t, job.RunOnce(context.Background()))

	require.Len(t, notifier.reminded, 2)
	assert.Equal(t, "QUESA1B2C3", notifier.reminded[0].String())
}

func TestSummaryReminder_GuildFailureDoesNotStopScan(t *testing.T) {
	source := &mockReminderSource{
		guildIDsFunc: func(ctx context.Context) ([]string, error) {
			return []string{"broken", "guild-1"}, nil
		},
		listFunc: func(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error) {
			if guildID == "broken" {
				return nil, errors.New("query timeout")
			}
			return []*model.Quest{pendingQuest("QUESA1B2C3")}, nil
		},
	}
	notifier := &captureNotifier{}

	job := NewSummaryReminder(source, notifier, time.Hour)
	require.NoError(t, job.RunOnce(context.Background()))
	assert.Len(t, notifier.reminded, 1)
}

func TestSummaryReminder_NotifierFailureIsNonFatal(t *testing.T) {
	source := &mockReminderSource{
		guildIDsFunc: func(ctx context.Context) ([]string, error) { return []string{"guild-1"}, nil },
		listFunc: func(ctx context.Context, guildID string, opts repository.ListOptions) ([]*model.Quest, error) {
			return []*model.Quest{pendingQuest("QUESA1B2C3"), pendingQuest("QUESB1C2D3")}, nil
		},
	}
	notifier := &captureNotifier{err: errors.New("channel gone")}

	job := NewSummaryReminder(source, notifier, time.Hour)
	require.NoError(t, job.RunOnce(context.Background()))
	assert.Len(t, notifier.reminded, 2, "delivery failures must not stop the scan")
}

func TestSummaryReminder_StartStopIdempotent(t *testing.T) {
	job := NewSummaryReminder(&mockReminderSource{}, &captureNotifier{}, time.Hour)

	job.Start()
	job.Start()
	assert.True(t, job.IsRunning())

	job.Stop()
	job.Stop()
	assert.False(t, job.IsRunning())
}
