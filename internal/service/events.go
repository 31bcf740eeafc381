package service

import (
	"context"
	"log/slog"

	"github.com/ravenhall/questboard/internal/model"
)

// Recorder receives one DomainEvent after every state-changing operation.
// The default sink is structured logging; a broker or audit store can be
// swapped in without touching the services.
type Recorder interface {
	Record(ctx context.Context, event model.DomainEvent)
}

type slogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder creates a Recorder that emits events as structured logs.
func NewSlogRecorder(logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogRecorder{logger: logger}
}

func (r *slogRecorder) Record(ctx context.Context, event model.DomainEvent) {
	r.logger.InfoContext(ctx, "domain event",
		"event", event.Event,
		"guild_id", event.GuildID,
		"quest_id", event.QuestID,
		"actor_id", event.ActorID,
		"timestamp", event.Timestamp,
	)
}

// NopRecorder discards events. Useful in tests that don't assert on them.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, model.DomainEvent) {}
