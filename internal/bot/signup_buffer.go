package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ravenhall/questboard/internal/ident"
)

// SignupPress is one buffered button press awaiting flush.
type SignupPress struct {
	GuildID     string
	QuestID     ident.ID
	DiscordID   string
	CharacterID ident.ID
	PressedAt   time.Time
}

// FlushFunc applies one press to the lifecycle engine. Rejections (duplicate
// signup, closed quest, missing role) are expected and must come back as
// errors, not panics.
type FlushFunc func(ctx context.Context, press SignupPress) error

// SignupBuffer collects signup button presses per quest and applies them on
// a timer, in press order. Presses for the same (quest, user, character) are
// collapsed before they ever reach storage.
type SignupBuffer struct {
	flush    FlushFunc
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending []SignupPress
	seen    map[pressKey]struct{}

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

type pressKey struct {
	questID     ident.ID
	discordID   string
	characterID ident.ID
}

// SignupBufferConfig holds configuration for the signup buffer
type SignupBufferConfig struct {
	Flush    FlushFunc
	Interval time.Duration
	Logger   *slog.Logger
}

// NewSignupBuffer creates a new signup buffer
func NewSignupBuffer(cfg SignupBufferConfig) *SignupBuffer {
	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SignupBuffer{
		flush:    cfg.Flush,
		interval: interval,
		logger:   logger,
		seen:     make(map[pressKey]struct{}),
		stopCh:   make(chan struct{}),
	}
}

// Add buffers a press. Returns false when an identical press is already
// waiting, so the handler can tell the member their signup is in flight.
func (b *SignupBuffer) Add(press SignupPress) bool {
	key := pressKey{press.QuestID, press.DiscordID, press.CharacterID}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, dup := b.seen[key]; dup {
		return false
	}
	b.seen[key] = struct{}{}
	b.pending = append(b.pending, press)
	return true
}

// Len reports the number of presses waiting to be flushed.
func (b *SignupBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Start begins the background flush loop
func (b *SignupBuffer) Start() {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.run()
	b.logger.Info("signup buffer started", "interval", b.interval)
}

// Stop flushes whatever is pending and stops the loop
func (b *SignupBuffer) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	b.mu.Unlock()

	close(b.stopCh)
	b.wg.Wait()
	b.Flush(context.Background())
	b.logger.Info("signup buffer stopped")
}

func (b *SignupBuffer) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			b.Flush(ctx)
			cancel()
		case <-b.stopCh:
			return
		}
	}
}

// Flush drains the buffer and applies each press in order. A rejected press
// is logged and dropped; the member finds out through the refreshed
// announcement embed, the same as with a direct API signup.
func (b *SignupBuffer) Flush(ctx context.Context) {
	b.mu.Lock()
	presses := b.pending
	b.pending = nil
	b.seen = make(map[pressKey]struct{})
	b.mu.Unlock()

	for _, press := range presses {
		if err := b.flush(ctx, press); err != nil {
			b.logger.Info("signup press rejected",
				"quest_id", press.QuestID,
				"discord_id", press.DiscordID,
				"character_id", press.CharacterID,
				"error", err)
		}
	}
}
