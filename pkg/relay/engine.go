// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// EngineParams configures NewEngine. Correlations may be nil, in which case
// an empty table is created.
type EngineParams struct {
	Transport    Transport
	Bans         *BanList
	Correlations *CorrelationTable

	GroupID int64
	// BotID is the bot account's own user ID, used to recognize replies to
	// relayed messages.
	BotID UserID

	EditWindow           time.Duration
	CorrelationRetention time.Duration
	WelcomeText          string

	// Metrics may be nil, in which case unregistered counters are used.
	Metrics *Metrics
	Log     zerolog.Logger
}

// Engine relays messages between users' private chats and the moderation
// group. Each handler call is an independent unit of work and may run
// concurrently with others.
type Engine struct {
	transport    Transport
	bans         *BanList
	correlations *CorrelationTable
	admins       *AdminGate
	metrics      *Metrics

	groupID     int64
	botID       UserID
	editWindow  time.Duration
	retention   time.Duration
	welcomeText string

	now func() time.Time
	log zerolog.Logger
}

// NewEngine creates a relay engine.
func NewEngine(p EngineParams) *Engine {
	log := p.Log.With().Str("component", "relay").Logger()
	correlations := p.Correlations
	if correlations == nil {
		correlations = NewCorrelationTable()
	}
	editWindow := p.EditWindow
	if editWindow <= 0 {
		editWindow = DefaultEditWindow
	}
	welcome := p.WelcomeText
	if welcome == "" {
		welcome = DefaultWelcomeText
	}
	metrics := p.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if p.CorrelationRetention > 0 && p.CorrelationRetention < editWindow {
		log.Warn().
			Dur("retention", p.CorrelationRetention).
			Dur("edit_window", editWindow).
			Msg("Correlation retention is shorter than the edit window, late edits will be dropped")
	}
	return &Engine{
		transport:    p.Transport,
		bans:         p.Bans,
		correlations: correlations,
		admins:       NewAdminGate(p.Transport, p.GroupID, p.Log),
		metrics:      metrics,
		groupID:      p.GroupID,
		botID:        p.BotID,
		editWindow:   editWindow,
		retention:    p.CorrelationRetention,
		welcomeText:  welcome,
		now:          time.Now,
		log:          log,
	}
}

// Correlations exposes the engine's correlation table.
func (e *Engine) Correlations() *CorrelationTable {
	return e.correlations
}

// HandleMessage dispatches a new inbound message.
func (e *Engine) HandleMessage(ctx context.Context, msg *Message) {
	if msg == nil || msg.From == nil {
		return
	}
	switch {
	case msg.IsPrivate():
		e.handlePrivate(ctx, msg)
	case msg.Ref.ChatID == e.groupID:
		e.handleGroup(ctx, msg)
	default:
		e.log.Trace().
			Int64("chat_id", msg.Ref.ChatID).
			Str("chat_type", string(msg.ChatType)).
			Msg("Ignoring message from unrelated chat")
	}
}

// HandleEdit dispatches an edited message. Only edits made in the group are
// propagated.
func (e *Engine) HandleEdit(ctx context.Context, msg *Message) {
	if msg == nil || msg.Ref.ChatID != e.groupID {
		return
	}
	e.handleGroupEdit(ctx, msg)
}

// RunMaintenance prunes correlations older than the configured retention
// until ctx is cancelled. It returns immediately if retention is disabled.
// Pass 0 to use the default interval of ten minutes.
func (e *Engine) RunMaintenance(ctx context.Context, interval time.Duration) {
	if e.retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	e.log.Info().
		Dur("interval", interval).
		Dur("retention", e.retention).
		Msg("Starting correlation pruning loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("Correlation pruning stopped")
			return
		case <-ticker.C:
			e.pruneCorrelations()
		}
	}
}

func (e *Engine) pruneCorrelations() {
	removed := e.correlations.Prune(e.now().Add(-e.retention))
	if removed > 0 {
		e.log.Debug().
			Int("removed", removed).
			Int("remaining", e.correlations.Len()).
			Msg("Pruned old correlations")
	}
}

// notify sends a plain notice. Failures are logged and otherwise ignored.
func (e *Engine) notify(ctx context.Context, chatID int64, text string) {
	if _, err := e.transport.SendText(ctx, chatID, text); err != nil {
		e.logSendError(err, chatID, "Failed to send notice")
	}
}

func (e *Engine) logSendError(err error, chatID int64, msg string) {
	if errors.Is(err, ErrBotBlocked) {
		e.metrics.SendFailures.WithLabelValues("bot_blocked").Inc()
		e.log.Warn().Err(err).Int64("chat_id", chatID).Msg(msg + ": bot is blocked")
		return
	}
	e.metrics.SendFailures.WithLabelValues("error").Inc()
	e.log.Error().Err(err).Int64("chat_id", chatID).Msg(msg)
}
