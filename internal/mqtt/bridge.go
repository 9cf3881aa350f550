package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/orchestrator"
)

// Controller applies commands to live sessions.
type Controller interface {
	Advance(ctx context.Context, sessionID string, option int) (orchestrator.View, error)
	Reset(ctx context.Context, sessionID string) (orchestrator.View, error)
}

// AdvanceCommand is the payload of an advance command.
type AdvanceCommand struct {
	Option *int `json:"option"`
}

// CommandError is published to a session's errors topic.
type CommandError struct {
	Action string `json:"action"`
	Error  string `json:"error"`
}

// Bridge publishes events to the broker and applies commands received from it.
type Bridge struct {
	transport Transport
	ctrl      Controller
	topics    Topics
	logger    *slog.Logger
}

func NewBridge(t Transport, ctrl Controller, prefix string, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		transport: t,
		ctrl:      ctrl,
		topics:    NewTopics(prefix),
		logger:    logger,
	}
}

// Run subscribes to command topics and forwards events until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	sub := events.Subscribe()
	defer events.Unsubscribe(sub)

	for _, action := range []string{ActionAdvance, ActionReset} {
		if err := b.transport.Subscribe(b.topics.CommandFilter(action), b.commandHandler(ctx)); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub:
			if !ok {
				return nil
			}
			b.publishEvent(e)
		}
	}
}

func (b *Bridge) publishEvent(e events.Event) {
	if !b.transport.IsConnected() {
		return
	}
	topic := b.topics.SystemEvents()
	if e.SessionID != "" {
		topic = b.topics.SessionEvents(e.SessionID)
	}
	b.publishJSON(topic, e)
}

func (b *Bridge) publishJSON(topic string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("mqtt marshal failed", "topic", topic, "error", err)
		return
	}
	if err := b.transport.Publish(topic, data); err != nil {
		b.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
	}
}

func (b *Bridge) commandHandler(ctx context.Context) MessageHandler {
	return func(topic string, payload []byte) {
		sessionID, action, ok := b.topics.ParseCommand(topic)
		if !ok {
			b.logger.Debug("mqtt ignoring topic", "topic", topic)
			return
		}
		b.handleCommand(ctx, sessionID, action, payload)
	}
}

func (b *Bridge) handleCommand(ctx context.Context, sessionID, action string, payload []byte) {
	var (
		view orchestrator.View
		err  error
	)
	switch action {
	case ActionAdvance:
		var cmd AdvanceCommand
		if jerr := json.Unmarshal(payload, &cmd); jerr != nil || cmd.Option == nil {
			b.reject(sessionID, action, "payload must be {\"option\": <index>}")
			return
		}
		view, err = b.ctrl.Advance(ctx, sessionID, *cmd.Option)
	case ActionReset:
		view, err = b.ctrl.Reset(ctx, sessionID)
	}

	fields := map[string]interface{}{"action": action, "ok": err == nil}
	if err != nil {
		fields["error"] = err.Error()
	}
	events.EmitSession(sessionID, "info", events.MQTTCommand, "", fields)

	if err != nil {
		b.reject(sessionID, action, err.Error())
		return
	}
	b.publishJSON(b.topics.SessionState(sessionID), view)
}

func (b *Bridge) reject(sessionID, action, msg string) {
	b.logger.Warn("mqtt command rejected", "session_id", sessionID, "action", action, "error", msg)
	b.publishJSON(b.topics.SessionErrors(sessionID), CommandError{Action: action, Error: msg})
}
