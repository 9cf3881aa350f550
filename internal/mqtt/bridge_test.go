package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AaronLay10/DecisionSim/internal/catalog"
	"github.com/AaronLay10/DecisionSim/internal/events"
	"github.com/AaronLay10/DecisionSim/internal/logging"
	"github.com/AaronLay10/DecisionSim/internal/orchestrator"
)

type published struct {
	topic   string
	payload []byte
}

// mockTransport records publishes and lets tests deliver messages to
// subscribed filters.
type mockTransport struct {
	mu            sync.Mutex
	subscriptions map[string]MessageHandler
	published     []published
	connected     bool
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		subscriptions: make(map[string]MessageHandler),
		connected:     true,
	}
}

func (m *mockTransport) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic: topic, payload: payload})
	return nil
}

func (m *mockTransport) Subscribe(topic string, handler MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[topic] = handler
	return nil
}

func (m *mockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockTransport) subscriptionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscriptions)
}

func (m *mockTransport) simulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	var handler MessageHandler
	for filter, h := range m.subscriptions {
		if topicMatches(filter, topic) {
			handler = h
		}
	}
	m.mu.Unlock()
	if handler != nil {
		handler(topic, payload)
	}
}

func (m *mockTransport) messagesOn(topic string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p.payload)
		}
	}
	return out
}

func topicMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	if len(fp) != len(tp) {
		return false
	}
	for i := range fp {
		if fp[i] != "+" && fp[i] != tp[i] {
			return false
		}
	}
	return true
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("timeout waiting for: %s", msg)
}

func startBridge(t *testing.T) (*mockTransport, *orchestrator.Manager) {
	t.Helper()
	cat, err := catalog.Load("", true)
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}
	mgr := orchestrator.NewManager(cat, orchestrator.WithLogger(logging.Discard()))
	transport := newMockTransport()
	bridge := NewBridge(transport, mgr, "decisionsim", logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := bridge.Run(ctx); err != nil {
			t.Errorf("bridge failed: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	waitFor(t, 2*time.Second, func() bool { return transport.subscriptionCount() == 2 }, "command subscriptions")
	return transport, mgr
}

func TestBridgeAdvanceCommand(t *testing.T) {
	events.Clear()
	transport, mgr := startBridge(t)

	v, err := mgr.Start(context.Background(), "startup-pivot")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	transport.simulateMessage("decisionsim/sessions/"+v.ID+"/advance", []byte(`{"option": 2}`))

	states := transport.messagesOn("decisionsim/sessions/" + v.ID + "/state")
	if len(states) != 1 {
		t.Fatalf("expected 1 state message, got %d", len(states))
	}
	var got orchestrator.View
	if err := json.Unmarshal(states[0], &got); err != nil {
		t.Fatalf("failed to unmarshal state: %v", err)
	}
	if got.CurrentNode.ID != "pivot" || got.Score != 15 {
		t.Errorf("unexpected state %+v", got)
	}

	waitFor(t, 2*time.Second, func() bool {
		for _, p := range transport.messagesOn("decisionsim/sessions/" + v.ID + "/events") {
			var e events.Event
			if json.Unmarshal(p, &e) == nil && e.Name == events.SessionDecision {
				return true
			}
		}
		return false
	}, "session.decision published")
}

func TestBridgeResetCommand(t *testing.T) {
	transport, mgr := startBridge(t)
	ctx := context.Background()

	v, _ := mgr.Start(ctx, "startup-pivot")
	if _, err := mgr.Advance(ctx, v.ID, 0); err != nil {
		t.Fatalf("advance failed: %v", err)
	}

	transport.simulateMessage("decisionsim/sessions/"+v.ID+"/reset", nil)

	got, err := mgr.Get(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Steps != 0 || got.CurrentNode.ID != "start" {
		t.Errorf("expected reset session, got %+v", got)
	}
}

func TestBridgeRejectsBadCommands(t *testing.T) {
	transport, mgr := startBridge(t)
	v, _ := mgr.Start(context.Background(), "startup-pivot")
	errTopic := "decisionsim/sessions/" + v.ID + "/errors"

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"not json", "three", "payload must be"},
		{"missing option", `{}`, "payload must be"},
		{"out of range", `{"option": 5}`, "out of range"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport.simulateMessage("decisionsim/sessions/"+v.ID+"/advance", []byte(tt.payload))

			msgs := transport.messagesOn(errTopic)
			if len(msgs) != i+1 {
				t.Fatalf("expected %d error messages, got %d", i+1, len(msgs))
			}
			var ce CommandError
			if err := json.Unmarshal(msgs[i], &ce); err != nil {
				t.Fatalf("failed to unmarshal error: %v", err)
			}
			if ce.Action != ActionAdvance || !strings.Contains(ce.Error, tt.want) {
				t.Errorf("unexpected command error %+v", ce)
			}
		})
	}

	got, _ := mgr.Get(context.Background(), v.ID)
	if got.Steps != 0 {
		t.Errorf("rejected commands must not change the session, got %d steps", got.Steps)
	}
}

func TestBridgeSkipsPublishWhileDisconnected(t *testing.T) {
	transport, _ := startBridge(t)
	transport.mu.Lock()
	transport.connected = false
	transport.mu.Unlock()

	events.Emit("info", events.SystemStartup, "", nil)
	time.Sleep(50 * time.Millisecond)

	if n := len(transport.messagesOn("decisionsim/system/events")); n != 0 {
		t.Errorf("expected no publishes while disconnected, got %d", n)
	}
}

func TestTopics(t *testing.T) {
	topics := NewTopics("/decisionsim/")

	if got := topics.SessionEvents("s1"); got != "decisionsim/sessions/s1/events" {
		t.Errorf("SessionEvents = %s", got)
	}
	if got := topics.CommandFilter(ActionAdvance); got != "decisionsim/sessions/+/advance" {
		t.Errorf("CommandFilter = %s", got)
	}
	if got := NewTopics("").SystemEvents(); got != "system/events" {
		t.Errorf("SystemEvents without prefix = %s", got)
	}

	tests := []struct {
		topic  string
		id     string
		action string
		ok     bool
	}{
		{"decisionsim/sessions/abc/advance", "abc", ActionAdvance, true},
		{"decisionsim/sessions/abc/reset", "abc", ActionReset, true},
		{"decisionsim/sessions/abc/events", "", "", false},
		{"other/sessions/abc/advance", "", "", false},
		{"decisionsim/sessions//advance", "", "", false},
		{"decisionsim/sessions/abc/advance/extra", "", "", false},
	}
	for _, tt := range tests {
		id, action, ok := topics.ParseCommand(tt.topic)
		if id != tt.id || action != tt.action || ok != tt.ok {
			t.Errorf("ParseCommand(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.topic, id, action, ok, tt.id, tt.action, tt.ok)
		}
	}
}
