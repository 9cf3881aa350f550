package mqtt

import (
	"testing"

	"github.com/AaronLay10/DecisionSim/internal/logging"
)

func TestClientSubscribeWhileDisconnected(t *testing.T) {
	c := NewClient("tcp://127.0.0.1:1", "test-client", logging.Discard())
	if c.IsConnected() {
		t.Fatal("new client should not be connected")
	}

	if err := c.Subscribe("decisionsim/sessions/+/advance", func(string, []byte) {}); err != nil {
		t.Fatalf("subscribe while disconnected should be deferred, got %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs["decisionsim/sessions/+/advance"]; !ok {
		t.Error("expected subscription to be remembered for reconnect")
	}
}

func TestTimeoutErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&ConnectTimeoutError{URL: "tcp://broker:1883"}, "mqtt connect timeout: tcp://broker:1883"},
		{&SubscribeTimeoutError{Topic: "a/b"}, "mqtt subscribe timeout: a/b"},
		{&PublishTimeoutError{Topic: "a/b"}, "mqtt publish timeout: a/b"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
