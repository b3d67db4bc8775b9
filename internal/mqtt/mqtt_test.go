package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"breather/internal/config"
)

func newTestClient() *Client {
	cfg := config.MQTTConfig{Broker: "127.0.0.1", Port: 1, ClientID: "breather-test", TopicPrefix: "breather"}
	return NewClient(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_PublishWhileDisconnected(t *testing.T) {
	c := newTestClient()
	defer c.Disconnect()

	if c.IsConnected() {
		t.Fatalf("IsConnected() = true before Connect")
	}
	err := c.Publish("breather/state", 1, true, []byte("{}"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestClient_SubscribeBeforeConnectIsDeferred(t *testing.T) {
	c := newTestClient()
	defer c.Disconnect()

	if err := c.Subscribe("breather/command", 1, func(string, []byte) {}); err != nil {
		t.Fatalf("Subscribe() error = %v, want nil", err)
	}
	if _, ok := c.subs["breather/command"]; !ok {
		t.Errorf("subscription not recorded")
	}
}

func TestClient_ConnectRespectsContext(t *testing.T) {
	c := newTestClient()
	defer c.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	// Nothing listens on port 1, so paho keeps retrying until ctx expires.
	err := c.Connect(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Connect() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func TestClient_ConnectAfterDisconnect(t *testing.T) {
	c := newTestClient()
	c.Disconnect()
	c.Disconnect()

	if err := c.Connect(context.Background()); err == nil {
		t.Errorf("Connect() after Disconnect error = nil, want non-nil")
	}
}
