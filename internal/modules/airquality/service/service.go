package service

import (
	"context"
	"log/slog"
	"time"

	"breather/internal/conditions"
	"breather/internal/engine"
	"breather/internal/mqtt"
)

// Broker is the MQTT surface the bridge needs; *mqtt.Client satisfies it.
type Broker interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

type Engine interface {
	Snapshot() engine.State
	Refresh() bool
	SetMode(ctx context.Context, mode conditions.DisplayMode) (engine.State, error)
	Subscribe(streams ...engine.Stream) *engine.Subscription
}

// Service bridges the engine to MQTT: state goes out retained on
// {prefix}/state, commands come in on {prefix}/command.
type Service struct {
	engine Engine
	broker Broker
	prefix string
	logger *slog.Logger

	// resync is how often a state publish that failed is retried.
	resync         time.Duration
	commandTimeout time.Duration
}

func NewService(eng Engine, broker Broker, prefix string, logger *slog.Logger) *Service {
	return &Service{
		engine:         eng,
		broker:         broker,
		prefix:         prefix,
		logger:         logger.With("component", "mqtt-bridge"),
		resync:         5 * time.Second,
		commandTimeout: 5 * time.Second,
	}
}

func (s *Service) StateTopic() string   { return s.prefix + "/state" }
func (s *Service) CommandTopic() string { return s.prefix + "/command" }

// Register attaches the command handler. Call it before connecting so the
// subscription is made on the first CONNACK.
func (s *Service) Register() error {
	return s.broker.Subscribe(s.CommandTopic(), 1, s.handleCommand)
}

// Run publishes the current state and then every update until ctx is done
// or the engine stops.
func (s *Service) Run(ctx context.Context) error {
	sub := s.engine.Subscribe()
	defer sub.Close()

	stale := !s.publishState(s.engine.Snapshot())

	ticker := time.NewTicker(s.resync)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if stale {
				stale = !s.publishState(s.engine.Snapshot())
			}
		case u, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			stale = !s.publishState(u.State)
		}
	}
}
