package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"breather/internal/conditions"
	"breather/internal/engine"
	"breather/internal/mqtt"
)

const (
	actionRefresh = "refresh"
	actionSetMode = "set_mode"
)

type command struct {
	Action string `json:"action"`
	Mode   string `json:"mode,omitempty"`
}

func (s *Service) publishState(st engine.State) bool {
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Error("failed to marshal state", "error", err)
		return true
	}
	if err := s.broker.Publish(s.StateTopic(), 1, true, data); err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			s.logger.Debug("state not published, broker offline", "seq", st.Seq)
		} else {
			s.logger.Warn("failed to publish state", "topic", s.StateTopic(), "seq", st.Seq, "error", err)
		}
		return false
	}
	s.logger.Debug("published state", "topic", s.StateTopic(), "seq", st.Seq)
	return true
}

func (s *Service) handleCommand(topic string, payload []byte) {
	cmd, err := parseCommand(payload)
	if err != nil {
		s.logger.Warn("invalid command",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	switch cmd.Action {
	case actionRefresh:
		accepted := s.engine.Refresh()
		s.logger.Debug("refresh command", "accepted", accepted)
	case actionSetMode:
		mode, err := conditions.ParseDisplayMode(cmd.Mode)
		if err != nil {
			s.logger.Warn("invalid command", "topic", topic, "error", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.commandTimeout)
		defer cancel()
		if _, err := s.engine.SetMode(ctx, mode); err != nil {
			s.logger.Error("set mode command failed", "mode", mode.String(), "error", err)
			return
		}
		s.logger.Debug("set mode command", "mode", mode.String())
	}
}

func parseCommand(payload []byte) (command, error) {
	var cmd command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return command{}, fmt.Errorf("decode command: %w", err)
	}
	switch cmd.Action {
	case actionRefresh:
	case actionSetMode:
		if cmd.Mode == "" {
			return command{}, errors.New("set_mode requires mode")
		}
	case "":
		return command{}, errors.New("action is required")
	default:
		return command{}, fmt.Errorf("unknown action %q (allowed: refresh, set_mode)", cmd.Action)
	}
	return cmd, nil
}
