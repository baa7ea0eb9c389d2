package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrInvalidCommand is returned for a sync command that is not ON or OFF.
var ErrInvalidCommand = errors.New("mqtt: invalid sync command")

// ParseCommand interprets a sync command payload. ON/OFF, true/false, and
// 1/0 are accepted, case-insensitively.
func ParseCommand(payload []byte) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case "ON", "TRUE", "1":
		return true, nil
	case "OFF", "FALSE", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidCommand, payload)
	}
}

// CommandSwitch is a sync switch operated by MQTT commands. It satisfies
// gpio.Switch and is safe to read from the emitter while commands arrive on
// the client's goroutines.
type CommandSwitch struct {
	on  atomic.Bool
	pub Publisher
	log *zap.Logger
}

// NewCommandSwitch creates a switch in the initial position. pub, if non-nil,
// receives the position after every command.
func NewCommandSwitch(initial bool, pub Publisher, log *zap.Logger) *CommandSwitch {
	if log == nil {
		log = zap.NewNop()
	}
	s := &CommandSwitch{pub: pub, log: log.Named("sync")}
	s.on.Store(initial)
	return s
}

// IsOn returns the current position.
func (s *CommandSwitch) IsOn() bool {
	return s.on.Load()
}

// Set moves the switch and publishes the new position.
func (s *CommandSwitch) Set(on bool) {
	if prev := s.on.Swap(on); prev != on {
		s.log.Info("sync switch", zap.Bool("on", on))
	}
	s.PublishState()
}

// PublishState publishes the current position.
func (s *CommandSwitch) PublishState() {
	if s.pub == nil {
		return
	}
	if err := s.pub.PublishSyncState(s.IsOn()); err != nil {
		s.log.Debug("publish sync state", zap.Error(err))
	}
}

// HandleCommand applies a command payload. Invalid payloads are logged and
// ignored.
func (s *CommandSwitch) HandleCommand(payload []byte) {
	on, err := ParseCommand(payload)
	if err != nil {
		s.log.Warn("ignoring command", zap.Error(err))
		return
	}
	s.Set(on)
}

// Listen subscribes the switch to its command topic.
func (s *CommandSwitch) Listen(sub Subscriber, topic string) error {
	if err := sub.Subscribe(topic, s.HandleCommand); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}
