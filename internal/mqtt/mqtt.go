// Package mqtt publishes emitter events and daemon lifecycle messages to a
// broker and receives sync switch commands from it.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/dcf77-emitter/internal/emitter"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "dcf77/emitter"

// Topics are the topics the daemon uses under one prefix.
type Topics struct {
	Events    string // emitter events
	System    string // startup, shutdown, heartbeat
	SyncSet   string // ON/OFF commands for the sync switch
	SyncState string // retained sync switch position
}

// NewTopics derives the topic set from prefix. An empty prefix selects
// DefaultPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Events:    prefix + "/events",
		System:    prefix + "/system",
		SyncSet:   prefix + "/sync/set",
		SyncState: prefix + "/sync/state",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an emitter event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event emitter.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// PublishSyncState sends the retained sync switch position.
	PublishSyncState(on bool) error

	// Close disconnects from the broker.
	Close() error
}

// Subscriber delivers messages on a topic to a handler.
type Subscriber interface {
	Subscribe(topic string, handler func(payload []byte)) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload for an emitter event.
type Payload struct {
	DCF77 EventPayload `json:"dcf77"`
}

// EventPayload contains the event details. Only the fields relevant to the
// event type are set.
type EventPayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	From      string        `json:"from,omitempty"`
	To        string        `json:"to,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Fault     string        `json:"fault,omitempty"`
	Error     string        `json:"error,omitempty"`
	Frame     *FramePayload `json:"frame,omitempty"`
}

// FramePayload is an encoded minute.
type FramePayload struct {
	Time         string `json:"time"`
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	Day          int    `json:"day"`
	Weekday      int    `json:"weekday"`
	Hour         int    `json:"hour"`
	Minute       int    `json:"minute"`
	DST          bool   `json:"dst"`
	DSTAnnounce  bool   `json:"dst_announce"`
	LeapAnnounce bool   `json:"leap_announce"`
	Bits         string `json:"bits"`
}

// FormatPayload creates the JSON payload for an emitter event.
func FormatPayload(event emitter.Event) ([]byte, error) {
	p := EventPayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
	}

	switch event.Type {
	case emitter.EventStateChanged:
		p.From = event.From.String()
		p.To = event.To.String()
		p.Reason = event.Reason
	case emitter.EventFault:
		p.Fault = event.Reason
		if event.Err != nil {
			p.Error = event.Err.Error()
		}
	case emitter.EventFrame:
		f := event.Frame
		p.Frame = &FramePayload{
			Time:         f.String(),
			Year:         f.Year,
			Month:        f.Month,
			Day:          f.Day,
			Weekday:      f.Weekday,
			Hour:         f.Hour,
			Minute:       f.Minute,
			DST:          f.DST,
			DSTAnnounce:  f.DSTAnnounce,
			LeapAnnounce: f.LeapAnnounce,
			Bits:         event.Bits.String(),
		}
	}

	return json.Marshal(Payload{DCF77: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// FormatSyncState returns the payload for the sync state topic.
func FormatSyncState(on bool) []byte {
	if on {
		return []byte("ON")
	}
	return []byte("OFF")
}
