package web

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/dcf77-emitter/internal/emitter"
	"github.com/sweeney/dcf77-emitter/internal/status"
)

// MessageType identifies a websocket message.
type MessageType string

const (
	MessageStatus       MessageType = "status"
	MessageStateChanged MessageType = "state_changed"
	MessageFrame        MessageType = "frame"
	MessageFault        MessageType = "fault"
)

// Message is one websocket message.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// StateData accompanies MessageStateChanged.
type StateData struct {
	State    string `json:"state"`
	Previous string `json:"previous_state"`
	Reason   string `json:"reason"`
}

// FrameData accompanies MessageFrame.
type FrameData struct {
	Time        string `json:"time"`
	DST         bool   `json:"dst"`
	DSTAnnounce bool   `json:"dst_announce"`
	Bits        string `json:"bits"`
}

// FaultData accompanies MessageFault.
type FaultData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusProvider supplies the status sent to a client when it connects.
type StatusProvider interface {
	Snapshot() status.Snapshot
}

// Hub maintains active websocket clients and broadcasts emitter events to
// them. It implements emitter.Observer; Observe never blocks.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	log    *zap.Logger
	status StatusProvider
}

// NewHub creates a Hub. status may be nil.
func NewHub(status StatusProvider, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log.Named("ws"),
		status:     status,
	}
}

// Run serves registrations and broadcasts until ctx is done, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", zap.String("remote_addr", c.remoteAddr()), zap.Int("total_clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", zap.String("remote_addr", c.remoteAddr()), zap.Int("total_clients", n))

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				h.log.Error("marshal broadcast", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// slow or dead client
					delete(h.clients, c)
					close(c.send)
					h.log.Warn("client send buffer full, unregistering", zap.String("remote_addr", c.remoteAddr()))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues msg for every client. It drops msg if the queue is full.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast channel full, message dropped", zap.String("message_type", string(msg.Type)))
	}
}

// Observe converts an emitter event into a message and broadcasts it.
func (h *Hub) Observe(ev emitter.Event) {
	msg := Message{Timestamp: ev.Timestamp}
	switch ev.Type {
	case emitter.EventStateChanged:
		msg.Type = MessageStateChanged
		msg.Data = StateData{State: ev.To.String(), Previous: ev.From.String(), Reason: ev.Reason}
	case emitter.EventFrame:
		msg.Type = MessageFrame
		msg.Data = FrameData{
			Time:        ev.Frame.String(),
			DST:         ev.Frame.DST,
			DSTAnnounce: ev.Frame.DSTAnnounce,
			Bits:        ev.Bits.String(),
		}
	case emitter.EventFault:
		msg.Type = MessageFault
		fd := FaultData{Kind: ev.Reason}
		if ev.Err != nil {
			fd.Message = ev.Err.Error()
		}
		msg.Data = fd
	default:
		return
	}
	h.Broadcast(msg)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) greeting() []byte {
	if h.status == nil {
		return nil
	}
	snap := h.status.Snapshot()
	var sj status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(snap), &sj); err != nil {
		return nil
	}
	data, err := json.Marshal(Message{Type: MessageStatus, Timestamp: snap.Now, Data: sj.Status})
	if err != nil {
		return nil
	}
	return data
}
