// Package status provides a thread-safe status tracker for the dcf77-emitter daemon.
// It observes emitter events and is read by HTTP handlers and heartbeats.
package status

import (
	"os"
	"sync"
	"time"

	"github.com/sweeney/dcf77-emitter/internal/dcf77"
	"github.com/sweeney/dcf77-emitter/internal/emitter"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Zone         string
	AntennaPin   int
	LEDPin       int
	SwitchMode   string
	SwitchPin    int
	RequireSync  bool
	PollMs       int64
	StaleAfterMs int64
	HeartbeatMs  int64
	Broker       string
	Prefix       string
	HTTPAddr     string
}

// Counts tallies emitter events since startup.
type Counts struct {
	Frames         int
	Transitions    int
	Unsynchronized int
	Overruns       int
	Stalls         int
	InvalidFrames  int
	PinWrites      int
}

// Fault is the most recent fault.
type Fault struct {
	Kind    string
	Message string
	At      time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type; safe to use after the lock is released.
type Snapshot struct {
	State         emitter.State
	Frame         dcf77.Frame
	Bits          dcf77.Bits
	HasFrame      bool
	LastFault     *Fault
	Counts        Counts
	SyncOn        bool
	ClockSynced   bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Transmitting reports whether a frame is on air.
func (s Snapshot) Transmitting() bool {
	return s.State == emitter.Transmitting && s.HasFrame
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     emitter.Disarmed,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Observe records an emitter event. It implements emitter.Observer.
func (t *Tracker) Observe(ev emitter.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Type {
	case emitter.EventStateChanged:
		t.snap.State = ev.To
		t.snap.Counts.Transitions++
		if ev.To != emitter.Transmitting {
			t.snap.HasFrame = false
		}
	case emitter.EventFrame:
		t.snap.Frame = ev.Frame
		t.snap.Bits = ev.Bits
		t.snap.HasFrame = true
		t.snap.Counts.Frames++
	case emitter.EventFault:
		f := &Fault{Kind: ev.Reason, At: ev.Timestamp}
		if ev.Err != nil {
			f.Message = ev.Err.Error()
		}
		t.snap.LastFault = f
		switch ev.Reason {
		case emitter.FaultUnsynchronized:
			t.snap.Counts.Unsynchronized++
		case emitter.FaultTickOverrun:
			t.snap.Counts.Overruns++
		case emitter.FaultClockStalled:
			t.snap.Counts.Stalls++
		case emitter.FaultInvalidFrame:
			t.snap.Counts.InvalidFrames++
		case emitter.FaultPinWrite:
			t.snap.Counts.PinWrites++
		}
	}
}

// SetSync records the sync switch position and whether the clock source is
// synchronized.
func (t *Tracker) SetSync(switchOn, clockSynced bool) {
	t.mu.Lock()
	t.snap.SyncOn = switchOn
	t.snap.ClockSynced = clockSynced
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastFault != nil {
		f := *s.LastFault
		s.LastFault = &f
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// ReadNetworkInfo returns the network state exported by pi-helper, or nil if
// none is set.
func ReadNetworkInfo() *NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
