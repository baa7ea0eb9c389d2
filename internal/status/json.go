package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	State         string       `json:"state"`
	Frame         *FrameJSON   `json:"frame,omitempty"`
	Sync          SyncJSON     `json:"sync"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	LastFault     *FaultJSON   `json:"last_fault,omitempty"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// FrameJSON is the frame currently on air.
type FrameJSON struct {
	Time        string `json:"time"`
	DST         bool   `json:"dst"`
	DSTAnnounce bool   `json:"dst_announce"`
	Bits        string `json:"bits"`
}

// SyncJSON reports the arming inputs.
type SyncJSON struct {
	Switch      bool `json:"switch"`
	ClockSynced bool `json:"clock_synchronized"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Frames         int `json:"frames"`
	Transitions    int `json:"transitions"`
	Unsynchronized int `json:"unsynchronized"`
	Overruns       int `json:"tick_overruns"`
	Stalls         int `json:"clock_stalls"`
	InvalidFrames  int `json:"invalid_frames"`
	PinWrites      int `json:"pin_write_errors"`
}

// FaultJSON is the JSON representation of the last fault.
type FaultJSON struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	At      string `json:"at"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Zone         string `json:"zone"`
	AntennaPin   int    `json:"antenna_pin"`
	LEDPin       int    `json:"led_pin"`
	SwitchMode   string `json:"switch_mode"`
	SwitchPin    int    `json:"switch_pin,omitempty"`
	RequireSync  bool   `json:"require_sync"`
	PollMs       int64  `json:"poll_ms"`
	StaleAfterMs int64  `json:"stale_after_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	Prefix       string `json:"prefix"`
	HTTPAddr     string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         snap.State.String(),
		Sync:          SyncJSON{Switch: snap.SyncOn, ClockSynced: snap.ClockSynced},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Frames:         snap.Counts.Frames,
			Transitions:    snap.Counts.Transitions,
			Unsynchronized: snap.Counts.Unsynchronized,
			Overruns:       snap.Counts.Overruns,
			Stalls:         snap.Counts.Stalls,
			InvalidFrames:  snap.Counts.InvalidFrames,
			PinWrites:      snap.Counts.PinWrites,
		},
		Config: ConfigJSON{
			Zone:         snap.Config.Zone,
			AntennaPin:   snap.Config.AntennaPin,
			LEDPin:       snap.Config.LEDPin,
			SwitchMode:   snap.Config.SwitchMode,
			SwitchPin:    snap.Config.SwitchPin,
			RequireSync:  snap.Config.RequireSync,
			PollMs:       snap.Config.PollMs,
			StaleAfterMs: snap.Config.StaleAfterMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			Prefix:       snap.Config.Prefix,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}

	if snap.Transmitting() {
		inner.Frame = &FrameJSON{
			Time:        snap.Frame.String(),
			DST:         snap.Frame.DST,
			DSTAnnounce: snap.Frame.DSTAnnounce,
			Bits:        snap.Bits.String(),
		}
	}
	if snap.LastFault != nil {
		inner.LastFault = &FaultJSON{
			Kind:    snap.LastFault.Kind,
			Message: snap.LastFault.Message,
			At:      snap.LastFault.At.UTC().Format(time.RFC3339),
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
