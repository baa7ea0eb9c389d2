// Package logging builds the daemon's zap logger and logs emitter events.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sweeney/dcf77-emitter/internal/emitter"
)

// New returns a production logger at level, or a development logger
// (console encoding, stack traces on warnings) when development is set.
func New(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Observer logs emitter events: transitions at Info, faults at Warn (Error
// for invalid frames), and frames at Debug.
type Observer struct {
	log *zap.Logger
}

// NewObserver returns an emitter.Observer writing to log.
func NewObserver(log *zap.Logger) *Observer {
	return &Observer{log: log.Named("emitter")}
}

func (o *Observer) Observe(ev emitter.Event) {
	switch ev.Type {
	case emitter.EventStateChanged:
		o.log.Info("state changed",
			zap.Stringer("from", ev.From),
			zap.Stringer("to", ev.To),
			zap.String("reason", ev.Reason))

	case emitter.EventFrame:
		if ce := o.log.Check(zapcore.DebugLevel, "frame"); ce != nil {
			ce.Write(
				zap.Stringer("time", ev.Frame),
				zap.Bool("dst_announce", ev.Frame.DSTAnnounce),
				zap.Stringer("bits", ev.Bits))
		}

	case emitter.EventFault:
		lvl := zapcore.WarnLevel
		if ev.Reason == emitter.FaultInvalidFrame {
			lvl = zapcore.ErrorLevel
		}
		o.log.Log(lvl, "fault", zap.String("kind", ev.Reason), zap.Error(ev.Err))
	}
}

var _ emitter.Observer = (*Observer)(nil)
