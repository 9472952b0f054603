package resource

import (
	"go.uber.org/zap"
)

// LogObserver writes lifecycle events to a zap logger at debug level.
// Destructor failures are logged as warnings.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a LogObserver. A nil logger disables output.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

// OnResourceEvent implements Observer.
func (o *LogObserver) OnResourceEvent(e Event) {
	fields := []zap.Field{
		zap.Uint32("handle", uint32(e.Handle)),
		zap.Stringer("type", e.TypeID),
	}
	if n, ok := e.Value.(interface{ Name() string }); ok {
		fields = append(fields, zap.String("path", n.Name()))
	}
	if e.Err != nil {
		o.logger.Warn("resource drop failed", append(fields, zap.Error(e.Err))...)
		return
	}
	o.logger.Debug("resource "+e.Type.String(), fields...)
}
