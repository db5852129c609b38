package notify

import (
	"context"
	"errors"

	"github.com/wolfman30/dentaai-platform/internal/observability/metrics"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

// LogEmitter simulates SMS delivery by logging the intent.
type LogEmitter struct {
	logger *logging.Logger
}

func NewLogEmitter(logger *logging.Logger) *LogEmitter {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogEmitter{logger: logger}
}

func (e *LogEmitter) Emit(ctx context.Context, msg Message) error {
	e.logger.Info("sms simulated",
		"kind", msg.Kind,
		"appointment_id", msg.AppointmentID,
		"to", msg.Phone,
		"body", msg.Body,
	)
	return nil
}

// Channel pairs an emitter with the label used in metrics.
type Channel struct {
	Name    string
	Emitter Emitter
}

// Fanout delivers every intent to all channels. One failing channel does not
// stop the others; the joined error is returned.
type Fanout struct {
	channels []Channel
	metrics  *metrics.NotificationMetrics
	logger   *logging.Logger
}

func NewFanout(m *metrics.NotificationMetrics, logger *logging.Logger, channels ...Channel) *Fanout {
	if logger == nil {
		logger = logging.Default()
	}
	return &Fanout{channels: channels, metrics: m, logger: logger}
}

func (f *Fanout) Emit(ctx context.Context, msg Message) error {
	var errs []error
	for _, ch := range f.channels {
		if ch.Emitter == nil {
			continue
		}
		err := ch.Emitter.Emit(ctx, msg)
		f.metrics.ObserveEmit(string(msg.Kind), ch.Name, err)
		if err != nil {
			f.logger.Warn("notify: channel emit failed", "channel", ch.Name, "kind", msg.Kind, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Emitter = (*LogEmitter)(nil)
	_ Emitter = (*Fanout)(nil)
)
