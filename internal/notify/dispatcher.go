package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// Notifier is the user-facing notification surface.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// HistoryLog is the append-only notification history.
type HistoryLog interface {
	Append(ctx context.Context, e entity.HistoryEntry) (int64, error)
}

// Dispatcher routes each inbound event to exactly one alert and one history
// entry. It never touches the business profile.
type Dispatcher struct {
	notifier Notifier
	history  HistoryLog
	logger   *slog.Logger
	now      func() time.Time
}

func NewDispatcher(notifier Notifier, history HistoryLog, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{notifier: notifier, history: history, logger: logger, now: time.Now}
}

// Dispatch classifies ev and, unless it is unrecognized, shows its alert and
// appends it to history. Both steps are attempted even if the first fails.
// The returned Event tells the caller which variant was chosen.
func (d *Dispatcher) Dispatch(ctx context.Context, ev entity.InboundEvent) (Event, error) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = d.now().UTC()
	}
	e := Classify(ev)
	alert, ok := Render(e)
	if !ok {
		d.logger.Debug("notify.dropped", "type", e.Type(), "keys", len(ev.Data))
		return e, nil
	}

	var errs []error
	if err := d.notifier.Notify(ctx, alert); err != nil {
		d.logger.Warn("notify.surface_failed", "type", alert.Type, "error", err)
		errs = append(errs, fmt.Errorf("notify: %w", err))
	}
	id, err := d.history.Append(ctx, entity.HistoryEntry{
		EventType:  alert.Type,
		Title:      alert.Title,
		Body:       alert.Body,
		Reference:  alert.Reference,
		Payload:    maps.Clone(ev.Data),
		ReceivedAt: ev.ReceivedAt,
	})
	if err != nil {
		d.logger.Error("notify.history_failed", "type", alert.Type, "error", err)
		errs = append(errs, fmt.Errorf("append history: %w", err))
	}

	d.logger.Info("notify.dispatched", "type", alert.Type, "priority", alert.Priority, "reference", alert.Reference, "history_id", id)
	return e, errors.Join(errs...)
}

// Run dispatches events until the channel closes or ctx ends.
func (d *Dispatcher) Run(ctx context.Context, events <-chan entity.InboundEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_, _ = d.Dispatch(ctx, ev)
		}
	}
}

// WriterNotifier writes each alert as one JSON line, for a UI collaborator
// reading the daemon's output.
type WriterNotifier struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{enc: json.NewEncoder(w)}
}

func (n *WriterNotifier) Notify(_ context.Context, a Alert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enc.Encode(a)
}
