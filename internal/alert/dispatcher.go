package alert

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ppiankov/actiongate/internal/model"
)

// Dispatcher fans out alert events to matching webhook configurations.
type Dispatcher struct {
	configs []AlertConfig
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher from webhook configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []AlertConfig, logger *slog.Logger) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{configs: configs, logger: logger}
}

// Dispatch sends the event to all webhooks whose Events list matches.
// Sends run in goroutines and do not block the caller.
func (d *Dispatcher) Dispatch(event AlertEvent) {
	for _, cfg := range d.configs {
		if !matches(cfg.Events, event) {
			continue
		}
		d.wg.Add(1)
		go func(cfg AlertConfig) {
			defer d.wg.Done()
			if err := Send(context.Background(), cfg, event); err != nil {
				d.logger.Warn("alert delivery failed", "url", cfg.URL, "event", event.EventID, "error", err)
			}
		}(cfg)
	}
}

// Wait blocks until every in-flight send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Callback adapts the dispatcher to a confirmation callback.
func (d *Dispatcher) Callback() func(context.Context, model.SecurityEvent) error {
	return func(_ context.Context, ev model.SecurityEvent) error {
		d.Dispatch(EventFromSecurityEvent(ev))
		return nil
	}
}

// matches reports whether any selector names the event's decision, its risk
// level or its outcome.
func matches(events []string, event AlertEvent) bool {
	for _, e := range events {
		switch {
		case e == event.Decision, e == event.Level:
			return true
		case e == EventAllowed && event.Allowed:
			return true
		case e == EventDenied && !event.Allowed:
			return true
		}
	}
	return false
}
