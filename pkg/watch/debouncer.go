package watch

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// debouncer coalesces rapid fsnotify events into a single callback
// invocation. Only the last event within the configured interval triggers
// the callback.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	logger   *zap.Logger
}

func newDebouncer(interval time.Duration, logger *zap.Logger, callback func()) *debouncer {
	return &debouncer{interval: interval, callback: callback, logger: logger}
}

// trigger records an event. If no further events arrive within the
// debounce interval, the callback fires once.
func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.interval, func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("debouncer callback panicked", zap.Any("error", r))
			}
		}()
		d.callback()
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
