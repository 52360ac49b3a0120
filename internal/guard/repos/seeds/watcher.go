package seeds

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haukened/phishguard/internal/guard/common/log"
)

// debounceDefault batches rapid file events (editors write-then-rename)
// into one reload.
const debounceDefault = 500 * time.Millisecond

// Watcher re-imports a seed directory when its files change.
type Watcher struct {
	dir      string
	handler  func(domains []string)
	debounce time.Duration
	logger   log.Logger
}

// NewWatcher builds a watcher over dir that invokes handler with the
// freshly loaded union of domains after each settled change.
func NewWatcher(dir string, handler func(domains []string), logger log.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		handler:  handler,
		debounce: debounceDefault,
		logger:   logger,
	}
}

// Run blocks watching the directory until ctx is cancelled. Events are
// debounced; each settled batch triggers one LoadDir and one handler call.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	arm := func() {
		if timer == nil {
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
			return
		}
		timer.Reset(w.debounce)
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				arm()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(map[string]any{"error": err}, "seed watcher error")

		case <-fire:
			domains, err := LoadDir(w.dir, w.logger)
			if err != nil {
				w.logger.Warn(map[string]any{"dir": w.dir, "error": err}, "seed reload failed")
				continue
			}
			w.logger.Info(map[string]any{"domains": len(domains)}, "seed directory changed, reimporting")
			w.handler(domains)
		}
	}
}
