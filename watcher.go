package tabula

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the data files behind a Context's slots and reloads a
// slot when its file is rewritten. It is an opt-in convenience for local
// filesystem storage; the orchestrator itself never watches anything.
type Watcher struct {
	ctx   *Context
	slots map[string]string // absolute file path -> slot name

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a watcher for every slot path, resolved relative to
// baseDir. The parent directory of each file is watched so that
// atomic-rename saves from editors are still observed.
func (c *Context) NewWatcher(baseDir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		ctx:     c,
		slots:   make(map[string]string, len(c.slots)),
		watcher: fw,
		done:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, s := range c.slots {
		abs, err := filepath.Abs(filepath.Join(baseDir, s.path))
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.slots[abs] = s.name
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Start begins watching. Reloads run on the watcher goroutine; failures
// are logged and do not stop the watcher.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop closes the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	logger := w.ctx.loggerFrom(ctx)

	// Debounce: editors and exporters often emit several events per save.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, known := w.slots[abs]; known {
				pending[abs] = time.Now()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error.", "error", err)
		case now := <-ticker.C:
			for abs, last := range pending {
				if now.Sub(last) < debounce {
					continue
				}
				delete(pending, abs)
				name := w.slots[abs]
				if err := w.ctx.Reload(ctx, name); err != nil {
					logger.Warn("Auto-reload failed.", "slot", name, "error", err)
				} else {
					logger.Info("Dataset auto-reloaded.", "slot", name)
				}
			}
		}
	}
}
