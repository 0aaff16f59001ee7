package render

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Editors often write a file in several steps; changes closer together than
// this are rendered once.
const watchDebounce = 100 * time.Millisecond

// Watch renders in to out once, then again every time in changes, until ctx
// is cancelled. The parent directory is watched so editors that replace the
// file by rename keep triggering renders. Render failures are logged and
// reported to OnRender; they do not stop the watch.
func (r *Renderer) Watch(ctx context.Context, in, out string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("render: creating watcher: %w", err)
	}
	defer w.Close()

	target, err := filepath.Abs(in)
	if err != nil {
		return fmt.Errorf("render: resolving %s: %w", in, err)
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("render: watching %s: %w", filepath.Dir(target), err)
	}

	r.renderOnce(in, out)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(ev.Name)
			if name != target || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			r.log.Debug("input changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(watchDebounce)
		case <-timer.C:
			r.renderOnce(in, out)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (r *Renderer) renderOnce(in, out string) {
	err := r.RenderFile(in, out)
	if err != nil {
		r.log.Warn("render failed", zap.String("in", in), zap.Error(err))
	} else {
		r.log.Info("rendered", zap.String("out", out))
	}
	if r.OnRender != nil {
		r.OnRender(err)
	}
}
