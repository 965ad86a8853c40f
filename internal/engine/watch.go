package engine

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/leapshader/pkg/core"
)

// WatchDebounce is how long the watcher waits for a burst of file events
// to settle before reading the files.
const WatchDebounce = 100 * time.Millisecond

// Watch mirrors edits of the stage files in the shaders directory into the
// session until ctx is canceled. onChange runs after each file that changed
// the editor text; it may be nil.
//
// A file whose text already equals the editor text is skipped, so saving
// the session's own pair does not schedule another compile.
func (e *Engine) Watch(ctx context.Context, onChange func(core.Stage)) error {
	if e.shadersDir == "" {
		return errors.New("watch: no shaders directory configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(e.shadersDir); err != nil {
		// Don't fail - continue without watching
		e.logger.Warn("failed to watch shaders directory", "dir", e.shadersDir, "error", err)
		<-ctx.Done()
		return nil
	}
	e.logger.Debug("watching shaders", "dir", e.shadersDir)

	pending := make(map[core.Stage]bool)
	timer := time.NewTimer(WatchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			stage, ok := StageForFile(event.Name)
			if !ok {
				continue
			}
			pending[stage] = true
			timer.Reset(WatchDebounce)

		case <-timer.C:
			for stage := range pending {
				delete(pending, stage)
				if e.syncFile(stage) && onChange != nil {
					onChange(stage)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher error", "error", err)
		}
	}
}

// syncFile feeds the stage file into the session as an edit. It reports
// whether the editor text changed.
func (e *Engine) syncFile(stage core.Stage) bool {
	b, err := os.ReadFile(ShaderPath(e.shadersDir, stage))
	if err != nil {
		e.logger.Debug("shader file unreadable", "stage", stage, "error", err)
		return false
	}
	snap, err := e.session.Snapshot()
	if err != nil {
		return false
	}
	text := string(b)
	if snap.Editor.Get(stage) == text {
		return false
	}
	e.logger.Info("shader file changed", "stage", stage)
	if err := e.session.Edit(stage, text); err != nil {
		e.logger.Error("failed to apply file change", "stage", stage, "error", err)
		return false
	}
	return true
}
