package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"ai-deskmate-be/internal/pkg/logger"
)

// PolicyWatcher hot-reloads routing.yaml into a PolicyHolder. An edit that
// fails validation is logged, reported through onReject, and ignored; the
// active policy stays in place.
type PolicyWatcher struct {
	path     string
	holder   *PolicyHolder
	log      logger.ILogger
	onReject func(path string, cause error)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

func WatchRoutingPolicy(path string, holder *PolicyHolder, log logger.ILogger, onReject func(path string, cause error)) (*PolicyWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve policy path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create policy watcher: %w", err)
	}

	// Watch the directory, not the file: editors and configmap mounts
	// replace the file, which drops a direct file watch.
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch policy directory: %w", err)
	}

	w := &PolicyWatcher{
		path:     absPath,
		holder:   holder,
		log:      log,
		onReject: onReject,
		watcher:  fsWatcher,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *PolicyWatcher) run() {
	// Writes often arrive as bursts (write + chmod + rename); debounce them.
	var pending <-chan time.Time
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(250 * time.Millisecond)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("PolicyWatcher", "Watcher error", map[string]interface{}{"error": err.Error()})
		case <-pending:
			pending = nil
			w.reload()
		}
	}
}

func (w *PolicyWatcher) reload() {
	policy, err := LoadRoutingPolicy(w.path)
	if err != nil {
		w.reject(err)
		return
	}
	compiled, err := CompilePolicy(policy)
	if err != nil {
		w.reject(err)
		return
	}
	if err := w.holder.Replace(compiled); err != nil {
		w.log.Error("PolicyWatcher", "Failed to swap routing policy", map[string]interface{}{"error": err.Error()})
		return
	}
	w.log.Info("PolicyWatcher", "Routing policy reloaded", map[string]interface{}{
		"path":       w.path,
		"gate_rules": compiled.Gate.Rules(),
	})
}

func (w *PolicyWatcher) reject(cause error) {
	w.log.Error("PolicyWatcher", "Rejected routing policy update", map[string]interface{}{
		"path":  w.path,
		"error": cause.Error(),
	})
	if w.onReject != nil {
		w.onReject(w.path, cause)
	}
}

// Close stops watching. Safe to call once.
func (w *PolicyWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
