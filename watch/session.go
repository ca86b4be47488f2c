/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package watch implements incremental rebuild-on-change, grounded on the
// teacher's generate.WatchSession: an fsnotify watcher feeds a debounced
// change set into a rebuild, guarding against reacting to its own writes.
package watch

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/internal/logging"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// debounceDelay matches the teacher's hard-coded 100ms window: long enough
// to coalesce a save-chain from an editor or formatter, short enough that a
// rebuild still feels immediate.
const debounceDelay = 100 * time.Millisecond

// RebuildFunc runs one incremental rebuild for the given UpdateParam. An
// error it returns is logged as a warning and does not end the watch loop.
type RebuildFunc func(ctx context.Context, param graph.UpdateParam) error

// Session owns the long-lived watch-mode state: the directories fsnotify
// watches, the globs that scope which changes matter, and the debounce
// timer that batches rapid-fire events into one rebuild.
type Session struct {
	root    string
	globs   []string
	rebuild RebuildFunc

	mu              sync.Mutex
	debounceTimer   *time.Timer
	pendingChanged  map[string]bool
	pendingRemoved  map[string]bool
	cancelCurrent   context.CancelFunc
	lastWrittenHash map[string][32]byte
	lastWrittenTime map[string]time.Time
}

// NewSession constructs a Session rooted at root, watching files matching
// globs (doublestar patterns relative to root), invoking rebuild whenever a
// debounced batch of changes is ready.
func NewSession(root string, globs []string, rebuild RebuildFunc) *Session {
	return &Session{
		root:            root,
		globs:           globs,
		rebuild:         rebuild,
		pendingChanged:  make(map[string]bool),
		pendingRemoved:  make(map[string]bool),
		lastWrittenHash: make(map[string][32]byte),
		lastWrittenTime: make(map[string]time.Time),
	}
}

// NoteWrite records a file this process just wrote, so the subsequent
// fsnotify event for it is recognized as our own write and ignored —
// prevents the infinite rebuild loop a naive watcher would fall into when
// it writes output back under a watched directory.
func (s *Session) NoteWrite(path string, content []byte) {
	clean := filepath.Clean(path)
	hash := sha256.Sum256(content)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWrittenHash[clean] = hash
	if info, err := os.Stat(path); err == nil {
		s.lastWrittenTime[clean] = info.ModTime()
	} else {
		s.lastWrittenTime[clean] = time.Now()
	}
}

// Run starts the fsnotify watcher and blocks until ctx is cancelled or the
// watcher's channels close.
func (s *Session) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := s.addWatchedDirs(watcher); err != nil {
		return err
	}

	logging.Info("watch: watching %s for changes", s.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warning("watch: fsnotify error: %v", err)
		}
	}
}

// addWatchedDirs resolves every glob to its matching files' directories and
// registers each with watcher, matching the teacher's "watch every
// directory a glob could touch" approach rather than one global recursive
// watch (cheaper, and fsnotify is non-recursive on Linux by default anyway).
func (s *Session) addWatchedDirs(watcher *fsnotify.Watcher) error {
	dirs := map[string]bool{s.root: true}

	for _, g := range s.globs {
		matches, err := doublestar.FilepathGlob(filepath.Join(s.root, g))
		if err != nil {
			continue
		}
		for _, m := range matches {
			dirs[filepath.Dir(m)] = true
		}
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logging.Warning("watch: failed to watch %s: %v", dir, err)
		}
	}
	return nil
}

func (s *Session) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&fsnotify.Write == 0 && event.Op&fsnotify.Create == 0 &&
		event.Op&fsnotify.Remove == 0 && event.Op&fsnotify.Rename == 0 {
		return
	}

	if s.isOurWrite(event.Name) {
		logging.Debug("watch: ignoring our own write to %s", event.Name)
		return
	}

	if !s.matchesGlobs(event.Name) {
		return
	}

	s.mu.Lock()
	if event.Op&fsnotify.Remove != 0 || event.Op&fsnotify.Rename != 0 {
		s.pendingRemoved[event.Name] = true
		delete(s.pendingChanged, event.Name)
	} else {
		s.pendingChanged[event.Name] = true
	}

	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(debounceDelay, func() {
		s.processChanges(ctx)
	})
	s.mu.Unlock()
}

// isOurWrite mirrors the teacher's stat-then-hash fast path: a modtime
// match against our last recorded write is cheap and usually conclusive; a
// full hash comparison only runs when the stat is ambiguous.
func (s *Session) isOurWrite(path string) bool {
	clean := filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	s.mu.Lock()
	lastTime, hasTime := s.lastWrittenTime[clean]
	lastHash, hasHash := s.lastWrittenHash[clean]
	s.mu.Unlock()

	if hasTime {
		diff := info.ModTime().Sub(lastTime)
		if diff >= 0 && diff < time.Second {
			return true
		}
	}

	if !hasHash {
		return false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return sha256.Sum256(content) == lastHash
}

func (s *Session) matchesGlobs(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}
	for _, g := range s.globs {
		if ok, _ := doublestar.PathMatch(g, rel); ok {
			return true
		}
	}
	return false
}

func (s *Session) processChanges(ctx context.Context) {
	s.mu.Lock()
	if s.cancelCurrent != nil {
		s.cancelCurrent()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelCurrent = cancel

	changed := make([]string, 0, len(s.pendingChanged))
	for f := range s.pendingChanged {
		changed = append(changed, f)
	}
	removed := make([]string, 0, len(s.pendingRemoved))
	for f := range s.pendingRemoved {
		removed = append(removed, f)
	}
	s.pendingChanged = make(map[string]bool)
	s.pendingRemoved = make(map[string]bool)
	s.mu.Unlock()

	start := time.Now()

	if len(removed) > 0 {
		if err := s.rebuild(runCtx, graph.RemovedFilesParam{Files: removed}); err != nil {
			logging.Warning("watch: rebuild after removal failed: %v", err)
			return
		}
	}
	if len(changed) > 0 {
		if err := s.rebuild(runCtx, graph.ModifiedFilesParam{Files: changed}); err != nil {
			logging.Warning("watch: rebuild failed: %v", err)
			return
		}
	}

	logging.Success("watch: rebuilt in %s", time.Since(start))
}
