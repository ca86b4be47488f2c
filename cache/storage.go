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
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bundlecore.dev/bundlecore/internal/bundleerr"
	"bundlecore.dev/bundlecore/internal/logging"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// InvalidReason classifies why a cache load was rejected, so callers can
// log a useful message and fall back to a cold build instead of merely
// failing.
type InvalidReason int

const (
	InvalidNone InvalidReason = iota
	InvalidVersionMismatch
	InvalidMissingScope
	InvalidCorrupt
)

// InvalidDetail explains an invalid-cache decision in detail, the shape
// spec.md §4.4/§6 calls "InvalidDetail" for the persisted-state layout.
type InvalidDetail struct {
	Reason  InvalidReason
	Message string
}

func (d *InvalidDetail) Error() string { return d.Message }

// scopeMeta is the sidecar persisted once per scope directory
// (<cache_root>/<version>/<scope>/scope_meta.json), plain encoding/json per
// SPEC_FULL.md §7 ("yaml.v3-free").
type scopeMeta struct {
	Version   string    `json:"version"`
	Scope     string    `json:"scope"`
	CreatedAt time.Time `json:"createdAt"`
	PackID    string    `json:"packId"`
}

// Storage is a pack-based key-value store realized on top of badger: each
// scope gets its own badger directory under <root>/<version>/<scope>, and a
// two-phase Stage/Commit protocol (grounded on spec.md §4.4's "two-lock
// atomic commit protocol") wraps badger's transaction so the rest of the
// codebase is never aware it is backed by badger specifically — swapping
// the engine later only touches this file.
type Storage struct {
	root    string
	version string

	mu     sync.Mutex
	scopes map[string]*scopeHandle
}

type scopeHandle struct {
	db       *badger.DB
	meta     scopeMeta
	staging  map[string][]byte
	stageMu  sync.Mutex
}

// Open returns a Storage rooted at root for the given cache-format version;
// scopes are opened lazily on first use.
func Open(root, version string) *Storage {
	return &Storage{root: root, version: version, scopes: make(map[string]*scopeHandle)}
}

// scopeDir returns <root>/<version>/<scope>.
func (s *Storage) scopeDir(scope string) string {
	return filepath.Join(s.root, s.version, scope)
}

// scopeFor opens (or returns the already-open) badger DB for scope,
// validating scope_meta.json against the current version and returning an
// *InvalidDetail if it doesn't match.
func (s *Storage) scopeFor(scope string) (*scopeHandle, *InvalidDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.scopes[scope]; ok {
		return h, nil
	}

	dir := s.scopeDir(scope)
	metaPath := filepath.Join(dir, "scope_meta.json")

	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, &InvalidDetail{Reason: InvalidCorrupt, Message: fmt.Sprintf("%v: open scope %q: %v", bundleerr.ErrStorage, scope, err)}
	}

	meta, readErr := readScopeMeta(metaPath)
	if readErr != nil {
		meta = scopeMeta{Version: s.version, Scope: scope, CreatedAt: time.Time{}, PackID: uuid.NewString()}
		if werr := writeScopeMeta(metaPath, meta); werr != nil {
			logging.Warning("cache: failed writing scope metadata for %q: %v", scope, werr)
		}
	} else if meta.Version != s.version {
		db.Close()
		return nil, &InvalidDetail{Reason: InvalidVersionMismatch,
			Message: fmt.Sprintf("cache scope %q was written by version %q, current is %q", scope, meta.Version, s.version)}
	}

	h := &scopeHandle{db: db, meta: meta, staging: make(map[string][]byte)}
	s.scopes[scope] = h
	return h, nil
}

func readScopeMeta(path string) (scopeMeta, error) {
	data, err := readFileCompat(path)
	if err != nil {
		return scopeMeta{}, err
	}
	var m scopeMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return scopeMeta{}, err
	}
	return m, nil
}

func writeScopeMeta(path string, m scopeMeta) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return writeFileCompat(path, data)
}

// Get reads key from scope, returning an InvalidDetail (not a hard error)
// when the scope itself failed validation so callers can fall back to a
// cold build for that scope only.
func (s *Storage) Get(scope, key string) ([]byte, bool, *InvalidDetail) {
	h, invalid := s.scopeFor(scope)
	if invalid != nil {
		return nil, false, invalid
	}
	var out []byte
	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, &InvalidDetail{Reason: InvalidCorrupt, Message: err.Error()}
	}
	return out, out != nil, nil
}

// Stage buffers a write without committing it to badger, the first half of
// spec.md's two-phase pack commit protocol: a build can stage every module
// it produced and only Commit once the whole build succeeds, so a
// mid-build failure never leaves a half-written cache scope.
func (s *Storage) Stage(scope, key string, value []byte) *InvalidDetail {
	h, invalid := s.scopeFor(scope)
	if invalid != nil {
		return invalid
	}
	h.stageMu.Lock()
	defer h.stageMu.Unlock()
	h.staging[key] = value
	return nil
}

// Commit flushes every staged write for scope into badger atomically (a
// single badger transaction) and clears the staging buffer.
func (s *Storage) Commit(scope string) *InvalidDetail {
	h, invalid := s.scopeFor(scope)
	if invalid != nil {
		return invalid
	}
	h.stageMu.Lock()
	defer h.stageMu.Unlock()

	err := h.db.Update(func(txn *badger.Txn) error {
		for k, v := range h.staging {
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &InvalidDetail{Reason: InvalidCorrupt, Message: fmt.Sprintf("%v: %v", bundleerr.ErrStorage, err)}
	}
	h.staging = make(map[string][]byte)
	return nil
}

// Discard drops staged writes without committing them, used when an
// incremental build is abandoned partway through (e.g. cancelled by a
// newer file-change event during a watch session).
func (s *Storage) Discard(scope string) {
	s.mu.Lock()
	h, ok := s.scopes[scope]
	s.mu.Unlock()
	if !ok {
		return
	}
	h.stageMu.Lock()
	h.staging = make(map[string][]byte)
	h.stageMu.Unlock()
}

// GC expires every scope whose scope_meta.json version no longer matches
// the current Storage version, per spec.md §4.4 "Expiration" and the
// `bundlecore cache gc` CLI command. It closes and deletes both scopes
// already opened in this process and stale scope directories on disk that
// were never touched this run.
func (s *Storage) GC() ([]string, error) {
	s.mu.Lock()
	var removed []string
	for scope, h := range s.scopes {
		if h.meta.Version != s.version {
			h.db.Close()
			delete(s.scopes, scope)
			removed = append(removed, scope)
			if err := os.RemoveAll(s.scopeDir(scope)); err != nil {
				logging.Warning("cache: gc failed removing %q: %v", scope, err)
			}
		}
	}
	s.mu.Unlock()

	alreadyRemoved := make(map[string]bool, len(removed))
	for _, scope := range removed {
		alreadyRemoved[scope] = true
	}

	infos, err := s.Inspect()
	if err != nil {
		return removed, err
	}
	for _, info := range infos {
		if !info.Stale || alreadyRemoved[info.Scope] {
			continue
		}
		if err := os.RemoveAll(s.scopeDir(info.Scope)); err != nil {
			logging.Warning("cache: gc failed removing %q: %v", info.Scope, err)
			continue
		}
		removed = append(removed, info.Scope)
	}
	return removed, nil
}

// ScopeInfo summarizes one on-disk scope directory for `bundlecore cache
// inspect`, read directly off scope_meta.json without opening the scope's
// badger DB (opening every scope just to list them would hold every pack's
// file lock at once).
type ScopeInfo struct {
	Scope     string
	Version   string
	PackID    string
	CreatedAt time.Time
	Stale     bool
}

// Inspect lists every scope directory under <root>/<version>, regardless of
// whether it has been opened in this process, for read-only CLI reporting.
func (s *Storage) Inspect() ([]ScopeInfo, error) {
	dir := filepath.Join(s.root, s.version)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%v: inspect %q: %w", bundleerr.ErrStorage, dir, err)
	}

	infos := make([]ScopeInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := readScopeMeta(filepath.Join(dir, e.Name(), "scope_meta.json"))
		if err != nil {
			infos = append(infos, ScopeInfo{Scope: e.Name(), Stale: true})
			continue
		}
		infos = append(infos, ScopeInfo{
			Scope:     meta.Scope,
			Version:   meta.Version,
			PackID:    meta.PackID,
			CreatedAt: meta.CreatedAt,
			Stale:     meta.Version != s.version,
		})
	}
	return infos, nil
}

// Close releases every open scope's badger handle.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, h := range s.scopes {
		if err := h.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
