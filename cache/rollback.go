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
// Package cache implements the persistent cache and rollback engine:
// RollbackMap for in-memory incremental state, Snapshot for filesystem
// invalidation detection, and Storage for on-disk pack-based persistence.
package cache

import "sync"

// op is one mutation recorded in a RollbackMap's log since the last
// checkpoint, replayed in reverse by Reset to undo it.
type op[K comparable, V any] struct {
	key      K
	hadPrev  bool
	prevVal  V
}

// RollbackMap is a generic map with checkpoint/reset/commit semantics: a
// Checkpoint marks a point in time; Reset rewinds every mutation back to
// the most recent checkpoint; Commit discards the log and makes the
// current state permanent. Used by graph.Graph for incremental revocation
// — a speculative build can be rolled back wholesale if it turns out to
// have been based on stale inputs.
type RollbackMap[K comparable, V any] struct {
	mu   sync.Mutex
	data map[K]V
	log  []op[K, V]
	// checkpoints holds the log length at each Checkpoint call, so nested
	// checkpoints can each be reset independently.
	checkpoints []int
}

func NewRollbackMap[K comparable, V any]() *RollbackMap[K, V] {
	return &RollbackMap[K, V]{data: make(map[K]V)}
}

// Get returns the value for key and whether it was present.
func (m *RollbackMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// Set records the previous value (if any) to the log before overwriting,
// so a later Reset can restore it.
func (m *RollbackMap[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, had := m.data[key]
	m.log = append(m.log, op[K, V]{key: key, hadPrev: had, prevVal: prev})
	m.data[key] = value
}

// Delete removes key, recording its previous value for Reset.
func (m *RollbackMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, had := m.data[key]
	if !had {
		return
	}
	m.log = append(m.log, op[K, V]{key: key, hadPrev: true, prevVal: prev})
	delete(m.data, key)
}

// Checkpoint marks the current log position; a paired Reset call rewinds
// exactly the mutations made since this call.
func (m *RollbackMap[K, V]) Checkpoint() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints = append(m.checkpoints, len(m.log))
}

// Reset rewinds every mutation since the most recent Checkpoint, popping
// that checkpoint off the stack. A no-op if there is no open checkpoint.
func (m *RollbackMap[K, V]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.checkpoints) == 0 {
		return
	}
	mark := m.checkpoints[len(m.checkpoints)-1]
	m.checkpoints = m.checkpoints[:len(m.checkpoints)-1]

	for i := len(m.log) - 1; i >= mark; i-- {
		o := m.log[i]
		if o.hadPrev {
			m.data[o.key] = o.prevVal
		} else {
			delete(m.data, o.key)
		}
	}
	m.log = m.log[:mark]
}

// Commit pops the most recent checkpoint so a later Reset no longer stops
// at it. The log is cleared only when no checkpoint remains open; while an
// outer checkpoint is still open, the committed mutations stay in the log
// and that outer checkpoint's Reset still rewinds them.
func (m *RollbackMap[K, V]) Commit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.checkpoints) == 0 {
		m.log = m.log[:0]
		return
	}
	m.checkpoints = m.checkpoints[:len(m.checkpoints)-1]
	if len(m.checkpoints) == 0 {
		m.log = m.log[:0]
	}
}

// Len returns the number of live entries.
func (m *RollbackMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Snapshot returns a shallow copy of the current data, for callers that
// need to iterate without holding the map locked (e.g. a chunk builder
// reading module metadata concurrently with further graph mutation).
func (m *RollbackMap[K, V]) Snapshot() map[K]V {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[K]V, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}
