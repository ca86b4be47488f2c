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
// Package chunk implements the chunk graph builder: grouping modules into
// chunks, splitting them via cache groups, assigning stable ids, and
// fingerprinting each chunk's per-runtime module hash.
package chunk

import "sort"

// RuntimeSpec represents the set of runtimes a chunk/chunk group belongs
// to. Internally it uses one of three representations exactly as spec.md
// §4.3 "Runtime representation" describes: empty (no runtime yet), a single
// name (the common case, kept allocation-free), or a sorted set (once a
// chunk is shared by more than one runtime).
type RuntimeSpec struct {
	single string
	multi  map[string]struct{}
}

// NewRuntimeSpec builds a RuntimeSpec from zero or more runtime names.
func NewRuntimeSpec(names ...string) RuntimeSpec {
	var rs RuntimeSpec
	for _, n := range names {
		rs = rs.Add(n)
	}
	return rs
}

// Add returns a RuntimeSpec with name included, upgrading internal
// representation from empty->single->multi only as needed.
func (rs RuntimeSpec) Add(name string) RuntimeSpec {
	if name == "" {
		return rs
	}
	if rs.multi != nil {
		next := make(map[string]struct{}, len(rs.multi)+1)
		for k := range rs.multi {
			next[k] = struct{}{}
		}
		next[name] = struct{}{}
		return RuntimeSpec{multi: next}
	}
	if rs.single == "" {
		return RuntimeSpec{single: name}
	}
	if rs.single == name {
		return rs
	}
	return RuntimeSpec{multi: map[string]struct{}{rs.single: {}, name: {}}}
}

func (rs RuntimeSpec) Has(name string) bool {
	if rs.multi != nil {
		_, ok := rs.multi[name]
		return ok
	}
	return rs.single == name
}

func (rs RuntimeSpec) Empty() bool {
	return rs.single == "" && len(rs.multi) == 0
}

// Names returns every runtime in sorted order, regardless of which internal
// representation is active.
func (rs RuntimeSpec) Names() []string {
	if rs.multi != nil {
		out := make([]string, 0, len(rs.multi))
		for k := range rs.multi {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}
	if rs.single == "" {
		return nil
	}
	return []string{rs.single}
}

// Key returns a stable string key for use as a map key (sorted, joined by
// "+"), since RuntimeSpec itself is not comparable when multi is non-nil.
func (rs RuntimeSpec) Key() string {
	names := rs.Names()
	out := ""
	for i, n := range names {
		if i > 0 {
			out += "+"
		}
		out += n
	}
	return out
}

// RuntimeSpecMap maps RuntimeSpec keys to values of type T, one value per
// distinct runtime combination. Builder's hashing phase does not use it; it
// stores a single hash string on each Chunk.
type RuntimeSpecMap[T any] struct {
	entries map[string]T
	specs   map[string]RuntimeSpec
}

func NewRuntimeSpecMap[T any]() *RuntimeSpecMap[T] {
	return &RuntimeSpecMap[T]{entries: make(map[string]T), specs: make(map[string]RuntimeSpec)}
}

func (m *RuntimeSpecMap[T]) Set(rs RuntimeSpec, v T) {
	k := rs.Key()
	m.entries[k] = v
	m.specs[k] = rs
}

func (m *RuntimeSpecMap[T]) Get(rs RuntimeSpec) (T, bool) {
	v, ok := m.entries[rs.Key()]
	return v, ok
}

func (m *RuntimeSpecMap[T]) Len() int { return len(m.entries) }
