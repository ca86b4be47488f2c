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
// Package graph implements the module graph builder: factorizing resource
// requests into modules, wiring dependencies into connections, and tracking
// the incremental state needed to rebuild only what changed.
package graph

import (
	"hash/fnv"
	"strconv"
	"sync/atomic"
)

// ModuleID identifies a module by the stable hash of its (kind, resource,
// loaders, query, fragment) tuple. It is content-addressed rather than
// allocated, so two factorize calls for the same resource always agree on
// identity without a coordinator round-trip.
type ModuleID string

// NewModuleID derives a ModuleID from the pieces of a module request. Uses
// FNV-1a, not a crypto hash: this is an identity key, not a cache
// fingerprint (see cache.ContentHash for that).
func NewModuleID(kind, resource, loaders, query, fragment string) ModuleID {
	h := fnv.New64a()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(resource))
	h.Write([]byte{0})
	h.Write([]byte(loaders))
	h.Write([]byte{0})
	h.Write([]byte(query))
	h.Write([]byte{0})
	h.Write([]byte(fragment))
	return ModuleID(strconv.FormatUint(h.Sum64(), 36))
}

// DependencyID and ConnectionID are allocated per-Graph, not globally:
// spec.md's design notes call out module-scoped/global identity as the one
// place that needs explicit scoping discipline, so each Graph owns its own
// counters rather than sharing package-level atomics.
type DependencyID uint64

type ConnectionID uint64

type idAllocator struct {
	next atomic.Uint64
}

func (a *idAllocator) next1() uint64 {
	return a.next.Add(1)
}
