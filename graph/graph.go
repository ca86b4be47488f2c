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
package graph

import (
	"fmt"
	"sync"

	"bundlecore.dev/bundlecore/internal/bundleerr"
	"bundlecore.dev/bundlecore/internal/orderedset"
)

// Connection is the resolved pairing of a Dependency to the Module that
// satisfies it, plus the Module that issued the request (nil for entries).
type Connection struct {
	ID               ConnectionID
	DependencyID     DependencyID
	OriginModuleID   ModuleID // zero value for entry dependencies
	ModuleID         ModuleID
}

// moduleGraphModule holds the bookkeeping a Graph keeps about a module that
// the Module interface itself doesn't carry: its connections, issuer,
// traversal order, and async/depth facts. Kept separate from Module so that
// Module implementations stay plain data and all graph-topology state lives
// in one place the rollback log can snapshot.
type moduleGraphModule struct {
	module      Module
	incoming    orderedset.Set[ConnectionID]
	outgoing    orderedset.Set[ConnectionID]
	issuerID    ModuleID
	hasIssuer   bool
	preOrder    int
	postOrder   int
	depth       int
	isAsync     bool
}

// EntryData describes one entry point: its dependencies and the runtime
// name it seeds, per spec.md §3 "Entry lifecycle".
type EntryData struct {
	Name         string
	Dependencies []DependencyID
	Runtime      string
}

// Graph owns every module, dependency, and connection reachable from the
// configured entries, and the mutation methods that keep those three sets
// mutually consistent. All mutation funnels through a single coordinator
// goroutine in Builder; Graph itself holds a mutex only to make read access
// from other goroutines (e.g. exports.Analyzer running concurrently with a
// subsequent incremental build) safe, not to serialize writers.
type Graph struct {
	mu sync.RWMutex

	ids idAllocator

	modules     map[ModuleID]*moduleGraphModule
	connections map[ConnectionID]*Connection
	dependencies map[DependencyID]Dependency
	blocks      map[DependencyID]*AsyncBlock
	entries     map[string]*EntryData

	preOrderCounter  int
	postOrderCounter int

	sharedDescendantCache sync.Map // ModuleID -> bool, see sharedmodule.go
}

// NewGraph returns an empty Graph ready for Builder to populate.
func NewGraph() *Graph {
	return &Graph{
		modules:      make(map[ModuleID]*moduleGraphModule),
		connections:  make(map[ConnectionID]*Connection),
		dependencies: make(map[DependencyID]Dependency),
		blocks:       make(map[DependencyID]*AsyncBlock),
		entries:      make(map[string]*EntryData),
	}
}

// AddEntry registers an entry point. Builder calls this from the
// coordinator goroutine before factorizing the entry's dependencies.
func (g *Graph) AddEntry(name string, runtime string) *EntryData {
	g.mu.Lock()
	defer g.mu.Unlock()
	e := &EntryData{Name: name, Runtime: runtime}
	g.entries[name] = e
	return e
}

func (g *Graph) Entries() map[string]*EntryData {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]*EntryData, len(g.entries))
	for k, v := range g.entries {
		out[k] = v
	}
	return out
}

// AddDependency allocates a DependencyID and registers the dependency. Must
// only be called from the coordinator goroutine.
func (g *Graph) AddDependency(d Dependency) DependencyID {
	id := DependencyID(g.ids.next1())
	setDependencyID(d, id)
	g.mu.Lock()
	g.dependencies[id] = d
	g.mu.Unlock()
	return id
}

// setDependencyID assigns the allocator-issued id back onto the concrete
// dependency's embedded baseDependency.
func setDependencyID(d Dependency, id DependencyID) {
	switch v := d.(type) {
	case *ESMDependency:
		v.id = id
	case *CommonJSDependency:
		v.id = id
	case *URLDependency:
		v.id = id
	case *WorkerDependency:
		v.id = id
	case *ContextDependency:
		v.id = id
	}
}

// AddModule registers a newly factorized module if it is not already
// present (content-addressed by ModuleID), returning the existing module if
// so. This is the dedup point that makes factorizing the same resource
// twice cheap and idempotent.
func (g *Graph) AddModule(m Module) Module {
	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.modules[m.ID()]; ok {
		return existing.module
	}
	g.modules[m.ID()] = &moduleGraphModule{
		module:   m,
		incoming: orderedset.New[ConnectionID](),
		outgoing: orderedset.New[ConnectionID](),
	}
	return m
}

// Module looks up a module by id.
func (g *Graph) Module(id ModuleID) (Module, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mgm, ok := g.modules[id]
	if !ok {
		return nil, false
	}
	return mgm.module, true
}

// AddConnection wires a resolved dependency to its module and issuer,
// maintaining the incoming/outgoing connection sets on both sides and
// invalidating the shared-descendant cache (see sharedmodule.go). Panics
// (in Debug mode) or returns an Invariant diagnostic if depID or moduleID
// are unknown — every connection must reference ids already registered via
// AddDependency/AddModule.
func (g *Graph) AddConnection(depID DependencyID, originModuleID, moduleID ModuleID) (*Connection, *bundleerr.Diagnostic) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.dependencies[depID]; !ok {
		return nil, bundleerr.Invariant("AddConnection: unknown dependency id %d", depID)
	}
	target, ok := g.modules[moduleID]
	if !ok {
		return nil, bundleerr.Invariant("AddConnection: unknown module id %s", moduleID)
	}
	if originModuleID != "" {
		if _, ok := g.modules[originModuleID]; !ok {
			return nil, bundleerr.Invariant("AddConnection: unknown origin module id %s", originModuleID)
		}
	}

	connID := ConnectionID(g.ids.next1())
	conn := &Connection{ID: connID, DependencyID: depID, OriginModuleID: originModuleID, ModuleID: moduleID}
	g.connections[connID] = conn

	target.incoming.Add(connID)
	if !target.hasIssuer && originModuleID != "" {
		target.issuerID = originModuleID
		target.hasIssuer = true
	}
	if originModuleID != "" {
		origin := g.modules[originModuleID]
		origin.outgoing.Add(connID)
	}

	g.invalidateSharedDescendantCacheLocked()
	return conn, nil
}

// RemoveConnection deletes a connection and its bookkeeping; used by
// incremental rebuilds to retract a dependency whose owning module was
// removed or changed.
func (g *Graph) RemoveConnection(connID ConnectionID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	conn, ok := g.connections[connID]
	if !ok {
		return
	}
	delete(g.connections, connID)
	if target, ok := g.modules[conn.ModuleID]; ok {
		target.incoming.Remove(connID)
	}
	if conn.OriginModuleID != "" {
		if origin, ok := g.modules[conn.OriginModuleID]; ok {
			origin.outgoing.Remove(connID)
		}
	}
	g.invalidateSharedDescendantCacheLocked()
}

// RemoveModule deletes a module and every connection touching it. Used for
// incremental rebuilds and for pruning modules that became unreachable
// after the entry set changed.
func (g *Graph) RemoveModule(id ModuleID) {
	g.mu.Lock()
	mgm, ok := g.modules[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	toRemove := append(append([]ConnectionID{}, mgm.incoming.Members()...), mgm.outgoing.Members()...)
	g.mu.Unlock()
	for _, c := range toRemove {
		g.RemoveConnection(c)
	}
	g.mu.Lock()
	delete(g.modules, id)
	g.mu.Unlock()
}

// IncomingConnections returns the ids of connections whose target is m.
func (g *Graph) IncomingConnections(id ModuleID) []ConnectionID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mgm, ok := g.modules[id]
	if !ok {
		return nil
	}
	return mgm.incoming.Members()
}

// OutgoingConnections returns the ids of connections originating at m.
func (g *Graph) OutgoingConnections(id ModuleID) []ConnectionID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mgm, ok := g.modules[id]
	if !ok {
		return nil
	}
	return mgm.outgoing.Members()
}

func (g *Graph) Connection(id ConnectionID) (*Connection, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.connections[id]
	return c, ok
}

func (g *Graph) Dependency(id DependencyID) (Dependency, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.dependencies[id]
	return d, ok
}

// Issuer returns the module that first caused id to be reachable, if any.
func (g *Graph) Issuer(id ModuleID) (ModuleID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mgm, ok := g.modules[id]
	if !ok || !mgm.hasIssuer {
		return "", false
	}
	return mgm.issuerID, true
}

// SetAsync marks whether a module is only ever reached through an async
// boundary, the fixed point spec.md §3 calls "is_async".
func (g *Graph) SetAsync(id ModuleID, async bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if mgm, ok := g.modules[id]; ok {
		mgm.isAsync = async
	}
}

func (g *Graph) IsAsync(id ModuleID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if mgm, ok := g.modules[id]; ok {
		return mgm.isAsync
	}
	return false
}

// AllModuleIDs returns every module id currently in the graph, in a stable
// sorted order so that phases which iterate the whole graph (exports
// analysis, chunk seeding) produce deterministic output across runs.
func (g *Graph) AllModuleIDs() []ModuleID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, string(id))
	}
	set := orderedset.New(ids...)
	out := make([]ModuleID, 0, len(set))
	for _, s := range set.Members() {
		out = append(out, ModuleID(s))
	}
	return out
}

func (g *Graph) invalidateSharedDescendantCacheLocked() {
	g.sharedDescendantCache = sync.Map{}
}

// ModuleCount and ConnectionCount are cheap introspection helpers used by
// metrics collectors and tests.
func (g *Graph) ModuleCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.modules)
}

func (g *Graph) ConnectionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

// SetBlock registers the AsyncBlock a dependency belongs to, keyed by one
// representative dependency id within the block (the first dependency
// listed). Builder.applyCoordinatorMsg calls this while registering a
// factorized module's block assignments.
func (g *Graph) SetBlock(repDep DependencyID, block *AsyncBlock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocks[repDep] = block
}

func (g *Graph) Block(repDep DependencyID) (*AsyncBlock, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.blocks[repDep]
	return b, ok
}

// String implements fmt.Stringer for debug printing in tests.
func (g *Graph) String() string {
	return fmt.Sprintf("Graph{modules=%d connections=%d dependencies=%d}", g.ModuleCount(), g.ConnectionCount(), len(g.dependencies))
}
