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
	"context"
	"fmt"
	"path"
	"runtime"

	"bundlecore.dev/bundlecore/cache"
	"bundlecore.dev/bundlecore/internal/bundleerr"
	"bundlecore.dev/bundlecore/internal/logging"
	"golang.org/x/sync/errgroup"
)

// UpdateParam is a tagged union of the ways a Builder run can be asked to
// update a Graph, matching spec.md §4.1's UpdateParams list and the
// teacher's capability-interface style (a sealed set of concrete types
// satisfying one marker method, switched on by the coordinator rather than
// type-asserted ad hoc at call sites).
type UpdateParam interface {
	isUpdateParam()
}

type BuildEntryParam struct {
	Name    string
	Request string
	Runtime string
}

type BuildEntryAndCleanParam struct {
	Name    string
	Request string
	Runtime string
}

type CheckNeedBuildParam struct{}

type ModifiedFilesParam struct {
	Files []string
}

type RemovedFilesParam struct {
	Files []string
}

type ForceBuildDepsParam struct {
	Dependencies []DependencyID
}

type ForceBuildModulesParam struct {
	Modules []ModuleID
}

func (BuildEntryParam) isUpdateParam()         {}
func (BuildEntryAndCleanParam) isUpdateParam() {}
func (CheckNeedBuildParam) isUpdateParam()     {}
func (ModifiedFilesParam) isUpdateParam()      {}
func (RemovedFilesParam) isUpdateParam()       {}
func (ForceBuildDepsParam) isUpdateParam()     {}
func (ForceBuildModulesParam) isUpdateParam()  {}

// task is the unit of work a worker goroutine pulls off the queue: a
// dependency that needs resolving, factorizing, and (if new) building and
// having its own dependencies discovered.
type task struct {
	dep            Dependency
	originModuleID ModuleID
	context        string
}

// RevokedConnection records one connection an incremental rebuild retracted
// from a module that is about to be re-resolved, so a failed Run can put the
// Graph back the way it found it.
type RevokedConnection struct {
	DependencyID   DependencyID
	OriginModuleID ModuleID
}

// coordinatorMsg is what a worker sends back to the single coordinator
// goroutine that owns graph mutation, mirroring spec.md §9's "workers emit
// a message to the coordinator" design and the teacher's
// mutex-guarded-aggregation pattern in ModuleBatchProcessor, generalized
// from merging maps to merging graph connections.
type coordinatorMsg struct {
	dep             Dependency
	originModuleID  ModuleID
	module          Module
	newDependencies []Dependency
	newBlocks       []BlockAssignment
	err             *bundleerr.Diagnostic
}

// Builder runs the Factorize/Add/Build/ProcessDependencies/ProcessBlocks
// pipeline described in spec.md §4.1 on a bounded worker pool, grounded on
// the teacher's ModuleBatchProcessor channel/waitgroup pattern
// (generate/parallel.go) and generalized from "parse one manifest module"
// to "factorize and build one graph module".
type Builder struct {
	Graph    *Graph
	Resolver Resolver
	Factory  ModuleFactory
	FS       ReadableFileSystem

	// Concurrency bounds the worker pool; zero means runtime.NumCPU().
	Concurrency int

	diagnostics []*bundleerr.Diagnostic

	// revocations logs connections retracted by the current incremental
	// Run, keyed by the module they were pointing at, so a Run that fails
	// partway through can restore them (spec.md §4.4's rollback guarantee).
	revocations        *cache.RollbackMap[ModuleID, []RevokedConnection]
	pendingRevocations []ModuleID
}

// NewBuilder constructs a Builder over an existing (possibly freshly
// created) Graph.
func NewBuilder(g *Graph, resolver Resolver, factory ModuleFactory, fs ReadableFileSystem) *Builder {
	return &Builder{
		Graph:       g,
		Resolver:    resolver,
		Factory:     factory,
		FS:          fs,
		revocations: cache.NewRollbackMap[ModuleID, []RevokedConnection](),
	}
}

// Diagnostics returns the diagnostics accumulated by the most recent Run.
func (b *Builder) Diagnostics() []*bundleerr.Diagnostic {
	out := make([]*bundleerr.Diagnostic, len(b.diagnostics))
	copy(out, b.diagnostics)
	return out
}

// Run applies one UpdateParam to the Graph, running factorize/build/add for
// every dependency it implies to a fixed point (no more pending tasks). Any
// connections an incremental seed revoked are restored if the run fails
// before reaching the fixed point, so a failed update never leaves the graph
// half-revoked.
func (b *Builder) Run(ctx context.Context, param UpdateParam) error {
	b.diagnostics = nil
	b.revocations.Checkpoint()
	b.pendingRevocations = nil

	initial, err := b.seedTasks(ctx, param)
	if err != nil {
		b.restoreRevocations()
		return err
	}
	if len(initial) == 0 {
		b.revocations.Commit()
		return nil
	}
	if err := b.drain(ctx, initial); err != nil {
		b.restoreRevocations()
		return err
	}
	b.revocations.Commit()
	return nil
}

// restoreRevocations re-adds every connection revoked by the run currently
// being abandoned, then rolls back the revocation log itself.
func (b *Builder) restoreRevocations() {
	for _, id := range b.pendingRevocations {
		record, ok := b.revocations.Get(id)
		if !ok {
			continue
		}
		for _, rc := range record {
			b.Graph.AddConnection(rc.DependencyID, rc.OriginModuleID, id)
		}
	}
	b.revocations.Reset()
	b.pendingRevocations = nil
}

// seedTasks turns an UpdateParam into the initial set of tasks to enqueue.
func (b *Builder) seedTasks(ctx context.Context, param UpdateParam) ([]task, error) {
	switch p := param.(type) {
	case BuildEntryParam:
		return b.seedEntry(p.Name, p.Request, p.Runtime)
	case BuildEntryAndCleanParam:
		b.pruneUnreachable()
		return b.seedEntry(p.Name, p.Request, p.Runtime)
	case ModifiedFilesParam:
		return b.seedModifiedFiles(p.Files), nil
	case RemovedFilesParam:
		b.removeFiles(p.Files)
		return nil, nil
	case ForceBuildDepsParam:
		return b.seedForceDeps(p.Dependencies), nil
	case ForceBuildModulesParam:
		return b.seedForceModules(p.Modules), nil
	case CheckNeedBuildParam:
		return nil, nil
	default:
		return nil, bundleerr.Invariant("unknown UpdateParam %T", param)
	}
}

func (b *Builder) seedEntry(name, request, runtime string) ([]task, error) {
	entry := b.Graph.AddEntry(name, runtime)
	dep := &ESMDependency{baseDependency: baseDependency{request: request}}
	id := b.Graph.AddDependency(dep)
	entry.Dependencies = append(entry.Dependencies, id)
	return []task{{dep: dep, context: "."}}, nil
}

// seedModifiedFiles finds modules whose resource matches a changed file and
// revokes them: their incoming connections are retracted and the
// dependencies that resolved those connections are re-queued as ForceBuild
// tasks, so the module gets re-factorized from the same request(s) that
// reached it originally rather than from its own (possibly stale) outgoing
// edges. No snapshot comparison happens on this path: compiler.Update passes
// the file list straight to Run, and every module whose resource is listed
// is revoked.
func (b *Builder) seedModifiedFiles(files []string) []task {
	changed := make(map[string]bool, len(files))
	for _, f := range files {
		changed[f] = true
	}
	var tasks []task
	for _, id := range b.Graph.AllModuleIDs() {
		m, ok := b.Graph.Module(id)
		if !ok {
			continue
		}
		if nm, ok := m.(*NormalModule); ok && changed[nm.Resource] {
			tasks = append(tasks, b.revokeModule(id)...)
		}
	}
	return tasks
}

// revokeModule retracts every incoming connection pointing at id and returns
// one task per retracted connection's dependency, re-rooted at that
// connection's origin module so factorizeAndBuild resolves it exactly as it
// did the first time. The retraction is recorded in the revocation log keyed
// by id so a failed Run can restore the connections it is about to remove.
func (b *Builder) revokeModule(id ModuleID) []task {
	connIDs := b.Graph.IncomingConnections(id)
	if len(connIDs) == 0 {
		return nil
	}

	record := make([]RevokedConnection, 0, len(connIDs))
	tasks := make([]task, 0, len(connIDs))
	for _, connID := range connIDs {
		conn, ok := b.Graph.Connection(connID)
		if !ok {
			continue
		}
		dep, ok := b.Graph.Dependency(conn.DependencyID)
		if !ok {
			continue
		}
		record = append(record, RevokedConnection{DependencyID: conn.DependencyID, OriginModuleID: conn.OriginModuleID})

		ctx := "."
		if origin, ok := b.Graph.Module(conn.OriginModuleID); ok {
			if onm, ok := origin.(*NormalModule); ok {
				ctx = path.Dir(onm.Resource)
			}
		}
		tasks = append(tasks, task{dep: dep, originModuleID: conn.OriginModuleID, context: ctx})
		b.Graph.RemoveConnection(connID)
	}

	b.revocations.Set(id, record)
	b.pendingRevocations = append(b.pendingRevocations, id)
	return tasks
}

func (b *Builder) seedForceDeps(ids []DependencyID) []task {
	var tasks []task
	for _, id := range ids {
		if dep, ok := b.Graph.Dependency(id); ok {
			tasks = append(tasks, task{dep: dep})
		}
	}
	return tasks
}

func (b *Builder) seedForceModules(ids []ModuleID) []task {
	var tasks []task
	for _, mid := range ids {
		m, ok := b.Graph.Module(mid)
		if !ok {
			continue
		}
		for _, depID := range m.Dependencies() {
			if dep, ok := b.Graph.Dependency(depID); ok {
				tasks = append(tasks, task{dep: dep, originModuleID: mid})
			}
		}
	}
	return tasks
}

func (b *Builder) removeFiles(files []string) {
	removed := make(map[string]bool, len(files))
	for _, f := range files {
		removed[f] = true
	}
	for _, id := range b.Graph.AllModuleIDs() {
		m, ok := b.Graph.Module(id)
		if !ok {
			continue
		}
		if nm, ok := m.(*NormalModule); ok && removed[nm.Resource] {
			b.Graph.RemoveModule(id)
		}
	}
}

// pruneUnreachable removes modules with no incoming connections and no
// entry referencing them, for BuildEntryAndClean's "and clean" half.
func (b *Builder) pruneUnreachable() {
	for _, id := range b.Graph.AllModuleIDs() {
		if len(b.Graph.IncomingConnections(id)) == 0 {
			if _, hasIssuer := b.Graph.Issuer(id); !hasIssuer {
				b.Graph.RemoveModule(id)
			}
		}
	}
}

// drain runs worker goroutines over a growing task queue until it empties,
// with all graph mutation funneled through this single coordinator
// goroutine (the calling goroutine). Workers never touch *Graph directly.
func (b *Builder) drain(ctx context.Context, initial []task) error {
	concurrency := b.Concurrency
	if concurrency <= 0 {
		concurrency = max(1, runtime.NumCPU())
	}

	pending := initial
	for len(pending) > 0 {
		results := make(chan coordinatorMsg, len(pending))
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(concurrency)

		for _, t := range pending {
			t := t
			eg.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				msg := b.factorizeAndBuild(gctx, t)
				results <- msg
				return nil
			})
		}

		logging.Debug("graph builder: dispatching %d tasks across %d workers", len(pending), concurrency)

		go func() {
			eg.Wait()
			close(results)
		}()

		var next []task
		for msg := range results {
			if msg.err != nil {
				b.diagnostics = append(b.diagnostics, msg.err)
				continue
			}
			next = append(next, b.applyCoordinatorMsg(msg)...)
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		pending = next
	}
	return nil
}

// factorizeAndBuild runs on a worker goroutine: resolve, factorize, and (for
// normal modules) discover further dependencies, with no access to *Graph
// beyond read-only lookups of ids already assigned before this task was
// enqueued.
func (b *Builder) factorizeAndBuild(ctx context.Context, t task) coordinatorMsg {
	resolved, err := b.Resolver.Resolve(ctx, t.context, t.dep.Request())
	if err != nil {
		return coordinatorMsg{dep: t.dep, originModuleID: t.originModuleID,
			err: &bundleerr.Diagnostic{Severity: bundleerr.SeverityError, File: t.dep.Request(),
				Err: fmt.Errorf("%w: %v", bundleerr.ErrResolve, err)}}
	}

	result, err := b.Factory.Create(ctx, CreateData{
		Dependency:     t.dep,
		OriginModuleID: t.originModuleID,
		Resolved:       resolved,
		Context:        t.context,
	})
	if err != nil {
		return coordinatorMsg{dep: t.dep, originModuleID: t.originModuleID,
			err: &bundleerr.Diagnostic{Severity: bundleerr.SeverityError, File: resolved.Resource,
				Err: fmt.Errorf("%w: %v", bundleerr.ErrFactorize, err)}}
	}

	return coordinatorMsg{
		dep:             t.dep,
		originModuleID:  t.originModuleID,
		module:          result.Module,
		newDependencies: result.NewDependencies,
		newBlocks:       result.NewBlocks,
	}
}

// applyCoordinatorMsg performs the graph mutation for one factorized
// module: add-or-dedup the module, wire the connection, register any
// dependencies/blocks ModuleFactory.Create newly discovered, and return the
// tasks those new dependencies imply. Only ever called from the coordinator
// goroutine (drain's calling goroutine), never concurrently.
func (b *Builder) applyCoordinatorMsg(msg coordinatorMsg) []task {
	module := b.Graph.AddModule(msg.module)
	depID := msg.dep.ID()
	if depID == 0 {
		depID = b.Graph.AddDependency(msg.dep)
	}
	if _, diag := b.Graph.AddConnection(depID, msg.originModuleID, module.ID()); diag != nil {
		b.diagnostics = append(b.diagnostics, diag)
	}

	if len(msg.newDependencies) == 0 {
		return nil
	}

	dirCtx := "."
	if nm, ok := module.(*NormalModule); ok {
		dirCtx = path.Dir(nm.Resource)
	}

	ids := make([]DependencyID, 0, len(msg.newDependencies))
	tasks := make([]task, 0, len(msg.newDependencies))
	for _, d := range msg.newDependencies {
		id := b.Graph.AddDependency(d)
		ids = append(ids, id)
		tasks = append(tasks, task{dep: d, originModuleID: module.ID(), context: dirCtx})
	}
	if nm, ok := module.(*NormalModule); ok {
		nm.SetDependencies(ids...)
		if module == msg.module {
			for i := range nm.Exports {
				idx := nm.Exports[i].ReExportDependencyIndex
				if idx >= 0 && idx < len(ids) {
					nm.Exports[i].ReExportDependencyID = ids[idx]
				}
			}
		}
	}

	blockAppender, _ := module.(interface{ AppendBlock(*AsyncBlock) })
	for _, ba := range msg.newBlocks {
		if ba.DependencyIndex < 0 || ba.DependencyIndex >= len(ids) {
			continue
		}
		repID := ids[ba.DependencyIndex]
		block := &AsyncBlock{Dependencies: []DependencyID{repID}, ChunkName: ba.ChunkName}
		b.Graph.SetBlock(repID, block)
		if blockAppender != nil {
			blockAppender.AppendBlock(block)
		}
	}

	return tasks
}
