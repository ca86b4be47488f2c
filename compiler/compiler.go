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
// Package compiler orchestrates one end-to-end build: graph construction,
// export usage analysis, chunk graph assembly, and per-chunk asset codegen,
// grounded on the teacher's GenerateSession (generate/session.go), which
// ties manifest parsing, validation, and serialization into one reusable,
// repeatedly-invocable object for both one-shot and watch-mode use.
package compiler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bundlecore.dev/bundlecore/cache"
	"bundlecore.dev/bundlecore/chunk"
	"bundlecore.dev/bundlecore/exports"
	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/hooks"
	"bundlecore.dev/bundlecore/internal/bundleerr"
	"bundlecore.dev/bundlecore/internal/logging"
	"bundlecore.dev/bundlecore/template"
)

// EntryConfig names one build entry point, the compiler-level equivalent of
// a webpack config's `entry` map.
type EntryConfig struct {
	Name    string
	Request string
	Runtime string
}

// Options configures a Compiler for the lifetime of the process (or watch
// session): the collaborators a Compilation needs but that don't change
// between incremental rebuilds.
type Options struct {
	FS        graph.ReadableFileSystem
	Resolver  graph.Resolver
	Factory   graph.ModuleFactory
	Registry  *template.Registry
	Storage   *cache.Storage
	Hooks     *hooks.Driver
	Entries     []EntryConfig
	CacheGroups []chunk.CacheGroup
	CacheRoot   string
	Version     string
	Scope       string
}

// Compiler owns the long-lived Graph and Builder across incremental
// rebuilds — analogous to the teacher's GenerateSession holding a
// reusable parser/workspace pair so a watch-mode rebuild doesn't pay
// initialization cost every cycle.
type Compiler struct {
	opts    Options
	graph   *graph.Graph
	builder *graph.Builder
}

// New constructs a Compiler with a fresh Graph, ready for an initial full
// build via BuildAll(ctx) or an incremental one via Update(ctx, param).
func New(opts Options) *Compiler {
	if opts.Hooks == nil {
		opts.Hooks = hooks.NewDriver()
	}
	if opts.Registry == nil {
		opts.Registry = template.DefaultRegistry()
	}
	g := graph.NewGraph()
	return &Compiler{
		opts:    opts,
		graph:   g,
		builder: graph.NewBuilder(g, opts.Resolver, opts.Factory, opts.FS),
	}
}

// Graph exposes the compiler's underlying module graph, for callers (the
// watch session, diagnostics reporting) that need direct read access.
func (c *Compiler) Graph() *graph.Graph { return c.graph }

// Result is the outcome of one compilation: emitted assets keyed by output
// filename, plus every diagnostic collected along the way.
type Result struct {
	Assets      map[string]string
	Diagnostics []*bundleerr.Diagnostic
}

// BuildAll seeds every configured entry and runs the full
// graph/exports/chunk/codegen pipeline, the compiler equivalent of the
// teacher's GenerateFullManifest.
func (c *Compiler) BuildAll(ctx context.Context) (*Result, error) {
	for _, e := range c.opts.Entries {
		if err := c.builder.Run(ctx, graph.BuildEntryParam{Name: e.Name, Request: e.Request, Runtime: e.Runtime}); err != nil {
			return nil, fmt.Errorf("build entry %q: %w", e.Name, err)
		}
	}
	return c.seal(ctx)
}

// Update applies an incremental UpdateParam (typically
// graph.ModifiedFilesParam/RemovedFilesParam from the watch session) and
// reruns the downstream exports/chunk/codegen pipeline over the mutated
// graph, the compiler equivalent of the teacher's
// ProcessChangedFilesWithSkip.
func (c *Compiler) Update(ctx context.Context, param graph.UpdateParam) (*Result, error) {
	if err := c.builder.Run(ctx, param); err != nil {
		return nil, fmt.Errorf("apply update: %w", err)
	}
	return c.seal(ctx)
}

// seal runs FinishModules/OptimizeModules/OptimizeTree through
// ProcessAssets, the part of the pipeline shared between a full build and
// an incremental update.
func (c *Compiler) seal(ctx context.Context) (*Result, error) {
	h := c.opts.Hooks

	if err := h.FinishModules.Run(&hooks.CompilationParam{Graph: c.graph}); err != nil {
		return nil, err
	}

	analyzer := exports.NewAnalyzer(c.graph)
	analyzer.Run()

	if err := h.OptimizeModules.Run(&hooks.CompilationParam{Graph: c.graph}); err != nil {
		return nil, err
	}
	if err := h.OptimizeTree.Run(&hooks.CompilationParam{Graph: c.graph}); err != nil {
		return nil, err
	}

	cg := chunk.NewBuilder(c.graph, c.opts.CacheGroups...).Build()

	if err := h.OptimizeChunks.Run(&hooks.CompilationParam{Graph: c.graph, ChunkGraph: cg}); err != nil {
		return nil, err
	}
	if err := h.Seal.Run(&hooks.CompilationParam{Graph: c.graph, ChunkGraph: cg}); err != nil {
		return nil, err
	}

	assets, err := c.renderAssets(cg, analyzer)
	if err != nil {
		return nil, err
	}

	if errs := h.ProcessAssets.RunAll(&hooks.ProcessAssetsParam{Assets: assets}); len(errs) > 0 {
		for _, e := range errs {
			logging.Warning("compiler: process-assets plugin error: %v", e)
		}
	}

	if c.opts.Storage != nil {
		c.persistCache(assets)
	}

	diags := c.builder.Diagnostics()
	bundleerr.Sort(diags)
	return &Result{Assets: assets, Diagnostics: diags}, nil
}

// renderAssets transforms and concatenates each chunk's modules into one
// output source string, delegating the actual JS/TS/CSS transform to
// esbuild via template.TransformModule/TransformCSS and using
// template.ConcatenationScope to wrap each module under a collision-free
// identifier.
// analyzer's fixed-point usage data drives two observable effects on the
// emitted source: renderDependencyTemplates substitutes an inlined literal
// for a specifier instead of a require/destructure, and unused
// statically-declared exports are spliced out of a module's source before
// it's transformed at all.
func (c *Compiler) renderAssets(cg *chunk.Graph, analyzer *exports.Analyzer) (map[string]string, error) {
	assets := make(map[string]string, len(cg.Chunks))

	for _, ch := range cg.Chunks {
		normals := make([]*graph.NormalModule, 0, ch.ModuleCount())
		for _, id := range ch.Modules() {
			m, ok := c.graph.Module(id)
			if !ok {
				continue
			}
			nm, ok := m.(*graph.NormalModule)
			if !ok {
				continue
			}
			normals = append(normals, nm)
		}
		sort.Slice(normals, func(i, j int) bool { return normals[i].Resource < normals[j].Resource })

		scope := template.NewConcatenationScope(c.graph, normals)
		transformed := make(map[graph.ModuleID]string, len(normals))

		for _, nm := range normals {
			code, err := c.transformModule(nm, analyzer)
			if err != nil {
				return nil, fmt.Errorf("transform %s: %w", nm.Resource, err)
			}
			code = c.renderDependencyTemplates(nm, code, analyzer)
			transformed[nm.ID()] = template.PureAnnotation(c.graph, nm.ID()) + code
		}

		assets[outputName(ch)] = scope.Render(transformed)
	}

	return assets, nil
}

func (c *Compiler) transformModule(nm *graph.NormalModule, analyzer *exports.Analyzer) (string, error) {
	source := c.elideUnusedExports(nm, analyzer)

	if strings.HasSuffix(nm.Resource, ".css") {
		res, err := template.TransformCSS(string(source))
		if err != nil {
			return "", err
		}
		return res.Code, nil
	}

	loader := template.LoaderJS
	switch {
	case strings.HasSuffix(nm.Resource, ".ts"):
		loader = template.LoaderTS
	case strings.HasSuffix(nm.Resource, ".tsx"), strings.HasSuffix(nm.Resource, ".jsx"):
		loader = template.LoaderTSX
	}

	res, err := template.TransformModule(string(source), template.TransformOptions{Loader: loader, Target: template.TargetES2020})
	if err != nil {
		return "", err
	}
	return res.Code, nil
}

// elideUnusedExports splices out the source span of every statically-
// declared export proven Unused on every runtime exports.Analyzer visited
// (spec.md §4.2's tree-shaking elision), so the analyzer's usage data has an
// observable effect on emitted output instead of being computed and
// discarded. A statement declaring several names (`export { a, b } from
// "./x"`) is only spliced when every name it declares is unused, since
// dropping it would also drop the still-used name.
func (c *Compiler) elideUnusedExports(nm *graph.NormalModule, analyzer *exports.Analyzer) []byte {
	if analyzer == nil || len(nm.Exports) == 0 {
		return nm.Source
	}

	type span struct{ start, end int }
	bySpan := make(map[span][]graph.ExportDeclaration)
	for _, exp := range nm.Exports {
		if exp.StartByte >= exp.EndByte {
			continue
		}
		s := span{exp.StartByte, exp.EndByte}
		bySpan[s] = append(bySpan[s], exp)
	}
	if len(bySpan) == 0 {
		return nm.Source
	}

	info := analyzer.InfoFor(nm.ID())
	rs := template.NewReplaceSource(nm.Source)
	for s, decls := range bySpan {
		allUnused := true
		for _, d := range decls {
			if !info.Get(d.Alias).AllRuntimesUnused() {
				allUnused = false
				break
			}
		}
		if allUnused {
			rs.Replace(s.start, s.end, "")
		}
	}
	return []byte(rs.Render())
}

// renderDependencyTemplates runs each of nm's dependencies through the
// registered Template for its kind, prepending whatever header content
// (esm-require shims, etc.) the Template inserts at offset 0.
func (c *Compiler) renderDependencyTemplates(nm *graph.NormalModule, code string, analyzer *exports.Analyzer) string {
	if len(nm.Dependencies()) == 0 {
		return code
	}

	source := template.NewReplaceSource([]byte(code))

	for _, depID := range nm.Dependencies() {
		dep, ok := c.graph.Dependency(depID)
		if !ok {
			continue
		}
		tmpl, ok := c.opts.Registry.For(dependencyKind(dep))
		if !ok {
			continue
		}
		ctx := &template.Context{
			RequireIdent: "__require",
			InlinedValue: c.inlinedValueFor(nm.ID(), depID, analyzer),
		}
		tmpl.Render(dep, source, ctx)
	}

	return source.Render()
}

// inlinedValueFor resolves depID (one of originID's dependencies) to its
// target module's ExportsInfo and returns a closure ESMTemplate calls to ask
// whether a given specifier resolved to a compile-time constant. Returns nil
// when analyzer is nil (no usage information available), which ESMTemplate
// treats as "never inlined".
func (c *Compiler) inlinedValueFor(originID graph.ModuleID, depID graph.DependencyID, analyzer *exports.Analyzer) func(*graph.ESMDependency, string) (string, bool) {
	if analyzer == nil {
		return nil
	}
	return func(_ *graph.ESMDependency, name string) (string, bool) {
		conn, ok := c.connectionFor(originID, depID)
		if !ok {
			return "", false
		}
		e := analyzer.InfoFor(conn.ModuleID).Get(name)
		if e.Inlinable == nil {
			return "", false
		}
		return e.Inlinable.Raw, true
	}
}

// connectionFor finds the Connection depID resolved to from originID, by
// scanning originID's outgoing connections — depID alone doesn't carry which
// module it resolved to; that's recorded on the Connection.
func (c *Compiler) connectionFor(originID graph.ModuleID, depID graph.DependencyID) (*graph.Connection, bool) {
	for _, connID := range c.graph.OutgoingConnections(originID) {
		if conn, ok := c.graph.Connection(connID); ok && conn.DependencyID == depID {
			return conn, true
		}
	}
	return nil, false
}

// dependencyKind maps a concrete graph.Dependency to the string key
// template.Registry dispatches on, since Dependency itself carries no kind
// tag (the tagged-union is expressed at the Go type level, not a field).
func dependencyKind(dep graph.Dependency) string {
	switch dep.(type) {
	case *graph.ESMDependency:
		return "esm"
	case *graph.CommonJSDependency:
		return "commonjs"
	case *graph.URLDependency:
		return "url"
	default:
		return ""
	}
}

func outputName(ch *chunk.Chunk) string {
	name := ch.Name
	if name == "" {
		name = string(ch.ID)
	}
	if name == "" {
		name = "chunk"
	}
	if ch.Hash() != "" {
		return fmt.Sprintf("%s.%s.js", name, ch.Hash())
	}
	return name + ".js"
}

// persistCache stages and commits the rendered assets under the
// compiler's configured cache scope, following spec.md §4.4's two-phase
// stage/commit vocabulary so a crash mid-save never leaves a half-written
// pack visible to the next cold load.
func (c *Compiler) persistCache(assets map[string]string) {
	scope := c.opts.Scope
	if scope == "" {
		scope = "default"
	}

	if err := c.opts.Hooks.BeforeCacheLoad.Run(&hooks.CacheParam{Storage: c.opts.Storage, Scope: scope}); err != nil {
		logging.Warning("compiler: before-cache-load hook failed: %v", err)
	}

	for name, content := range assets {
		if detail := c.opts.Storage.Stage(scope, name, []byte(content)); detail != nil {
			logging.Warning("compiler: cache stage failed for %s: %v", name, detail)
			return
		}
	}
	if detail := c.opts.Storage.Commit(scope); detail != nil {
		logging.Warning("compiler: cache commit failed: %v", detail)
		return
	}

	if err := c.opts.Hooks.AfterCacheSave.Run(&hooks.CacheParam{Storage: c.opts.Storage, Scope: scope}); err != nil {
		logging.Warning("compiler: after-cache-save hook failed: %v", err)
	}
}
