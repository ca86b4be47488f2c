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
// Package factory implements graph.ModuleFactory by combining parser's
// tree-sitter extraction with graph's module/dependency construction,
// living in its own package (rather than inside parser or graph) so that
// parser stays free of any graph import and graph stays free of any
// tree-sitter import — the same layering the teacher keeps between its
// queries package and the generate package that drives it.
package factory

import (
	"context"
	"path"
	"strings"
	"sync"

	"bundlecore.dev/bundlecore/graph"
	"bundlecore.dev/bundlecore/parser"
)

// NormalModuleFactory builds graph.NormalModule values from resolved
// resources, parsing each file exactly once (guarded by seen) regardless of
// how many importers reference it, mirroring spec.md §3's module dedup
// requirement and the teacher's resource-keyed caching in its manifest
// generators.
type NormalModuleFactory struct {
	FS      graph.ReadableFileSystem
	Queries *parser.QueryManager

	mu   sync.Mutex
	seen map[string]bool
}

// NewNormalModuleFactory constructs a factory reading through fs and
// parsing with qm's pre-compiled queries.
func NewNormalModuleFactory(fs graph.ReadableFileSystem, qm *parser.QueryManager) *NormalModuleFactory {
	return &NormalModuleFactory{FS: fs, Queries: qm, seen: make(map[string]bool)}
}

// Create implements graph.ModuleFactory. External requests short-circuit to
// an ExternalModule with no further dependencies; everything else is read,
// parsed, and turned into a NormalModule plus the Dependency/AsyncBlock
// values its imports, dynamic imports, and worker constructs imply.
func (f *NormalModuleFactory) Create(ctx context.Context, data graph.CreateData) (*graph.FactorizeResult, error) {
	if data.Resolved.External {
		id := graph.NewModuleID("external", data.Resolved.Resource, "", "", "")
		m := graph.NewExternalModule(id, data.Resolved.Resource, data.Resolved.ExternalOf)
		return &graph.FactorizeResult{Module: m}, nil
	}

	resource := data.Resolved.Resource
	id := graph.NewModuleID("normal", resource, "", "", "")

	source, err := f.FS.ReadFile(ctx, resource)
	if err != nil {
		return nil, err
	}

	lang := languageFor(resource)
	sourceType := sourceTypeFor(resource)

	m := graph.NewNormalModule(id, resource, sourceType)
	m.Source = source

	f.mu.Lock()
	firstTime := !f.seen[resource]
	f.seen[resource] = true
	f.mu.Unlock()

	if !firstTime || lang == "" {
		return &graph.FactorizeResult{Module: m}, nil
	}

	parsed, err := parser.ParseModule(f.Queries, lang, source)
	if err != nil {
		return nil, err
	}

	m.BuildMeta().SideEffectFree = isSideEffectFree(sourceType, parsed)

	var deps []graph.Dependency
	for _, exp := range parsed.Exports {
		decl := graph.ExportDeclaration{
			Name:                    exp.Name,
			Alias:                   exp.Alias,
			ReExportSource:          exp.ReExportSource,
			Initializer:             exp.Initializer,
			StartByte:               exp.StartByte,
			EndByte:                 exp.EndByte,
			ReExportDependencyIndex: -1,
		}
		if exp.ReExportSource != "" {
			deps = append(deps, graph.NewESMDependency(exp.ReExportSource, graph.ESMSpecifier{Name: exp.Name}))
			decl.ReExportDependencyIndex = len(deps) - 1
		}
		m.Exports = append(m.Exports, decl)
	}
	for _, imp := range parsed.Imports {
		specs := make([]graph.ESMSpecifier, len(imp.Specifiers))
		for i, s := range imp.Specifiers {
			specs[i] = graph.ESMSpecifier{Name: s.Name, Local: s.Alias}
		}
		deps = append(deps, graph.NewESMDependency(imp.Source, specs...))
	}
	for _, req := range parsed.Requires {
		deps = append(deps, graph.NewCommonJSDependency(req.Source))
	}

	var blocks []graph.BlockAssignment
	for _, dyn := range parsed.DynamicImports {
		deps = append(deps, graph.NewESMDependency(dyn.Source))
		blocks = append(blocks, graph.BlockAssignment{DependencyIndex: len(deps) - 1, ChunkName: chunkNameFor(dyn.Source)})
	}
	for _, w := range parsed.Workers {
		deps = append(deps, graph.NewWorkerDependency(w.Source))
		blocks = append(blocks, graph.BlockAssignment{DependencyIndex: len(deps) - 1, ChunkName: chunkNameFor(w.Source)})
	}

	return &graph.FactorizeResult{Module: m, NewDependencies: deps, NewBlocks: blocks}, nil
}

func languageFor(resource string) parser.Language {
	switch {
	case strings.HasSuffix(resource, ".tsx"), strings.HasSuffix(resource, ".jsx"):
		return parser.LangTSX
	case strings.HasSuffix(resource, ".ts"), strings.HasSuffix(resource, ".js"), strings.HasSuffix(resource, ".mjs"):
		return parser.LangTypeScript
	case strings.HasSuffix(resource, ".css"):
		return parser.LangCSS
	default:
		return ""
	}
}

// isSideEffectFree applies a conservative, statically-checkable heuristic:
// CSS always has injection side effects; a bare import (no bindings, kept
// only to run the target module), a require() call, or a
// customElements.define() registration are each treated as a module-scope
// side effect. Anything else is assumed pure, matching spec.md's "modules
// whose side-effects flag is false" input to usage propagation.
func isSideEffectFree(sourceType graph.SourceType, parsed *parser.Result) bool {
	if sourceType == graph.SourceTypeCSS {
		return false
	}
	if len(parsed.CustomElements) > 0 || len(parsed.Requires) > 0 {
		return false
	}
	for _, imp := range parsed.Imports {
		if len(imp.Specifiers) == 0 {
			return false
		}
	}
	return true
}

func sourceTypeFor(resource string) graph.SourceType {
	if strings.HasSuffix(resource, ".css") {
		return graph.SourceTypeCSS
	}
	return graph.SourceTypeJavaScript
}

func chunkNameFor(request string) string {
	base := path.Base(request)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
