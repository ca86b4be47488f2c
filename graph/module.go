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

// BuildInfo carries facts discovered while building a module's content:
// its detected file and context dependencies, and whether it is cacheable.
type BuildInfo struct {
	FileDependencies    []string
	ContextDependencies []string
	Cacheable           bool
}

// BuildMeta carries facts about a module's shape that downstream phases
// (exports analysis, chunk splitting, concatenation) need: its ESM-ness,
// side-effect status, and module-federation sharing keys.
//
// SharedKey/ConsumeSharedKey support graph.IsConsumeSharedDescendant: a
// module produced by a provide-shared/consume-shared factory carries its
// sharing key here so descendants can be identified by walking incoming
// connections without re-parsing federation config at every hop.
type BuildMeta struct {
	ESM              bool
	SideEffectFree   bool
	SharedKey        string
	ConsumeSharedKey *string
}

// ExportDeclaration is a module's own statically-parsed export, surfaced by
// a ModuleFactory onto NormalModule.Exports for exports.Analyzer to seed its
// per-module ExportsInfo from, independent of whether anything imports it
// yet. ReExportSource is non-empty for `export { x } from './other'`.
type ExportDeclaration struct {
	Name           string
	Alias          string
	ReExportSource string

	// Initializer is the raw source text of a const-like initializer (e.g.
	// `42` in `export const x = 42`), empty when this export has none worth
	// tracking. exports.Analyzer's post-fixed-point finalize pass checks it
	// with exports.IsInlinable.
	Initializer string

	// StartByte/EndByte bound the enclosing export statement in the
	// module's Source, letting codegen splice the statement out once every
	// name it declares is proven unused. Zero value (both 0) means this
	// record has no elidable span (e.g. a default export).
	StartByte int
	EndByte   int

	// ReExportDependencyIndex is the position within the factorized
	// module's NewDependencies of the ESMDependency that resolves
	// ReExportSource, or -1 when this export isn't a re-export.
	// applyCoordinatorMsg resolves it to ReExportDependencyID once
	// dependency ids are allocated.
	ReExportDependencyIndex int
	ReExportDependencyID    DependencyID
}

// SourceType classifies the kind of source a module contributes to a chunk
// (JavaScript, CSS, asset, ...), used by the chunk builder to decide which
// per-sourcetype render pass a module participates in.
type SourceType string

const (
	SourceTypeJavaScript SourceType = "javascript"
	SourceTypeCSS        SourceType = "css"
	SourceTypeAsset      SourceType = "asset"
)

// ModuleType distinguishes the module variants named in spec.md §3.
type ModuleType string

const (
	ModuleTypeNormal        ModuleType = "normal"
	ModuleTypeExternal      ModuleType = "external"
	ModuleTypeConcatenated  ModuleType = "concatenated"
	ModuleTypeContext       ModuleType = "context"
	ModuleTypeRuntime       ModuleType = "runtime"
	ModuleTypeProvideShared ModuleType = "provide-shared"
	ModuleTypeConsumeShared ModuleType = "consume-shared"
)

// Module is satisfied by every module variant in the graph. Concrete types
// are distinguished by ModuleType() rather than via Go type assertions in
// hot paths, so phases can switch on a stable string instead of depending
// on graph's concrete types directly (hooks.Driver callbacks receive
// Module, never a concrete struct).
type Module interface {
	ID() ModuleID
	Identifier() string
	ModuleType() ModuleType
	SourceTypes() []SourceType
	Size(sourceType SourceType) int
	BuildInfo() *BuildInfo
	BuildMeta() *BuildMeta
	Dependencies() []DependencyID
	Blocks() []*AsyncBlock
}

// baseModule factors out the fields every concrete Module variant shares.
type baseModule struct {
	id           ModuleID
	identifier   string
	sourceTypes  []SourceType
	size         map[SourceType]int
	buildInfo    BuildInfo
	buildMeta    BuildMeta
	dependencies []DependencyID
	blocks       []*AsyncBlock
}

func (m *baseModule) ID() ModuleID                  { return m.id }
func (m *baseModule) Identifier() string            { return m.identifier }
func (m *baseModule) SourceTypes() []SourceType     { return m.sourceTypes }
func (m *baseModule) BuildInfo() *BuildInfo         { return &m.buildInfo }
func (m *baseModule) BuildMeta() *BuildMeta         { return &m.buildMeta }
func (m *baseModule) Dependencies() []DependencyID  { return m.dependencies }
func (m *baseModule) Blocks() []*AsyncBlock         { return m.blocks }
func (m *baseModule) Size(t SourceType) int {
	if v, ok := m.size[t]; ok {
		return v
	}
	return 0
}

// NormalModule is a module backed by a parsed, readable resource: the
// common case (an .js/.ts/.css file read from disk or over HTTP).
type NormalModule struct {
	baseModule
	Resource string
	Loaders  []string
	Source   []byte
	Exports  []ExportDeclaration
}

func (m *NormalModule) ModuleType() ModuleType { return ModuleTypeNormal }

// NewNormalModule constructs a NormalModule directly, bypassing a
// ModuleFactory. Used by tests in other packages (exports, chunk, template)
// that need a populated Graph without standing up a full Builder/Resolver.
func NewNormalModule(id ModuleID, resource string, sourceTypes ...SourceType) *NormalModule {
	if len(sourceTypes) == 0 {
		sourceTypes = []SourceType{SourceTypeJavaScript}
	}
	return &NormalModule{
		baseModule: baseModule{id: id, identifier: resource, sourceTypes: sourceTypes},
		Resource:   resource,
	}
}

// SetDependencies overwrites the module's dependency id list, used by tests
// to wire up a module's parsed dependencies without a parser.
func (m *NormalModule) SetDependencies(deps ...DependencyID) {
	m.dependencies = deps
}

// AppendBlock registers an AsyncBlock discovered for this module (a dynamic
// import, a worker, a context require), used by Builder when it applies a
// factorized module's block assignments and by tests constructing a graph
// by hand.
func (m *baseModule) AppendBlock(b *AsyncBlock) {
	m.blocks = append(m.blocks, b)
}

// ExternalModule represents a request resolved outside the graph (a
// runtime global, a Node builtin, a federation remote) with no own source.
type ExternalModule struct {
	baseModule
	Request    string
	ExternalOf string // externality kind: "global", "commonjs", "module", ...
}

func (m *ExternalModule) ModuleType() ModuleType { return ModuleTypeExternal }

// NewExternalModule constructs an ExternalModule, used by ModuleFactory
// implementations when Resolver reports a request as external.
func NewExternalModule(id ModuleID, request, externalOf string) *ExternalModule {
	return &ExternalModule{
		baseModule: baseModule{id: id, identifier: request},
		Request:    request,
		ExternalOf: externalOf,
	}
}

// ConcatenatedModule groups several NormalModules into one output unit via
// scope hoisting (template.ConcatenationScope performs the actual codegen).
type ConcatenatedModule struct {
	baseModule
	Modules []ModuleID // root first, then concatenated modules in order
}

func (m *ConcatenatedModule) ModuleType() ModuleType { return ModuleTypeConcatenated }

// ContextModule represents a directory-glob require (`require.context`-style
// or a dynamic `import(`./locales/${lang}.js`)`), lazily fanning out to the
// matched resources.
type ContextModule struct {
	baseModule
	Directory string
	RegExp    string
	Matches   []ModuleID
}

func (m *ContextModule) ModuleType() ModuleType { return ModuleTypeContext }

// RuntimeModule is synthesized by the compiler itself (module registries,
// chunk-loading glue) rather than factorized from a user request.
type RuntimeModule struct {
	baseModule
	RuntimeRequirements []string
	Generate            func() []byte
}

func (m *RuntimeModule) ModuleType() ModuleType { return ModuleTypeRuntime }

// SharedModule backs both provide-shared and consume-shared module
// federation variants; Provide distinguishes the two.
type SharedModule struct {
	baseModule
	SharedKey string
	Provide   bool // true: provide-shared, false: consume-shared
	Fallback  ModuleID
}

func (m *SharedModule) ModuleType() ModuleType {
	if m.Provide {
		return ModuleTypeProvideShared
	}
	return ModuleTypeConsumeShared
}

// NewSharedModule constructs a SharedModule directly from a sharing key
// rather than a parsed resource; tests use it to build provide-shared/
// consume-shared modules by hand.
func NewSharedModule(id ModuleID, sharedKey string, provide bool) *SharedModule {
	return &SharedModule{
		baseModule: baseModule{id: id, identifier: sharedKey},
		SharedKey:  sharedKey,
		Provide:    provide,
	}
}
