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
package hooks

import (
	"bundlecore.dev/bundlecore/cache"
	"bundlecore.dev/bundlecore/chunk"
	"bundlecore.dev/bundlecore/graph"
)

// ResolveParam carries a BeforeResolve/AfterResolve hook's context: the
// requesting module's directory and the raw specifier it asked for.
type ResolveParam struct {
	Context string
	Request string
	Result  *graph.ResolveResult
}

// FactorizeParam carries the NormalModuleFactory's Factorize/Module hooks:
// the resolved data a module is about to be (or was just) built from.
type FactorizeParam struct {
	Resource string
	Result   *graph.FactorizeResult
}

// ParserParam carries the Parser hook: a freshly constructed module, for
// plugins that want to inspect or annotate it before traversal continues.
type ParserParam struct {
	Module graph.Module
}

// CompilationParam carries the broad Compilation-scoped lifecycle hooks
// (FinishModules, OptimizeModules, OptimizeTree, OptimizeChunks, Seal,
// RuntimeRequirementInTree) — whichever of Graph/ChunkGraph is relevant to
// the stage is populated, the other left nil.
type CompilationParam struct {
	Graph      *graph.Graph
	ChunkGraph *chunk.Graph
}

// ProcessAssetsParam carries the ProcessAssets hook: the emitted chunk
// assets, keyed by output filename, mutable in place by asset-processing
// plugins (banner injection, minification passes, manifest writers).
type ProcessAssetsParam struct {
	Assets map[string]string
}

// ChunkHashParam carries the ChunkHash hook: a single chunk's content hash
// as computed so far, which a plugin may fold additional state into.
type ChunkHashParam struct {
	Chunk *chunk.Chunk
	Hash  string
}

// CacheParam carries the cache lifecycle hooks. compiler.persistCache fires
// both while saving rendered assets (BeforeCacheLoad before staging,
// AfterCacheSave after a successful commit); an error from either is logged
// as a warning and does not stop the save.
type CacheParam struct {
	Storage *cache.Storage
	Scope   string
}

// Driver owns the full named, ordered, typed-callback hook set described in
// the external interfaces, one Hook[P] per dispatch point, mirroring how the
// teacher's lsp package keeps one handler slot per JSON-RPC method name —
// generalized here to "one ordered plugin chain per lifecycle event."
type Driver struct {
	// NormalModuleFactory hooks.
	BeforeResolve *Hook[*ResolveParam]
	Resolve       *Hook[*ResolveParam]
	Factorize     *Hook[*FactorizeParam]
	Module        *Hook[*FactorizeParam]
	Parser        *Hook[*ParserParam]

	// ContextModuleFactory hooks (glob-based entry/dependency expansion).
	ContextBeforeResolve *Hook[*ResolveParam]
	ContextAfterResolve  *Hook[*ResolveParam]

	// Compilation hooks.
	FinishModules            *Hook[*CompilationParam]
	OptimizeModules          *Hook[*CompilationParam]
	OptimizeTree             *Hook[*CompilationParam]
	OptimizeChunks           *Hook[*CompilationParam]
	Seal                     *Hook[*CompilationParam]
	RuntimeRequirementInTree *Hook[*CompilationParam]
	ProcessAssets            *Hook[*ProcessAssetsParam]
	ChunkHash                *Hook[*ChunkHashParam]

	// Cache lifecycle hooks.
	BeforeCacheLoad *Hook[*CacheParam]
	AfterCacheSave  *Hook[*CacheParam]
}

// NewDriver constructs a Driver with every hook initialized empty; plugins
// Tap() the fields they care about, leaving the rest as no-op chains.
func NewDriver() *Driver {
	return &Driver{
		BeforeResolve: NewHook[*ResolveParam]("NormalModuleFactory.BeforeResolve"),
		Resolve:       NewHook[*ResolveParam]("NormalModuleFactory.Resolve"),
		Factorize:     NewHook[*FactorizeParam]("NormalModuleFactory.Factorize"),
		Module:        NewHook[*FactorizeParam]("NormalModuleFactory.Module"),
		Parser:        NewHook[*ParserParam]("NormalModuleFactory.Parser"),

		ContextBeforeResolve: NewHook[*ResolveParam]("ContextModuleFactory.BeforeResolve"),
		ContextAfterResolve:  NewHook[*ResolveParam]("ContextModuleFactory.AfterResolve"),

		FinishModules:            NewHook[*CompilationParam]("Compilation.FinishModules"),
		OptimizeModules:          NewHook[*CompilationParam]("Compilation.OptimizeModules"),
		OptimizeTree:             NewHook[*CompilationParam]("Compilation.OptimizeTree"),
		OptimizeChunks:           NewHook[*CompilationParam]("Compilation.OptimizeChunks"),
		Seal:                     NewHook[*CompilationParam]("Compilation.Seal"),
		RuntimeRequirementInTree: NewHook[*CompilationParam]("Compilation.RuntimeRequirementInTree"),
		ProcessAssets:            NewHook[*ProcessAssetsParam]("Compilation.ProcessAssets"),
		ChunkHash:                NewHook[*ChunkHashParam]("Compilation.ChunkHash"),

		BeforeCacheLoad: NewHook[*CacheParam]("Cache.BeforeLoad"),
		AfterCacheSave:  NewHook[*CacheParam]("Cache.AfterSave"),
	}
}
