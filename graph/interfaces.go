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
	"io/fs"
	"time"
)

// ReadableFileSystem abstracts reading module source, grounded on the
// teacher's FileParser interface (module_graph_interfaces.go) and its
// OSFileParser/MockFileParser split: production code talks to the OS or an
// HTTP cache, tests talk to an in-memory map, and Builder never knows
// which.
type ReadableFileSystem interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadDir(ctx context.Context, path string) ([]fs.DirEntry, error)
	Stat(ctx context.Context, path string) (fs.FileInfo, error)
	Realpath(ctx context.Context, path string) (string, error)
}

// ModTime is a convenience extracted from Stat.
func ModTime(fi fs.FileInfo) time.Time { return fi.ModTime() }

// ResolveResult is what Resolver.Resolve returns for a request: either a
// concrete resource path, or an externality classification.
type ResolveResult struct {
	Resource   string
	External   bool
	ExternalOf string
}

// Resolver maps a (directory, request) pair to a resource, following
// loader/alias/extension resolution rules. Builder calls this before
// invoking ModuleFactory.
type Resolver interface {
	Resolve(ctx context.Context, dir string, request string) (*ResolveResult, error)
}

// CreateData is the input to ModuleFactory.Create: everything needed to
// turn a resolved resource into a Module without re-resolving it.
type CreateData struct {
	Dependency     Dependency
	OriginModuleID ModuleID
	Resolved       *ResolveResult
	Context        string // directory the request was issued from
}

// BlockAssignment marks that NewDependencies[DependencyIndex] is the
// representative dependency of an on-demand chunk boundary (a dynamic
// import, a worker, a context match), named ChunkName if the source
// carried a chunk-name hint. The coordinator allocates the dependency's id
// before it can build the AsyncBlock, so the assignment is reported by
// index rather than by a pre-built *AsyncBlock.
type BlockAssignment struct {
	DependencyIndex int
	ChunkName       string
}

// FactorizeResult is what ModuleFactory.Create returns: either a new or
// deduplicated-existing Module, or a factorize error. NewDependencies and
// NewBlocks are only populated the first time a given resource is
// factorized (ModuleFactory implementations are expected to dedup by
// resource themselves and return an empty slice on a repeat factorize), so
// the coordinator doesn't double-enqueue a module's dependencies when two
// importers both reference it.
type FactorizeResult struct {
	Module          Module
	NewDependencies []Dependency
	NewBlocks       []BlockAssignment
}

// ModuleFactory turns resolved CreateData into a Module. Builder's worker
// pool calls this concurrently across many dependencies; implementations
// must be safe for concurrent use (the default implementation,
// factory.NormalModuleFactory, guards its one piece of mutable state, the
// set of already-parsed resources, with a mutex).
type ModuleFactory interface {
	Create(ctx context.Context, data CreateData) (*FactorizeResult, error)
}
