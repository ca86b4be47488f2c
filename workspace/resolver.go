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
package workspace

import (
	"context"

	"bundlecore.dev/bundlecore/graph"
)

// SpecifierResolver implements graph.Resolver over a DualFileSystem,
// classifying each request the way the teacher's IsPackageSpecifier/
// IsURLSpecifier helpers classify a dependency spec before deciding which
// WorkspaceContext backend handles it — generalized here to decide between
// "external module" and "follow this request to a concrete resource".
type SpecifierResolver struct {
	FS *DualFileSystem
	// Externals lists bare specifiers (package names) the bundler should
	// leave unresolved, left to the runtime to provide (e.g. "react" in a
	// module-federation host). Empty means "resolve everything it can".
	Externals map[string]string // specifier -> external kind ("global", "module", ...)
}

// NewSpecifierResolver constructs a resolver over fs with the given
// external specifier table.
func NewSpecifierResolver(fs *DualFileSystem, externals map[string]string) *SpecifierResolver {
	return &SpecifierResolver{FS: fs, Externals: externals}
}

// Resolve classifies and follows request relative to dir, matching
// spec.md §3's module resolution step: bare npm/jsr specifiers and
// entries in Externals resolve to an ExternalModule request; "http(s)://"
// requests resolve to a remote resource fetched through HTTPCache;
// everything else resolves against the local filesystem with extension
// probing.
func (r *SpecifierResolver) Resolve(ctx context.Context, dir, request string) (*graph.ResolveResult, error) {
	if kind, ok := r.Externals[request]; ok {
		return &graph.ResolveResult{Resource: request, External: true, ExternalOf: kind}, nil
	}

	if IsPackageSpecifier(request) {
		return &graph.ResolveResult{Resource: request, External: true, ExternalOf: "module"}, nil
	}

	if IsURLSpecifier(request) {
		return &graph.ResolveResult{Resource: request}, nil
	}

	if isBareSpecifier(request) {
		return &graph.ResolveResult{Resource: request, External: true, ExternalOf: "module"}, nil
	}

	resolved, err := r.FS.resolveLocalCandidate(ctx, dir, request)
	if err != nil {
		return nil, err
	}
	return &graph.ResolveResult{Resource: resolved}, nil
}

// isBareSpecifier reports whether request names a package import
// ("react", "@scope/pkg/sub") rather than a relative/absolute path.
func isBareSpecifier(request string) bool {
	return request != "" && request[0] != '.' && request[0] != '/'
}
