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
package template

import (
	"fmt"

	"bundlecore.dev/bundlecore/graph"
)

// ESMTemplate renders a static import/export dependency into a runtime
// module-registry lookup, the bundler-runtime equivalent of a native ESM
// import. Registered under "esm" in DefaultRegistry.
type ESMTemplate struct{}

func (ESMTemplate) Render(dep graph.Dependency, source *ReplaceSource, ctx *Context) []InitFragment {
	esm, ok := dep.(*graph.ESMDependency)
	if !ok {
		return nil
	}
	for _, spec := range esm.Specifiers {
		if spec.Name == "*" {
			source.Insert(0, fmt.Sprintf("const %s = %s(%q);\n", spec.Local, ctx.RequireIdent, esm.Request()))
			continue
		}
		if ctx.InlinedValue != nil {
			if lit, ok := ctx.InlinedValue(esm, spec.Name); ok {
				source.Insert(0, fmt.Sprintf("const %s = %s;\n", spec.Local, lit))
				continue
			}
		}
		source.Insert(0, fmt.Sprintf("const { %s: %s } = %s(%q);\n", spec.Name, spec.Local, ctx.RequireIdent, esm.Request()))
	}
	return []InitFragment{{
		Key:     "esm-imports-header",
		Stage:   StageESMImports,
		Content: fmt.Sprintf("// esm imports via %s\n", ctx.RequireIdent),
	}}
}

// CommonJSTemplate renders a `require(...)` call, passed through unchanged
// since the runtime's require implementation already matches CommonJS
// semantics (no specifier destructuring to rewrite, unlike ESM).
type CommonJSTemplate struct{}

func (CommonJSTemplate) Render(dep graph.Dependency, source *ReplaceSource, ctx *Context) []InitFragment {
	if _, ok := dep.(*graph.CommonJSDependency); !ok {
		return nil
	}
	return nil
}

// URLTemplate matches URL/asset dependencies. Its Render makes no edit to
// the source and returns no InitFragments, whether or not ResolvedPath is
// set: the request is not rewritten to a content-hashed output path.
type URLTemplate struct {
	ResolvedPath func(request string) string
}

func (t URLTemplate) Render(dep graph.Dependency, source *ReplaceSource, ctx *Context) []InitFragment {
	u, ok := dep.(*graph.URLDependency)
	if !ok || t.ResolvedPath == nil {
		return nil
	}
	_ = u.Request()
	return nil
}

// DefaultRegistry builds the Registry wired with the Template
// implementations this package provides, the set compiler.New installs
// when Options.Registry is nil, unless a caller needs a custom Template for a loader
// this package doesn't know about.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("esm", ESMTemplate{})
	r.Register("commonjs", CommonJSTemplate{})
	r.Register("url", URLTemplate{})
	return r
}
