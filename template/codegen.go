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
	"strings"

	"bundlecore.dev/bundlecore/graph"
	"github.com/evanw/esbuild/pkg/api"
)

// Loader/Target/SourceMapMode mirror the teacher's transform engine enums
// (serve/middleware/transform/engine.go), generalized from "serve one
// transformed file over HTTP" to "emit one module's contribution to a
// chunk's asset source".
type Loader string

const (
	LoaderTS  Loader = "ts"
	LoaderTSX Loader = "tsx"
	LoaderJS  Loader = "js"
	LoaderCSS Loader = "css"
)

type Target string

const (
	TargetES2020 Target = "es2020"
	TargetESNext Target = "esnext"
)

func apiLoader(l Loader) api.Loader {
	switch l {
	case LoaderTS:
		return api.LoaderTS
	case LoaderTSX:
		return api.LoaderTSX
	case LoaderCSS:
		return api.LoaderCSS
	default:
		return api.LoaderJS
	}
}

func apiTarget(t Target) api.Target {
	if t == TargetESNext {
		return api.ESNext
	}
	return api.ES2020
}

// TransformOptions configures one TransformModule call, grounded on the
// teacher's TransformOptions but scoped to what a bundler's own codegen
// pass needs rather than what a dev-server endpoint needs (no source-map
// mode switch: TransformModule always asks esbuild for no source map, and
// source-map emission is out of this module's scope per spec.md §1 Non-goals).
type TransformOptions struct {
	Loader Loader
	Target Target
	Minify bool
}

// CodegenResult is one module's transformed JS/CSS text. Dependencies is
// not filled by TransformModule or TransformCSS: graph.Builder, not esbuild,
// is the source of truth for the module graph.
type CodegenResult struct {
	Code         string
	Dependencies []string
}

// TransformModule runs a NormalModule's source through esbuild, the
// delegation spec.md §1 requires ("loader transpilers... delegated to
// esbuild's api.Transform", never hand-rolled). Grounded on the teacher's
// TransformTypeScript: default tsconfigRaw disables importHelpers so esbuild
// never silently reaches for a tslib it can't resolve.
func TransformModule(source string, opts TransformOptions) (*CodegenResult, error) {
	transformOpts := api.TransformOptions{
		Loader:      apiLoader(opts.Loader),
		Target:      apiTarget(opts.Target),
		Sourcemap:   api.SourceMapNone,
		TsconfigRaw: `{"compilerOptions":{"importHelpers":false}}`,
	}
	if opts.Minify {
		transformOpts.MinifyWhitespace = true
		transformOpts.MinifyIdentifiers = true
		transformOpts.MinifySyntax = true
	}

	result := api.Transform(source, transformOpts)
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			msgs[i] = e.Text
		}
		return nil, fmt.Errorf("esbuild transform: %s", strings.Join(msgs, "; "))
	}

	return &CodegenResult{Code: string(result.Code)}, nil
}

// TransformCSS wraps CSS source into a module exporting a CSSStyleSheet, so
// CSS modules can be imported like any other module and attached with
// `adoptedStyleSheets`, the same approach the teacher's TransformCSS takes
// for Lit component styles (generalized: no component-specific wrapper
// here, just a generic constructable-stylesheet export).
func TransformCSS(source string) (*CodegenResult, error) {
	minified, err := TransformModule(source, TransformOptions{Loader: LoaderCSS, Minify: true})
	if err != nil {
		return nil, err
	}
	escaped := escapeForTemplateLiteral(minified.Code)
	code := fmt.Sprintf("const sheet = new CSSStyleSheet();\nsheet.replaceSync(`%s`);\nexport default sheet;\n", escaped)
	return &CodegenResult{Code: code}, nil
}

// escapeForTemplateLiteral escapes backslash, backtick, `${`, and `</`
// sequences for safe embedding inside a JS template literal, ported from
// the teacher's stringToTemplateLiteral (serve/middleware/transform/engine.go),
// which itself follows Lit's own escaping regex so embedded `</script>`-like
// sequences can't break out of the literal.
func escapeForTemplateLiteral(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == '`':
			b.WriteString("\\`")
		case r == '$':
			b.WriteRune(r)
		case r == '{' && prev == '$':
			b.WriteString("\\{")
		case r == '/' && prev == '<':
			b.WriteString(`\/`)
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

// PureAnnotation returns "/*#__PURE__*/ " when m's module-federation
// ancestry marks it as a consume-shared descendant (see
// graph.IsConsumeSharedDescendant), so esbuild/downstream minifiers can
// drop the call if its result goes unused — the observable effect
// SPEC_FULL.md §9 requires the supplemented feature to have on emitted
// output.
func PureAnnotation(g *graph.Graph, id graph.ModuleID) string {
	if graph.IsConsumeSharedDescendant(g, id) {
		return "/*#__PURE__*/ "
	}
	return ""
}
