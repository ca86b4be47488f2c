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
package parser

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// ImportSpecifier names one binding an ImportRecord pulls in. Name is
// "default" for a default import and "*" for a namespace import; Alias is
// the local binding name when it differs from Name.
type ImportSpecifier struct {
	Name  string
	Alias string
}

// ImportRecord is one static `import ... from "..."` statement.
type ImportRecord struct {
	Source      string
	Specifiers  []ImportSpecifier
	SideEffectOnly bool // `import "./x.css"` with no clause
}

// ExportRecord is one binding named in an `export { ... }` clause, or a
// declaration/default export discovered by the exports query.
type ExportRecord struct {
	Name           string
	Alias          string
	ReExportSource string // non-empty for `export { x } from "./y"`

	// Initializer is the raw source text of one declarator's initializer in
	// an `export const/let x = <value>` statement, empty for a clause export or a
	// declaration this package doesn't track an initializer for. It's the
	// candidate text exports.IsInlinable checks for constant-inlining
	// eligibility.
	Initializer string

	// StartByte/EndByte bound the enclosing export_statement in source, so
	// codegen can splice the statement out entirely once exports.Analyzer
	// proves every name it declares unused. Zero/zero (StartByte == EndByte)
	// means this record carries no elidable span.
	StartByte int
	EndByte   int
}

// DynamicImportRecord is one `import(...)` call expression, the boundary
// parser.ParseModule reports so graph.Builder can materialize an AsyncBlock.
type DynamicImportRecord struct {
	Source string
}

// RequireRecord is one `require(...)` call.
type RequireRecord struct {
	Source string
}

// WorkerRecord is one `new Worker(new URL("...", import.meta.url))` call.
type WorkerRecord struct {
	Source string
}

// CustomElementDefine is one `customElements.define("tag-name", ClassName)`
// call, a supplemented detail useful for component-oriented bundles: the
// compiler can use it to warn about duplicate tag registrations across
// chunks without waiting for a browser console error.
type CustomElementDefine struct {
	TagName   string
	ClassName string
}

// Result is everything ParseModule extracts from one file's source.
type Result struct {
	Imports          []ImportRecord
	Exports          []ExportRecord
	HasDefaultExport bool
	DynamicImports   []DynamicImportRecord
	Requires         []RequireRecord
	Workers          []WorkerRecord
	CustomElements   []CustomElementDefine
}

// ParseModule parses source in lang and extracts its static structure,
// using qm's pre-compiled queries. Grounded on the teacher's
// FindClassDeclarationInSource/ParentCaptures pattern: parse once, then run
// each query over the resulting tree, grouping captures by their statement-
// level parent node.
func ParseModule(qm *QueryManager, lang Language, source []byte) (*Result, error) {
	p := getParser(lang)
	defer putParser(lang, p)

	tree := p.Parse(source, nil)
	if tree == nil {
		return &Result{}, nil
	}
	defer tree.Close()
	root := tree.RootNode()

	result := &Result{}

	if lang == LangCSS {
		return result, nil
	}

	if q, ok := qm.query(lang, "imports"); ok {
		result.Imports = parseImports(q, root, source)
	}
	if q, ok := qm.query(lang, "exports"); ok {
		result.Exports, result.HasDefaultExport = parseExports(q, root, source)
	}
	if q, ok := qm.query(lang, "dynamic-import"); ok {
		result.DynamicImports = parseDynamicImports(q, root, source)
	}
	if q, ok := qm.query(lang, "require"); ok {
		result.Requires = parseRequires(q, root, source)
	}
	if q, ok := qm.query(lang, "worker"); ok {
		result.Workers = parseWorkers(q, root, source)
	}
	if q, ok := qm.query(lang, "define"); ok {
		result.CustomElements = parseDefines(q, root, source)
	}

	return result, nil
}

func matches(q *ts.Query, root *ts.Node, source []byte) []*ts.QueryMatch {
	cursor := ts.NewQueryCursor()
	defer cursor.Close()
	it := cursor.Matches(q, root, source)
	var out []*ts.QueryMatch
	for {
		m := it.Next()
		if m == nil {
			break
		}
		out = append(out, m)
	}
	return out
}

// capturedGroup is every capture belonging to one statement-level match,
// keyed by capture name, plus the byte span of the groupBy node itself —
// callers that need to splice or preserve the statement's exact source text
// (export elision, inlining) use Start/End; callers that only need the
// parsed values ignore them.
type capturedGroup struct {
	Start, End int
	Values     map[string][]string
}

// capturesByNode groups a query's captures by the id of the capture named
// groupBy, so every capture belonging to the same statement collapses into
// one map keyed by capture name, preserving statement source order.
func capturesByNode(q *ts.Query, matches []*ts.QueryMatch, source []byte, groupBy string) []capturedGroup {
	names := q.CaptureNames()
	type group struct {
		start, end int
		startByte  uint
		values     map[string][]string
	}
	byID := make(map[uintptr]*group)
	order := make([]uintptr, 0, len(matches))

	for _, m := range matches {
		var groupID uintptr
		var groupStart, groupEnd int
		found := false
		for _, c := range m.Captures {
			if names[c.Index] == groupBy {
				groupID = uintptr(c.Node.Id())
				groupStart = int(c.Node.StartByte())
				groupEnd = int(c.Node.EndByte())
				found = true
				break
			}
		}
		if !found {
			continue
		}
		g, ok := byID[groupID]
		if !ok {
			g = &group{start: groupStart, end: groupEnd, values: make(map[string][]string)}
			byID[groupID] = g
			order = append(order, groupID)
		}
		for _, c := range m.Captures {
			name := names[c.Index]
			text := c.Node.Utf8Text(source)
			g.values[name] = append(g.values[name], text)
		}
	}

	out := make([]capturedGroup, 0, len(order))
	for _, id := range order {
		g := byID[id]
		out = append(out, capturedGroup{Start: g.start, End: g.end, Values: g.values})
	}
	return out
}

func first(m map[string][]string, key string) (string, bool) {
	v, ok := m[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func parseImports(q *ts.Query, root *ts.Node, source []byte) []ImportRecord {
	var out []ImportRecord
	for _, group := range capturesByNode(q, matches(q, root, source), source, "import.statement") {
		src, ok := first(group.Values, "import.source")
		if !ok {
			continue
		}
		rec := ImportRecord{Source: src}
		if def, ok := first(group.Values, "import.default"); ok {
			rec.Specifiers = append(rec.Specifiers, ImportSpecifier{Name: "default", Alias: def})
		}
		if ns, ok := first(group.Values, "import.namespace"); ok {
			rec.Specifiers = append(rec.Specifiers, ImportSpecifier{Name: "*", Alias: ns})
		}
		names := group.Values["import.named.name"]
		aliases := group.Values["import.named.alias"]
		for i, n := range names {
			alias := n
			if i < len(aliases) && aliases[i] != "" {
				alias = aliases[i]
			}
			rec.Specifiers = append(rec.Specifiers, ImportSpecifier{Name: n, Alias: alias})
		}
		out = append(out, rec)
	}
	for _, group := range capturesByNode(q, matches(q, root, source), source, "import.bare") {
		src, ok := first(group.Values, "import.source")
		if !ok {
			continue
		}
		out = append(out, ImportRecord{Source: src, SideEffectOnly: true})
	}
	return out
}

func parseExports(q *ts.Query, root *ts.Node, source []byte) ([]ExportRecord, bool) {
	var out []ExportRecord
	hasDefault := false
	for _, group := range capturesByNode(q, matches(q, root, source), source, "export.statement") {
		name, ok := first(group.Values, "export.name")
		if !ok {
			continue
		}
		alias := name
		if a, ok := first(group.Values, "export.alias"); ok {
			alias = a
		}
		src, _ := first(group.Values, "export.source")
		out = append(out, ExportRecord{
			Name: name, Alias: alias, ReExportSource: src,
			StartByte: group.Start, EndByte: group.End,
		})
	}
	// `export const/let x = <value>` (a lexical_declaration; `export var` is
	// not matched): the only declaration shape this package tracks an
	// initializer for, since exports.IsInlinable only ever recognizes a narrow
	// literal shape anyway. A multi-declarator statement
	// (`export const a = 1, b = 2`) pairs names and values positionally.
	for _, group := range capturesByNode(q, matches(q, root, source), source, "export.decl.statement") {
		names := group.Values["export.decl.name"]
		values := group.Values["export.decl.value"]
		for i, n := range names {
			rec := ExportRecord{Name: n, Alias: n, StartByte: group.Start, EndByte: group.End}
			if i < len(values) {
				rec.Initializer = values[i]
			}
			out = append(out, rec)
		}
	}
	for range capturesByNode(q, matches(q, root, source), source, "export.default.statement") {
		hasDefault = true
	}
	return out, hasDefault
}

func parseDynamicImports(q *ts.Query, root *ts.Node, source []byte) []DynamicImportRecord {
	var out []DynamicImportRecord
	for _, group := range capturesByNode(q, matches(q, root, source), source, "dynamic-import.call") {
		if src, ok := first(group.Values, "dynamic-import.source"); ok {
			out = append(out, DynamicImportRecord{Source: src})
		}
	}
	return out
}

func parseRequires(q *ts.Query, root *ts.Node, source []byte) []RequireRecord {
	var out []RequireRecord
	for _, group := range capturesByNode(q, matches(q, root, source), source, "require.call") {
		if src, ok := first(group.Values, "require.source"); ok {
			out = append(out, RequireRecord{Source: src})
		}
	}
	return out
}

func parseWorkers(q *ts.Query, root *ts.Node, source []byte) []WorkerRecord {
	var out []WorkerRecord
	for _, group := range capturesByNode(q, matches(q, root, source), source, "worker.new") {
		if src, ok := first(group.Values, "worker.source"); ok {
			out = append(out, WorkerRecord{Source: src})
		}
	}
	return out
}

func parseDefines(q *ts.Query, root *ts.Node, source []byte) []CustomElementDefine {
	var out []CustomElementDefine
	for _, group := range capturesByNode(q, matches(q, root, source), source, "define.call") {
		tag, ok := first(group.Values, "define.tag-name")
		if !ok {
			continue
		}
		cls, _ := first(group.Values, "define.class-name")
		out = append(out, CustomElementDefine{TagName: tag, ClassName: cls})
	}
	return out
}
