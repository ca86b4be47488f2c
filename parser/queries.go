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
// Package parser extracts a module's static structure (imports, exports,
// dynamic-import boundaries) from its source text using tree-sitter,
// grounded on the teacher's queries package: the same parser-pooling and
// QueryManager/QueryMatcher architecture, generalized from a custom-elements-
// manifest's HTML/CSS/JSDoc queries to a bundler's JS/TS/CSS queries.
//
// The teacher loads its queries from *.scm files via go:embed. This module's
// retrieval pack carries no .scm files, so query patterns are authored here
// as Go string constants instead of embedded assets.
package parser

import (
	"fmt"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"
	tsCSS "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tsTypescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language identifies which tree-sitter grammar a source file parses with.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangCSS        Language = "css"
)

var languages = struct {
	typescript *ts.Language
	tsx        *ts.Language
	css        *ts.Language
}{
	ts.NewLanguage(tsTypescript.LanguageTypescript()),
	ts.NewLanguage(tsTypescript.LanguageTSX()),
	ts.NewLanguage(tsCSS.Language()),
}

var typescriptParserPool = sync.Pool{
	New: func() any {
		p := ts.NewParser()
		if err := p.SetLanguage(languages.typescript); err != nil {
			panic(fmt.Sprintf("failed to set TypeScript language: %v", err))
		}
		return p
	},
}

var tsxParserPool = sync.Pool{
	New: func() any {
		p := ts.NewParser()
		if err := p.SetLanguage(languages.tsx); err != nil {
			panic(fmt.Sprintf("failed to set TSX language: %v", err))
		}
		return p
	},
}

var cssParserPool = sync.Pool{
	New: func() any {
		p := ts.NewParser()
		if err := p.SetLanguage(languages.css); err != nil {
			panic(fmt.Sprintf("failed to set CSS language: %v", err))
		}
		return p
	},
}

func getParser(lang Language) *ts.Parser {
	switch lang {
	case LangTSX:
		return tsxParserPool.Get().(*ts.Parser)
	case LangCSS:
		return cssParserPool.Get().(*ts.Parser)
	default:
		return typescriptParserPool.Get().(*ts.Parser)
	}
}

func putParser(lang Language, p *ts.Parser) {
	p.Reset()
	switch lang {
	case LangTSX:
		tsxParserPool.Put(p)
	case LangCSS:
		cssParserPool.Put(p)
	default:
		typescriptParserPool.Put(p)
	}
}

// Query source text, authored inline since the pack has no .scm assets to
// embed. Capture names follow the teacher's dotted convention
// ("parent.field").
const (
	importsQuery = `
(import_statement
  source: (string (string_fragment) @import.source)
  (import_clause
    (identifier) @import.default)?
) @import.statement

(import_statement
  source: (string (string_fragment) @import.source)
  (import_clause
    (namespace_import (identifier) @import.namespace))
) @import.statement

(import_statement
  source: (string (string_fragment) @import.source)
  (import_clause
    (named_imports
      (import_specifier
        name: (identifier) @import.named.name
        alias: (identifier)? @import.named.alias)))
) @import.statement

(import_statement
  source: (string (string_fragment) @import.source)
  !import_clause
) @import.bare
`

	exportsQuery = `
(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @export.name
      alias: (identifier)? @export.alias))
  source: (string (string_fragment) @export.source)?
) @export.statement

(export_statement
  declaration: (lexical_declaration
    (variable_declarator
      name: (identifier) @export.decl.name
      value: (_) @export.decl.value))
) @export.decl.statement

(export_statement
  "default"
  value: (_) @export.default.value
) @export.default.statement
`

	dynamicImportQuery = `
(call_expression
  function: (import)
  arguments: (arguments (string (string_fragment) @dynamic-import.source))
) @dynamic-import.call
`

	requireQuery = `
(call_expression
  function: (identifier) @require.callee
  arguments: (arguments (string (string_fragment) @require.source))
  (#eq? @require.callee "require")
) @require.call
`

	workerQuery = `
(new_expression
  constructor: (identifier) @worker.callee
  arguments: (arguments
    (new_expression
      constructor: (identifier) @worker.url-callee
      arguments: (arguments (string (string_fragment) @worker.source))))
  (#eq? @worker.callee "Worker")
  (#eq? @worker.url-callee "URL")
) @worker.new
`

	customElementDefineQuery = `
(call_expression
  function: (member_expression
    object: (identifier) @define.object
    property: (property_identifier) @define.method)
  arguments: (arguments
    (string (string_fragment) @define.tag-name)
    (identifier) @define.class-name)
  (#eq? @define.object "customElements")
  (#eq? @define.method "define")
) @define.call
`

	cssURLQuery = `
(call_expression) @css.url
`
)

// QueryManager holds parsed *ts.Query instances per (language, name),
// constructed once and reused across every ParseModule call, mirroring the
// teacher's QueryManager lifecycle (construct once, Close at process exit).
type QueryManager struct {
	byLang map[Language]map[string]*ts.Query
}

// queryNames enumerates which query text to compile for a language.
var queryNames = map[Language]map[string]string{
	LangTypeScript: {
		"imports":         importsQuery,
		"exports":         exportsQuery,
		"dynamic-import":  dynamicImportQuery,
		"require":         requireQuery,
		"worker":          workerQuery,
		"define":          customElementDefineQuery,
	},
	LangTSX: {
		"imports":         importsQuery,
		"exports":         exportsQuery,
		"dynamic-import":  dynamicImportQuery,
		"require":         requireQuery,
		"worker":          workerQuery,
		"define":          customElementDefineQuery,
	},
	LangCSS: {
		"url": cssURLQuery,
	},
}

// NewQueryManager compiles every query this package knows about. Construct
// one per Builder/Compiler lifetime, not per file.
func NewQueryManager() (*QueryManager, error) {
	qm := &QueryManager{byLang: make(map[Language]map[string]*ts.Query)}
	langs := map[Language]*ts.Language{
		LangTypeScript: languages.typescript,
		LangTSX:        languages.tsx,
		LangCSS:        languages.css,
	}
	for lang, names := range queryNames {
		qm.byLang[lang] = make(map[string]*ts.Query, len(names))
		for name, src := range names {
			q, err := ts.NewQuery(langs[lang], src)
			if err != nil {
				qm.Close()
				return nil, fmt.Errorf("compiling %s query %q: %w", lang, name, err)
			}
			qm.byLang[lang][name] = q
		}
	}
	return qm, nil
}

func (qm *QueryManager) query(lang Language, name string) (*ts.Query, bool) {
	m, ok := qm.byLang[lang]
	if !ok {
		return nil, false
	}
	q, ok := m[name]
	return q, ok
}

// Close releases every compiled query. Call once, at shutdown.
func (qm *QueryManager) Close() {
	for _, m := range qm.byLang {
		for _, q := range m {
			q.Close()
		}
	}
}
