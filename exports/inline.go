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
package exports

import "strings"

// IsInlinable recognizes a narrow set of literal export initializer shapes
// eligible for constant inlining (string, number, boolean literals, and
// simple template literals with no substitutions). This mirrors the
// teacher's DefaultExportParser.parseCustomElementsDefine: check for a
// specific, narrow literal shape first, and only fall back to "not
// inlinable, treat as a general expression" rather than attempting to
// evaluate arbitrary JS. No constant folding of a larger expression happens
// here or in the module transform: the compiler calls
// template.TransformModule without Minify, so esbuild's MinifySyntax pass
// does not run on module source.
func IsInlinable(initializerSource string) (*InlineValue, bool) {
	src := strings.TrimSpace(initializerSource)
	if src == "" {
		return nil, false
	}

	switch {
	case isStringLiteral(src), isNumericLiteral(src), src == "true", src == "false", src == "null", src == "undefined":
		return &InlineValue{Raw: src}, true
	case isPlainTemplateLiteral(src):
		return &InlineValue{Raw: src}, true
	default:
		return nil, false
	}
}

func isStringLiteral(s string) bool {
	if len(s) < 2 {
		return false
	}
	quote := s[0]
	if quote != '\'' && quote != '"' {
		return false
	}
	if s[len(s)-1] != quote {
		return false
	}
	// Reject an unescaped quote in the middle, which would mean this isn't
	// a single literal token (e.g. `'a' + 'b'`).
	body := s[1 : len(s)-1]
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' {
			i++
			continue
		}
		if body[i] == quote {
			return false
		}
	}
	return true
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	seenDigit := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' || r == '-' || r == '+' || r == 'e' || r == 'E':
			// allowed anywhere but leading sign
		case r == 'x' || r == 'X' || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'):
			if i < 2 {
				continue
			}
			return false
		default:
			return false
		}
	}
	return seenDigit
}

// isPlainTemplateLiteral recognizes a backtick string with no `${`
// substitution, which is just as inlinable as a plain string literal.
func isPlainTemplateLiteral(s string) bool {
	if len(s) < 2 || s[0] != '`' || s[len(s)-1] != '`' {
		return false
	}
	return !strings.Contains(s, "${")
}
