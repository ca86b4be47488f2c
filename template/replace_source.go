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
// Package template implements the dependency/template codegen model:
// Template.Render writes a dependency's contribution into a ReplaceSource,
// InitFragments hoist shared boilerplate, and ConcatenationScope wires
// several modules' renders into one scope-hoisted unit.
package template

import (
	"sort"
	"strings"
)

// replacement is one non-overlapping edit applied to the original source:
// bytes [Start, End) are replaced with Content. A pure insertion has
// End == Start and insertion set (matching the "insert before position N" convention
// the teacher's source-map-aware rewriting uses).
type replacement struct {
	Start, End int
	Content    string
	insertion  bool
}

// ReplaceSource accumulates a set of non-overlapping replacements over an
// original byte buffer and renders the final text by splicing them in
// sorted order, exactly as spec.md §4.5 describes. Overlapping replacements
// are a programmer error (two dependencies both trying to own the same
// byte range) and are rejected rather than silently resolved by last-write-
// wins, since that would make codegen nondeterministic.
type ReplaceSource struct {
	original      []byte
	replacements  []replacement
}

// NewReplaceSource wraps original for incremental replacement application.
func NewReplaceSource(original []byte) *ReplaceSource {
	return &ReplaceSource{original: original}
}

// Replace records that [start, end) should become content. Returns false
// if this overlaps a previously recorded, non-insertion replacement.
func (rs *ReplaceSource) Replace(start, end int, content string) bool {
	if overlaps(rs.replacements, start, end) {
		return false
	}
	rs.replacements = append(rs.replacements, replacement{Start: start, End: end, Content: content})
	return true
}

// Insert records a zero-width insertion of content immediately before pos.
// Insertions at the same position are applied in call order.
func (rs *ReplaceSource) Insert(pos int, content string) {
	rs.replacements = append(rs.replacements, replacement{Start: pos, End: pos, Content: content, insertion: true})
}

func overlaps(existing []replacement, start, end int) bool {
	for _, r := range existing {
		if r.insertion {
			continue
		}
		if start < r.End && r.Start < end {
			return true
		}
	}
	return false
}

// Render applies every replacement in sorted (Start, then insertion-before-
// replacement-at-same-position) order and returns the resulting text.
func (rs *ReplaceSource) Render() string {
	sorted := append([]replacement{}, rs.replacements...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		// Insertions at a position render before a replacement starting at
		// that same position, so `Insert(5, "x")` followed by
		// `Replace(5, 10, "y")` reads "x" then "y", not "y" then "x".
		return sorted[i].insertion && !sorted[j].insertion
	})

	var b strings.Builder
	cursor := 0
	for _, r := range sorted {
		if r.Start > cursor {
			b.Write(rs.original[cursor:r.Start])
		}
		b.WriteString(r.Content)
		if !r.insertion {
			cursor = r.End
		} else if r.Start > cursor {
			cursor = r.Start
		}
	}
	if cursor < len(rs.original) {
		b.Write(rs.original[cursor:])
	}
	return b.String()
}
