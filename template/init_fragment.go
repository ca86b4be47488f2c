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

import "sort"

// Stage orders InitFragments within a chunk's rendered output: fragments
// run in ascending Stage order, and within a stage in Priority order (also
// ascending), matching spec.md §4.5's stage list.
type Stage int

const (
	StageESMImports Stage = iota
	StageESMExports
	StageConstants
	StageAsyncBoundary
)

// InitFragment is a piece of boilerplate a dependency's Template needs
// emitted once per chunk regardless of how many times the dependency
// itself appears (e.g. one `import { __decorate } from "tslib"` even if
// ten modules in the chunk use a decorator). Key deduplicates: two
// fragments with the same Key collapse into one, keeping the first's
// Content.
type InitFragment struct {
	Key      string
	Stage    Stage
	Priority int
	Content  string
}

// Merge deduplicates fragments by Key and returns them ordered by
// (Stage, Priority, first-seen).
func Merge(fragments []InitFragment) []InitFragment {
	seen := make(map[string]bool, len(fragments))
	out := make([]InitFragment, 0, len(fragments))
	for _, f := range fragments {
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stage != out[j].Stage {
			return out[i].Stage < out[j].Stage
		}
		return out[i].Priority < out[j].Priority
	})
	return out
}
