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

// AsyncBlock groups one or more dependencies under a single on-demand chunk
// boundary: a dynamic `import()`, a worker, a context-module match. The
// chunk builder's Phase B (assignBlocks) walks these to discover chunk
// group boundaries.
type AsyncBlock struct {
	Dependencies []DependencyID
	ChunkName    string // optional webpackChunkName-style hint
}
