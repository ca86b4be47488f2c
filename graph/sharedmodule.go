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

// IsConsumeSharedDescendant reports whether m itself, or any module reached
// by walking incoming connections back from m, is a module-federation
// provide-shared/consume-shared module. Grounded on
// original_source/optimization-patch.rs's is_consume_shared_descendant: a
// BFS up the incoming-connection/issuer chain from m, checking at each hop
// whether the current module itself carries a SharedKey/ConsumeSharedKey or
// is a SharedModule.
//
// The patch's own global lazy_static-mutex cache is replaced here with a
// per-Graph sync.Map (Graph.sharedDescendantCache), the "preferred,
// per-compilation" alternative the patch itself proposes — spec.md's design
// notes reject unscoped globals, and a per-Graph cache is invalidated
// automatically whenever AddConnection/RemoveConnection mutate the graph's
// topology (see Graph.invalidateSharedDescendantCacheLocked).
func IsConsumeSharedDescendant(g *Graph, m ModuleID) bool {
	if cached, ok := g.sharedDescendantCache.Load(m); ok {
		return cached.(bool)
	}
	result := computeConsumeSharedDescendant(g, m)
	g.sharedDescendantCache.Store(m, result)
	return result
}

func computeConsumeSharedDescendant(g *Graph, start ModuleID) bool {
	if isSharedModule(g, start) {
		return true
	}

	visited := make(map[ModuleID]bool)
	queue := []ModuleID{start}
	visited[start] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, connID := range g.IncomingConnections(current) {
			conn, ok := g.Connection(connID)
			if !ok || conn.OriginModuleID == "" {
				continue
			}
			issuer := conn.OriginModuleID
			if visited[issuer] {
				continue
			}
			visited[issuer] = true

			if isSharedModule(g, issuer) {
				return true
			}
			queue = append(queue, issuer)
		}
	}
	return false
}

func isSharedModule(g *Graph, id ModuleID) bool {
	mod, ok := g.Module(id)
	if !ok {
		return false
	}
	if mod.ModuleType() == ModuleTypeProvideShared || mod.ModuleType() == ModuleTypeConsumeShared {
		return true
	}
	meta := mod.BuildMeta()
	return meta.SharedKey != "" || meta.ConsumeSharedKey != nil
}
