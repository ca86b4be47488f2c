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
// Package exports implements the tree-shaking usage analysis: for every
// module export, under every runtime, what usage state has been proven by
// walking the module graph's connections to a fixed point.
package exports

// UsageState is a point in the lattice
// Unused < NoInfo/OnlyPropertiesUsed < Unknown < Used. NoInfo and
// OnlyPropertiesUsed sit at the same rank but are not comparable to each
// other: joining the two yields Unknown, since neither dominates the other.
type UsageState int

const (
	Unused UsageState = iota
	NoInfo
	OnlyPropertiesUsed
	Unknown
	Used
)

func (u UsageState) String() string {
	switch u {
	case Unused:
		return "unused"
	case NoInfo:
		return "no-info"
	case OnlyPropertiesUsed:
		return "only-properties-used"
	case Unknown:
		return "unknown"
	case Used:
		return "used"
	default:
		return "invalid"
	}
}

// rank gives Unused/Unknown/Used their total order; NoInfo and
// OnlyPropertiesUsed share a rank and are handled specially in Join.
func (u UsageState) rank() int {
	switch u {
	case Unused:
		return 0
	case NoInfo, OnlyPropertiesUsed:
		return 1
	case Unknown:
		return 2
	case Used:
		return 3
	default:
		return -1
	}
}

// Join computes the least upper bound of two usage states. Used is
// absorbing; Unused is the identity; NoInfo joined with OnlyPropertiesUsed
// (same rank, different state) produces Unknown, since the lattice gives no
// single state that is both "no info" and "only properties used".
func (u UsageState) Join(other UsageState) UsageState {
	if u == other {
		return u
	}
	if u.rank() == 1 && other.rank() == 1 {
		return Unknown
	}
	if u.rank() >= other.rank() {
		return u
	}
	return other
}
