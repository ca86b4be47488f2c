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
// Package orderedset provides a generic set data structure whose Members
// are always returned sorted, for subsystems (chunk id assignment, module
// hashing) that require deterministic iteration over stable-hashed keys.
package orderedset

import (
	"cmp"
	"fmt"
	"slices"
)

// Set is a generic set data structure that stores unique, orderable values.
type Set[T cmp.Ordered] map[T]struct{}

// New creates and returns a new Set containing the provided values.
// Duplicate values in the input are automatically deduplicated.
func New[T cmp.Ordered](vs ...T) Set[T] {
	s := Set[T]{}
	s.Add(vs...)
	return s
}

// Add adds one or more values to the set.
func (s Set[T]) Add(vs ...T) {
	for _, v := range vs {
		s[v] = struct{}{}
	}
}

// Remove deletes one or more values from the set, if present.
func (s Set[T]) Remove(vs ...T) {
	for _, v := range vs {
		delete(s, v)
	}
}

// Has returns true if the set contains the specified value.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Members returns a slice containing all values in the set, sorted in
// ascending order. The returned slice is independent of the set.
func (s Set[T]) Members() []T {
	r := make([]T, 0, len(s))
	for v := range s {
		r = append(r, v)
	}
	slices.Sort(r)
	return r
}

// Union returns a new set containing every member of s and other.
func (s Set[T]) Union(other Set[T]) Set[T] {
	out := make(Set[T], len(s)+len(other))
	for v := range s {
		out[v] = struct{}{}
	}
	for v := range other {
		out[v] = struct{}{}
	}
	return out
}

// Intersect returns a new set containing only members present in both s and other.
func (s Set[T]) Intersect(other Set[T]) Set[T] {
	out := make(Set[T])
	small, big := s, other
	if len(other) < len(s) {
		small, big = other, s
	}
	for v := range small {
		if _, ok := big[v]; ok {
			out[v] = struct{}{}
		}
	}
	return out
}

// String returns a deterministic string representation of the set.
func (s Set[T]) String() string {
	return fmt.Sprintf("%v", s.Members())
}
