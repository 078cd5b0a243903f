// Package hset implements a set of hashable elements, JVM style
package hset

import (
	"github.com/benbjohnson/immutable"
	"iter"
)

// HSet is a shallow wrapper around a map of hash buckets.
// Elements with the same hash are told apart with the hasher's Equal.
type HSet[A any] struct {
	hasher     immutable.Hasher[A]
	underlying map[uint32][]A
	size       *int
}

func Empty[A any](hasher immutable.Hasher[A]) HSet[A] {
	return HSet[A]{
		hasher:     hasher,
		underlying: make(map[uint32][]A),
		size:       new(int),
	}
}

func New[A any](hasher immutable.Hasher[A], elems ...A) HSet[A] {
	n := Empty(hasher)
	for _, elem := range elems {
		n.Add(elem)
	}
	return n
}

// Add inserts elem, and reports whether it was not present before
func (s HSet[A]) Add(elem A) bool {
	h := s.hasher.Hash(elem)
	for _, existing := range s.underlying[h] {
		if s.hasher.Equal(existing, elem) {
			return false
		}
	}
	s.underlying[h] = append(s.underlying[h], elem)
	*s.size++
	return true
}

func (s HSet[A]) Remove(elems ...A) {
	for _, elem := range elems {
		h := s.hasher.Hash(elem)
		bucket := s.underlying[h]
		for i, existing := range bucket {
			if s.hasher.Equal(existing, elem) {
				s.underlying[h] = append(bucket[:i:i], bucket[i+1:]...)
				*s.size--
				break
			}
		}
		if len(s.underlying[h]) == 0 {
			delete(s.underlying, h)
		}
	}
}

func (s HSet[A]) Contains(elem A) bool {
	for _, existing := range s.underlying[s.hasher.Hash(elem)] {
		if s.hasher.Equal(existing, elem) {
			return true
		}
	}
	return false
}

func (s HSet[A]) Len() int {
	return *s.size
}

func (s HSet[A]) All() iter.Seq[A] {
	return func(yield func(A) bool) {
		for _, bucket := range s.underlying {
			for _, elem := range bucket {
				if !yield(elem) {
					return
				}
			}
		}
	}
}
