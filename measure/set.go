// Package measure holds named risk-measure values.
package measure

import (
	"strings"
)

// Set is an insertion-ordered mapping from measure name to value with
// case-insensitive lookup. The casing of the first insert is kept for iteration.
type Set struct {
	names []string
	index map[string]int
	vals  []float64
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{index: make(map[string]int)}
}

func key(name string) string {
	return strings.ToLower(name)
}

// Set stores value under name, overwriting any existing entry regardless of case.
func (s *Set) Set(name string, value float64) {
	k := key(name)
	if i, ok := s.index[k]; ok {
		s.vals[i] = value
		return
	}
	s.index[k] = len(s.names)
	s.names = append(s.names, name)
	s.vals = append(s.vals, value)
}

// Get returns the value stored under name.
func (s *Set) Get(name string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[key(name)]
	if !ok {
		return 0, false
	}
	return s.vals[i], true
}

// Has reports whether name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Delete removes name if present.
func (s *Set) Delete(name string) {
	k := key(name)
	i, ok := s.index[k]
	if !ok {
		return
	}
	s.names = append(s.names[:i], s.names[i+1:]...)
	s.vals = append(s.vals[:i], s.vals[i+1:]...)
	delete(s.index, k)
	for j := i; j < len(s.names); j++ {
		s.index[key(s.names[j])] = j
	}
}

// Len returns the number of measures.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns the measure names in insertion order.
func (s *Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Each calls fn for every measure in insertion order.
func (s *Set) Each(fn func(name string, value float64)) {
	for i, n := range s.names {
		fn(n, s.vals[i])
	}
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	out := NewSet()
	s.Each(out.Set)
	return out
}

// Merge copies every measure of other into s, prefixing names with prefix.
func (s *Set) Merge(other *Set, prefix string) {
	if other == nil {
		return
	}
	other.Each(func(name string, value float64) {
		s.Set(prefix+name, value)
	})
}

// WithPrefix returns a copy of s whose names all carry prefix.
func (s *Set) WithPrefix(prefix string) *Set {
	out := NewSet()
	out.Merge(s, prefix)
	return out
}

// Map returns the measures as a plain map (for serialization).
func (s *Set) Map() map[string]float64 {
	out := make(map[string]float64, len(s.names))
	s.Each(func(name string, value float64) {
		out[name] = value
	})
	return out
}
