package concurrent_map

import "sync"

// Map is a typed wrapper over sync.Map.
type Map[K comparable, V any] struct {
	cMap sync.Map
}

func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// GetOrSet returns the existing value for k if present. Otherwise it stores
// and returns v. The loaded result reports whether the value was present.
func (m *Map[K, V]) GetOrSet(k K, v V) (actual V, loaded bool) {
	a, loaded := m.cMap.LoadOrStore(k, v)
	return a.(V), loaded
}

func (m *Map[K, V]) Delete(k K) {
	m.cMap.Delete(k)
}

func (m *Map[K, V]) Range(f func(k K, v V) bool) {
	m.cMap.Range(func(k, v any) bool {
		return f(k.(K), v.(V))
	})
}

func (m *Map[K, V]) Len() int {
	n := 0
	m.cMap.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}
