package epg

// orderedMap keeps values in an arena slice indexed by key, so iteration
// follows first insertion.
type orderedMap[K comparable, V any] struct {
	index   map[K]int
	entries []orderedEntry[K, V]
}

type orderedEntry[K comparable, V any] struct {
	key   K
	value V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{index: make(map[K]int)}
}

// get returns a pointer into the arena; it stays valid until the next put.
func (m *orderedMap[K, V]) get(key K) (*V, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return &m.entries[i].value, true
}

// putIfAbsent stores value under key unless the key is already present.
func (m *orderedMap[K, V]) putIfAbsent(key K, value V) bool {
	if _, ok := m.index[key]; ok {
		return false
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, orderedEntry[K, V]{key: key, value: value})
	return true
}

func (m *orderedMap[K, V]) len() int {
	return len(m.entries)
}

func (m *orderedMap[K, V]) each(fn func(key K, value V)) {
	for _, e := range m.entries {
		fn(e.key, e.value)
	}
}
