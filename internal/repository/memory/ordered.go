package memory

// orderedMap is a map that remembers insertion order.
//
// Removing a key keeps the relative order of the remaining keys, and
// insertAt lets a rollback put a removed key back exactly where it was.
type orderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{values: make(map[K]V)}
}

func (m *orderedMap[K, V]) len() int { return len(m.keys) }

func (m *orderedMap[K, V]) get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

// insert appends k. It reports false without changing anything if k exists.
func (m *orderedMap[K, V]) insert(k K, v V) bool {
	if _, ok := m.values[k]; ok {
		return false
	}
	m.keys = append(m.keys, k)
	m.values[k] = v
	return true
}

// remove deletes k and returns its value and former position.
func (m *orderedMap[K, V]) remove(k K) (V, int, bool) {
	v, ok := m.values[k]
	if !ok {
		return v, -1, false
	}
	pos := m.position(k)
	m.keys = append(m.keys[:pos], m.keys[pos+1:]...)
	delete(m.values, k)
	return v, pos, true
}

func (m *orderedMap[K, V]) insertAt(pos int, k K, v V) {
	m.keys = append(m.keys, k)
	copy(m.keys[pos+1:], m.keys[pos:])
	m.keys[pos] = k
	m.values[k] = v
}

func (m *orderedMap[K, V]) position(k K) int {
	for i, key := range m.keys {
		if key == k {
			return i
		}
	}
	return -1
}

// each calls fn for every entry in insertion order until fn returns false.
func (m *orderedMap[K, V]) each(fn func(k K, v V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}
