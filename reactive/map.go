package reactive

import (
	"sort"

	"github.com/fork-tongue/kolla/util"
)

// Map is a reactive string-keyed map. Reads performed inside a watcher's
// read function register per-key dependencies; writes notify exactly the
// watchers that depend on the written key. Key additions and removals
// additionally notify watchers that depend on the key set (Keys/Len).
type Map struct {
	data map[string]any
	deps map[string]*dep
	self *dep
}

// NewMap wraps a copy of init for fine-grained tracking.
// A nil init creates an empty reactive map.
func NewMap(init map[string]any) *Map {
	data := make(map[string]any, len(init))
	for k, v := range init {
		data[k] = v
	}
	return &Map{
		data: data,
		deps: make(map[string]*dep),
		self: newDep(),
	}
}

func (m *Map) depFor(key string) *dep {
	d, ok := m.deps[key]
	if !ok {
		d = newDep()
		m.deps[key] = d
	}
	return d
}

// Get reads a key, registering a dependency when called inside a watcher.
func (m *Map) Get(key string) any {
	m.depFor(key).depend()
	return m.data[key]
}

// GetString reads a key as string, with "" for missing or non-string values.
func (m *Map) GetString(key string) string {
	s, _ := m.Get(key).(string)
	return s
}

// GetInt reads a key as int, normalizing numeric types.
func (m *Map) GetInt(key string) int {
	i, _ := util.ToInt(m.Get(key))
	return i
}

// GetBool reads a key as bool, with false for missing values.
func (m *Map) GetBool(key string) bool {
	b, _ := m.Get(key).(bool)
	return b
}

// Has reports whether a key is present, registering a key-set dependency.
func (m *Map) Has(key string) bool {
	m.self.depend()
	_, ok := m.data[key]
	return ok
}

// Set writes a key. Writing a value equal to the current one is a no-op, so
// watchers see no spurious change notifications for stable scalar writes.
func (m *Map) Set(key string, val any) {
	old, existed := m.data[key]
	if existed && !valueChanged(old, val) {
		return
	}
	m.data[key] = val
	m.depFor(key).notify()
	if !existed {
		m.self.notify()
	}
}

// Delete removes a key, notifying both key and key-set watchers.
func (m *Map) Delete(key string) {
	if _, ok := m.data[key]; !ok {
		return
	}
	delete(m.data, key)
	m.depFor(key).notify()
	m.self.notify()
}

// Keys returns the sorted key set, registering a key-set dependency.
func (m *Map) Keys() []string {
	m.self.depend()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys, registering a key-set dependency.
func (m *Map) Len() int {
	m.self.depend()
	return len(m.data)
}

// Raw returns a plain snapshot copy of the current contents. The snapshot is
// detached: mutating it does not touch the reactive map. Reading it inside a
// watcher registers dependencies on every key.
func (m *Map) Raw() map[string]any {
	m.self.depend()
	out := make(map[string]any, len(m.data))
	for k := range m.data {
		out[k] = m.Get(k)
	}
	return out
}
