package verb

// Manager holds the verbs of one owner (actor, scene or world defaults)
// keyed by composite key, in insertion order.
type Manager struct {
	verbs map[string]*Verb
	order []string
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{verbs: map[string]*Verb{}}
}

// Add inserts a verb. A verb with the same key is replaced in place.
func (m *Manager) Add(v *Verb) {
	k := v.Key()
	if _, exists := m.verbs[k]; !exists {
		m.order = append(m.order, k)
	}
	m.verbs[k] = v
}

// Get returns the best verb for id given the owner state and an optional
// target. Priority: id.target.state, id.target, id.state, id.
func (m *Manager) Get(id, state, target string) *Verb {
	if target != "" {
		if state != "" {
			if v := m.verbs[Key(id, target, state)]; v != nil {
				return v
			}
		}
		if v := m.verbs[Key(id, target, "")]; v != nil {
			return v
		}
	}
	if state != "" {
		if v := m.verbs[Key(id, "", state)]; v != nil {
			return v
		}
	}
	return m.verbs[id]
}

// Lookup returns the verb stored under an exact key.
func (m *Manager) Lookup(key string) *Verb {
	return m.verbs[key]
}

// Verbs returns all verbs in insertion order.
func (m *Manager) Verbs() []*Verb {
	out := make([]*Verb, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, m.verbs[k])
	}
	return out
}

// Len returns the number of verbs.
func (m *Manager) Len() int { return len(m.order) }

// Running returns verbs that are running or suspended.
func (m *Manager) Running() []*Verb {
	var out []*Verb
	for _, k := range m.order {
		if v := m.verbs[k]; v.IP() >= 0 {
			out = append(out, v)
		}
	}
	return out
}

// IDs returns the distinct verb ids, in first-seen order.
func (m *Manager) IDs() []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range m.order {
		id := m.verbs[k].ID()
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
