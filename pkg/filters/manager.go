package filters

import "sync"

// Manager owns the filter values of one viewer session. Setting a value never
// loads data; callers apply explicitly.
type Manager struct {
	mu     sync.RWMutex
	defs   []Definition
	values Values
}

func NewManager(defs []Definition, existing Values) *Manager {
	return &Manager{
		defs:   append([]Definition(nil), defs...),
		values: Initialize(defs, existing),
	}
}

func (m *Manager) Definitions() []Definition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Definition(nil), m.defs...)
}

func (m *Manager) Definition(varName string) (Definition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.defs {
		if d.VarName == varName {
			return d, true
		}
	}
	return Definition{}, false
}

// Set stores a value. Unknown variables are kept too; Payload drops them.
func (m *Manager) Set(varName string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[varName] = value
}

// Reset drops every chosen value back to the declared defaults.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = Initialize(m.defs, nil)
}

func (m *Manager) Values() Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values.Clone()
}

func (m *Manager) Payload() Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Payload(m.defs, m.values)
}

func (m *Manager) CanLoad() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return CanLoad(m.defs, m.values)
}

func (m *Manager) MissingRequired() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MissingRequired(m.defs, m.values)
}
