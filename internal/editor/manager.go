// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import "sync"

// Manager tracks live controllers keyed by session and page, so an
// author's edit session survives across requests without leaking into
// anyone else's. Controllers for other tabs or other users never share
// state.
type Manager struct {
	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewManager creates an empty controller manager.
func NewManager() *Manager {
	return &Manager{controllers: make(map[string]*Controller)}
}

func key(sessionID, page string) string {
	return sessionID + "|" + page
}

// Get returns the controller for a session's page, if one exists.
func (m *Manager) Get(sessionID, page string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.controllers[key(sessionID, page)]
	return c, ok
}

// Put registers a controller for a session's page, replacing any prior one.
func (m *Manager) Put(sessionID, page string, c *Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.controllers[key(sessionID, page)] = c
}

// Remove drops a session's controller for a page. Called when an edit
// session completes or the session ends.
func (m *Manager) Remove(sessionID, page string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.controllers, key(sessionID, page))
}

// RemoveSession drops every controller belonging to a session. Called at
// logout.
func (m *Manager) RemoveSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.controllers {
		if len(k) > len(sessionID) && k[:len(sessionID)+1] == sessionID+"|" {
			delete(m.controllers, k)
		}
	}
}
