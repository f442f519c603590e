package fsm

import "sync"

// Store holds at most one session per chat. Replace, Transition and RemoveIf
// only act on the session the caller last saw, so concurrent handlers for the
// same chat cannot overwrite each other's progress.
type Store interface {
	Get(chatID int64) (Session, bool)
	Put(session Session)
	// Replace stores next in place of expect. An expect at StepIdle only
	// matches a chat without a session.
	Replace(expect, next Session) bool
	// Transition moves expect to the step to. mutate runs under the same lock.
	Transition(expect Session, to ConversationStep, mutate ...func(*Session)) (Session, bool)
	RemoveIf(expect Session) bool
	Len() int
}

type MemoryStore struct {
	sessions map[int64]Session
	mu       *sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[int64]Session),
		mu:       &sync.RWMutex{},
	}
}

func (m *MemoryStore) Get(chatID int64) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[chatID]
	return session, ok
}

func (m *MemoryStore) Put(session Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[session.ChatID] = session
}

func (m *MemoryStore) Replace(expect, next Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[expect.ChatID]
	if !ok && expect.Step != StepIdle {
		return false
	}
	if ok && !sameSession(current, expect) {
		return false
	}
	next.ChatID = expect.ChatID
	m.sessions[next.ChatID] = next
	return true
}

func (m *MemoryStore) Transition(expect Session, to ConversationStep, mutate ...func(*Session)) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[expect.ChatID]
	if !ok || !sameSession(session, expect) {
		return Session{}, false
	}
	session.Step = to
	for _, fn := range mutate {
		fn(&session)
	}
	m.sessions[session.ChatID] = session
	return session, true
}

func (m *MemoryStore) RemoveIf(expect Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.sessions[expect.ChatID]
	if !ok || !sameSession(current, expect) {
		return false
	}
	delete(m.sessions, expect.ChatID)
	return true
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// sameSession reports whether a and b are the same conversation at the same
// step. Every new URL gets its own prompt and source message.
func sameSession(a, b Session) bool {
	return a.Step == b.Step &&
		a.PromptMessageID == b.PromptMessageID &&
		a.SourceMessageID == b.SourceMessageID
}
