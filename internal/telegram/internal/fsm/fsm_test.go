package fsm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGetRemove(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get(1)
	assert.False(t, ok)

	store.Put(Session{ChatID: 1, URL: "https://example.com/a", Step: StepAwaitingChoice})
	session, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a", session.URL)
	assert.Equal(t, 1, store.Len())

	assert.True(t, store.RemoveIf(session))
	assert.False(t, store.RemoveIf(session))
	_, ok = store.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreNewURLSupersedes(t *testing.T) {
	store := NewMemoryStore()
	idle := Session{ChatID: 7, Step: StepIdle}
	old := Session{ChatID: 7, URL: "https://example.com/old", Step: StepAwaitingChoice, PromptMessageID: 2, SourceMessageID: 1}
	next := Session{ChatID: 7, URL: "https://example.com/new", Step: StepAwaitingChoice, PromptMessageID: 4, SourceMessageID: 3}

	require.True(t, store.Replace(idle, old))
	assert.False(t, store.Replace(idle, next))
	require.True(t, store.Replace(old, next))
	assert.False(t, store.Replace(old, next))

	session, ok := store.Get(7)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/new", session.URL)
	assert.False(t, session.AwaitingRename())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreReplaceLosesToTransfer(t *testing.T) {
	store := NewMemoryStore()
	pending := Session{ChatID: 5, URL: "https://example.com/a", Step: StepAwaitingChoice, PromptMessageID: 2, SourceMessageID: 1}
	store.Put(pending)

	running, ok := store.Transition(pending, StepTransferring)
	require.True(t, ok)

	assert.False(t, store.Replace(pending, Session{ChatID: 5, URL: "https://example.com/b", Step: StepAwaitingChoice, PromptMessageID: 4}))
	session, _ := store.Get(5)
	assert.Equal(t, StepTransferring, session.Step)
	assert.Equal(t, "https://example.com/a", session.URL)

	assert.True(t, store.RemoveIf(running))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreRemoveIfKeepsNewerSession(t *testing.T) {
	store := NewMemoryStore()
	running := Session{ChatID: 6, Step: StepTransferring, PromptMessageID: 2, SourceMessageID: 1}
	newer := Session{ChatID: 6, Step: StepAwaitingChoice, PromptMessageID: 9, SourceMessageID: 8}
	store.Put(newer)

	assert.False(t, store.RemoveIf(running))
	session, ok := store.Get(6)
	require.True(t, ok)
	assert.Equal(t, newer, session)
}

func TestMemoryStoreTransition(t *testing.T) {
	store := NewMemoryStore()
	naming := Session{ChatID: 3, DefaultFilename: "a.pdf", Step: StepAwaitingName, PromptMessageID: 10}
	store.Put(naming)

	_, ok := store.Transition(Session{ChatID: 3, Step: StepAwaitingChoice, PromptMessageID: 10}, StepTransferring)
	assert.False(t, ok)
	_, ok = store.Transition(Session{ChatID: 3, Step: StepAwaitingName, PromptMessageID: 11}, StepTransferring)
	assert.False(t, ok)
	_, ok = store.Transition(Session{ChatID: 4, Step: StepAwaitingName}, StepTransferring)
	assert.False(t, ok)

	session, ok := store.Transition(naming, StepTransferring, func(s *Session) {
		s.CustomFilename = "b.pdf"
	})
	require.True(t, ok)
	assert.Equal(t, StepTransferring, session.Step)
	assert.Equal(t, "b.pdf", session.Filename())

	stored, _ := store.Get(3)
	assert.Equal(t, session, stored)
}

func TestMemoryStoreTransitionClaimsOnce(t *testing.T) {
	store := NewMemoryStore()
	pending := Session{ChatID: 9, Step: StepAwaitingChoice}
	store.Put(pending)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := store.Transition(pending, StepTransferring); ok {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, claimed)
}

func TestSessionFilename(t *testing.T) {
	s := Session{DefaultFilename: "report.pdf"}
	assert.Equal(t, "report.pdf", s.Filename())

	s.CustomFilename = "final.pdf"
	assert.Equal(t, "final.pdf", s.Filename())
}
