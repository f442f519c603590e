package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routerHarness struct {
	store  *MemoryStore
	router *Router
	errs   []error
	nexts  int
}

func newRouterHarness() *routerHarness {
	h := &routerHarness{store: NewMemoryStore()}
	h.router = NewRouter(h.store, func(_ context.Context, _ *models.Update, _ int64, err error) {
		h.errs = append(h.errs, err)
	})
	return h
}

func (h *routerHarness) dispatch(update *models.Update) {
	next := func(context.Context, *bot.Bot, *models.Update) { h.nexts++ }
	h.router.Middleware(next)(context.Background(), nil, update)
}

func textUpdate(chatID int64, messageID int, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   messageID,
		Chat: models.Chat{ID: chatID},
		From: &models.User{ID: chatID},
		Text: text,
	}}
}

func callbackUpdate(chatID int64, messageID int, data string) *models.Update {
	return &models.Update{CallbackQuery: &models.CallbackQuery{
		ID:   "cb",
		From: models.User{ID: chatID},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{ID: messageID, Chat: models.Chat{ID: chatID}},
		},
	}}
}

func TestRouterDispatchesByStep(t *testing.T) {
	h := newRouterHarness()
	var got []string

	Chain(h.router, "url", StepIdle).
		OnText(func(cc *ConversationContext, text string) error {
			got = append(got, "idle:"+text)
			_, err := cc.Replace(Session{URL: text, Step: StepAwaitingChoice, PromptMessageID: 11, SourceMessageID: cc.MessageID()})
			return err
		}).
		Then(StepAwaitingChoice).
		OnCallback(func(cc *ConversationContext, data string) error {
			got = append(got, "choice:"+data)
			return cc.Transition(StepAwaitingName)
		}).
		Then(StepAwaitingName).
		OnText(func(cc *ConversationContext, text string) error {
			got = append(got, "name:"+text)
			return cc.Transition(StepTransferring)
		})

	h.dispatch(textUpdate(1, 10, "https://example.com/x"))
	h.dispatch(callbackUpdate(1, 11, "rename"))
	h.dispatch(textUpdate(1, 12, "new"))

	assert.Equal(t, []string{"idle:https://example.com/x", "choice:rename", "name:new"}, got)
	assert.Empty(t, h.errs)
	session, ok := h.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, StepTransferring, session.Step)
	assert.Equal(t, "https://example.com/x", session.URL)
}

func TestRouterCallbackWithoutSessionExpires(t *testing.T) {
	h := newRouterHarness()
	Chain(h.router, "url", StepIdle).
		OnText(func(*ConversationContext, string) error { return nil }).
		OnCallback(func(*ConversationContext, string) error {
			t.Fatal("idle callback must not run without a session")
			return nil
		}).
		Then(StepAwaitingChoice).
		OnCallback(func(*ConversationContext, string) error { return nil })

	h.dispatch(callbackUpdate(5, 1, "rename"))

	require.Len(t, h.errs, 1)
	assert.ErrorIs(t, h.errs[0], ErrSessionExpired)
}

func TestRouterStaleKeyboardExpires(t *testing.T) {
	h := newRouterHarness()
	called := false
	Chain(h.router, "url", StepAwaitingChoice).
		OnCallback(func(*ConversationContext, string) error {
			called = true
			return nil
		})
	h.store.Put(Session{ChatID: 2, Step: StepAwaitingChoice, PromptMessageID: 40})

	h.dispatch(callbackUpdate(2, 39, "default"))
	assert.False(t, called)
	require.Len(t, h.errs, 1)
	assert.ErrorIs(t, h.errs[0], ErrSessionExpired)

	h.dispatch(callbackUpdate(2, 40, "default"))
	assert.True(t, called)
}

func TestRouterFrozenStepRefusesInput(t *testing.T) {
	h := newRouterHarness()
	Chain(h.router, "url", StepIdle).
		OnText(func(*ConversationContext, string) error {
			t.Fatal("frozen chat must not start a new session")
			return nil
		}).
		Then(StepTransferring).
		Freeze()
	h.store.Put(Session{ChatID: 3, Step: StepTransferring})

	h.dispatch(textUpdate(3, 1, "https://example.com/other"))
	h.dispatch(callbackUpdate(3, 1, "default"))

	require.Len(t, h.errs, 2)
	assert.ErrorIs(t, h.errs[0], ErrTransferInProgress)
	assert.ErrorIs(t, h.errs[1], ErrTransferInProgress)
}

func TestRouterPassesCommandsThrough(t *testing.T) {
	h := newRouterHarness()
	Chain(h.router, "url", StepIdle).
		OnText(func(*ConversationContext, string) error {
			t.Fatal("commands are not conversation input")
			return nil
		})
	h.store.Put(Session{ChatID: 4, Step: StepAwaitingChoice})

	h.dispatch(textUpdate(4, 1, "/help"))
	h.dispatch(&models.Update{})

	assert.Equal(t, 2, h.nexts)
	_, ok := h.store.Get(4)
	assert.True(t, ok)
}

func TestRouterReportsHandlerErrors(t *testing.T) {
	h := newRouterHarness()
	boom := errors.New("boom")
	Chain(h.router, "url", StepIdle).
		OnText(func(*ConversationContext, string) error { return boom })

	h.dispatch(textUpdate(6, 1, "text"))

	require.Len(t, h.errs, 1)
	assert.ErrorIs(t, h.errs[0], boom)
}

func TestConversationContextTransitionDetectsChange(t *testing.T) {
	h := newRouterHarness()
	h.store.Put(Session{ChatID: 8, Step: StepAwaitingChoice})
	cc := &ConversationContext{ChatID: 8, Session: Session{ChatID: 8, Step: StepAwaitingChoice}, router: h.router}

	h.store.Put(Session{ChatID: 8, Step: StepAwaitingName})

	assert.ErrorIs(t, cc.Transition(StepTransferring), ErrSessionExpired)
}

func TestConversationContextReplace(t *testing.T) {
	h := newRouterHarness()
	idle := Session{ChatID: 9, Step: StepIdle}
	next := Session{URL: "https://example.com/b", Step: StepAwaitingChoice, PromptMessageID: 21, SourceMessageID: 20}

	t.Run("supersedes a choice made pending meanwhile", func(t *testing.T) {
		pending := Session{ChatID: 9, URL: "https://example.com/a", Step: StepAwaitingChoice, PromptMessageID: 11, SourceMessageID: 10}
		h.store.Put(pending)
		cc := &ConversationContext{ChatID: 9, Session: idle, router: h.router}

		previous, err := cc.Replace(next)
		require.NoError(t, err)
		assert.Equal(t, pending, previous)
		stored, _ := h.store.Get(9)
		assert.Equal(t, "https://example.com/b", stored.URL)
		assert.Equal(t, int64(9), cc.Session.ChatID)
	})

	t.Run("loses to a running transfer", func(t *testing.T) {
		running := Session{ChatID: 9, URL: "https://example.com/a", Step: StepTransferring, PromptMessageID: 11, SourceMessageID: 10}
		h.store.Put(running)
		cc := &ConversationContext{ChatID: 9, Session: idle, router: h.router}

		_, err := cc.Replace(next)
		assert.ErrorIs(t, err, ErrTransferInProgress)
		stored, _ := h.store.Get(9)
		assert.Equal(t, running, stored)
	})

	t.Run("loses to a pending rename", func(t *testing.T) {
		naming := Session{ChatID: 9, Step: StepAwaitingName, PromptMessageID: 11, SourceMessageID: 10}
		h.store.Put(naming)
		cc := &ConversationContext{ChatID: 9, Session: idle, router: h.router}

		_, err := cc.Replace(next)
		assert.ErrorIs(t, err, ErrSessionChanged)
		stored, _ := h.store.Get(9)
		assert.Equal(t, naming, stored)
	})
}
