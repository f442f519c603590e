package fsm

import (
	"context"

	"github.com/go-telegram/bot/models"
)

type ConversationContext struct {
	Ctx     context.Context
	Update  *models.Update
	ChatID  int64
	UserID  int64
	Session Session
	router  *Router
}

// MessageID is the id of the message that produced the update: the user's
// text message, or the message carrying the pressed keyboard.
func (c *ConversationContext) MessageID() int {
	if c.Update.Message != nil {
		return c.Update.Message.ID
	}
	if c.Update.CallbackQuery != nil && c.Update.CallbackQuery.Message.Message != nil {
		return c.Update.CallbackQuery.Message.Message.ID
	}
	return 0
}

// Replace installs next as the chat's session in place of the one the update
// was routed with and returns the session it replaced. A choice that became
// pending in the meantime is replaced as well. Any other change made by a
// concurrent update wins: ErrTransferInProgress when a transfer started,
// ErrSessionChanged otherwise.
func (c *ConversationContext) Replace(next Session) (Session, error) {
	next.ChatID = c.ChatID
	expect := c.Session
	for {
		if c.router.store.Replace(expect, next) {
			c.Session = next
			return expect, nil
		}

		current, ok := c.router.store.Get(c.ChatID)
		switch {
		case !ok:
			expect = Session{ChatID: c.ChatID, Step: StepIdle}
		case current.Step == StepAwaitingChoice:
			expect = current
		case current.Step == StepTransferring:
			return current, ErrTransferInProgress
		default:
			return current, ErrSessionChanged
		}
	}
}

// Transition advances the current session. It fails with ErrSessionExpired
// when the session changed underneath the handler.
func (c *ConversationContext) Transition(next ConversationStep, mutate ...func(*Session)) error {
	session, ok := c.router.store.Transition(c.Session, next, mutate...)
	if !ok {
		return ErrSessionExpired
	}
	c.Session = session
	return nil
}
