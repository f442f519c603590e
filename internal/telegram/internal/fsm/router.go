package fsm

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ErrorHandler receives every error a step handler returns, along with the
// router's own ErrSessionExpired and ErrTransferInProgress refusals.
type ErrorHandler func(ctx context.Context, update *models.Update, chatID int64, err error)

type route struct {
	chain string
	text  TextHandler
	cb    CallbackHandler
}

type Router struct {
	store   Store
	routes  map[ConversationStep]*route
	frozen  map[ConversationStep]bool
	onError ErrorHandler
	mu      *sync.RWMutex
}

func NewRouter(store Store, onError ErrorHandler) *Router {
	if onError == nil {
		onError = func(_ context.Context, _ *models.Update, chatID int64, err error) {
			slog.Error("Unhandled conversation error", "error", err, "chatID", chatID)
		}
	}
	return &Router{
		store:   store,
		routes:  make(map[ConversationStep]*route),
		frozen:  make(map[ConversationStep]bool),
		onError: onError,
		mu:      &sync.RWMutex{},
	}
}

func (r *Router) routeFor(step ConversationStep, chain string) *route {
	rt, ok := r.routes[step]
	if !ok {
		rt = &route{chain: chain}
		r.routes[step] = rt
	}
	return rt
}

func (r *Router) registerText(step ConversationStep, chain string, handler TextHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routeFor(step, chain).text = handler
}

func (r *Router) registerCallback(step ConversationStep, chain string, handler CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routeFor(step, chain).cb = handler
}

func (r *Router) freeze(step ConversationStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen[step] = true
}

func (r *Router) Middleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		chatID, userID, ok := identify(update)
		if !ok {
			next(ctx, b, update)
			return
		}
		if update.Message != nil && strings.HasPrefix(update.Message.Text, "/") {
			next(ctx, b, update)
			return
		}

		session, exists := r.store.Get(chatID)
		if !exists {
			session = Session{ChatID: chatID, Step: StepIdle}
		}

		r.mu.RLock()
		rt := r.routes[session.Step]
		frozen := r.frozen[session.Step]
		r.mu.RUnlock()

		if frozen {
			r.onError(ctx, update, chatID, ErrTransferInProgress)
			return
		}

		cc := &ConversationContext{
			Ctx:     ctx,
			Update:  update,
			ChatID:  chatID,
			UserID:  userID,
			Session: session,
			router:  r,
		}

		var err error
		switch {
		case update.CallbackQuery != nil:
			if rt == nil || rt.cb == nil || !exists || !isCurrentPrompt(update.CallbackQuery, session) {
				err = ErrSessionExpired
				break
			}
			err = rt.cb(cc, update.CallbackQuery.Data)
		case rt != nil && rt.text != nil:
			err = rt.text(cc, update.Message.Text)
		default:
			next(ctx, b, update)
			return
		}

		if err != nil {
			r.onError(ctx, update, chatID, err)
		}
	}
}

func isCurrentPrompt(query *models.CallbackQuery, session Session) bool {
	if session.PromptMessageID == 0 || query.Message.Message == nil {
		return true
	}
	return query.Message.Message.ID == session.PromptMessageID
}

func identify(update *models.Update) (chatID, userID int64, ok bool) {
	switch {
	case update.Message != nil:
		userID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
		return update.Message.Chat.ID, userID, true
	case update.CallbackQuery != nil:
		userID = update.CallbackQuery.From.ID
		if msg := update.CallbackQuery.Message.Message; msg != nil {
			return msg.Chat.ID, userID, true
		}
		return userID, userID, true
	default:
		return 0, 0, false
	}
}
