package fsm

type TextHandler func(*ConversationContext, string) error

type CallbackHandler func(*ConversationContext, string) error

func Chain(router *Router, name string, initialStep ConversationStep) *ChainDefinition {
	return &ChainDefinition{
		name:    name,
		router:  router,
		current: initialStep,
	}
}

type ChainDefinition struct {
	name    string
	router  *Router
	current ConversationStep
}

func (c *ChainDefinition) OnText(handler TextHandler) *ChainDefinition {
	c.router.registerText(c.current, c.name, handler)
	return c
}

func (c *ChainDefinition) OnCallback(handler CallbackHandler) *ChainDefinition {
	c.router.registerCallback(c.current, c.name, handler)
	return c
}

// Freeze marks the current step as busy: every non-command update for a
// chat at this step is refused with ErrTransferInProgress.
func (c *ChainDefinition) Freeze() *ChainDefinition {
	c.router.freeze(c.current)
	return c
}

func (c *ChainDefinition) Then(nextStep ConversationStep) *ChainDefinition {
	c.current = nextStep
	return c
}
