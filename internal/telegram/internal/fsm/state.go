package fsm

import (
	"errors"
	"time"
)

type ConversationStep int

const (
	StepIdle ConversationStep = iota
	StepAwaitingChoice
	StepAwaitingName
	StepTransferring
)

func (s ConversationStep) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingChoice:
		return "awaiting_choice"
	case StepAwaitingName:
		return "awaiting_name"
	case StepTransferring:
		return "transferring"
	default:
		return "unknown"
	}
}

var (
	ErrSessionExpired     = errors.New("session expired")
	ErrTransferInProgress = errors.New("transfer in progress")
	ErrSessionChanged     = errors.New("session changed by another update")
)

// Session is the pending URL of one chat. There is at most one per chat.
type Session struct {
	ChatID          int64
	UserID          int64
	URL             string
	DefaultFilename string
	CustomFilename  string
	Step            ConversationStep
	PromptMessageID int
	SourceMessageID int
	DeclaredSize    int64
	CreatedAt       time.Time
}

func (s Session) AwaitingRename() bool {
	return s.Step == StepAwaitingName
}

// Filename is the name the document will be uploaded under.
func (s Session) Filename() string {
	if s.CustomFilename != "" {
		return s.CustomFilename
	}
	return s.DefaultFilename
}
