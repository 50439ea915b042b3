package llm

import (
	"context"
	"errors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrNoUserTurn = errors.New("conversation must end with a user turn")

// Turn is one message of the running conversation.
type Turn struct {
	Role string
	Text string
}

// Completer produces the assistant's next reply. The last turn is the user
// prompt being answered; earlier turns are context.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
	Close() error
}

func splitLast(turns []Turn) ([]Turn, Turn, error) {
	if len(turns) == 0 || turns[len(turns)-1].Role != RoleUser {
		return nil, Turn{}, ErrNoUserTurn
	}
	return turns[:len(turns)-1], turns[len(turns)-1], nil
}
