package agent

import (
	"context"
	"strings"

	"github.com/walletroast/walletroast/internal/models"
)

// Chat answers the latest user turn about a previously roasted token.
// The history must be non-empty, contain only user and assistant turns,
// and end with a user turn.
func (a *Agent) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	if len(req.Messages) == 0 {
		return nil, models.NewInvalidInputError("messages must not be empty")
	}

	for i, m := range req.Messages {
		if m.Role != models.ChatRoleUser && m.Role != models.ChatRoleAssistant {
			return nil, models.NewInvalidInputError("messages[%d] has unknown role %q", i, m.Role)
		}
		if strings.TrimSpace(m.Content) == "" {
			return nil, models.NewInvalidInputError("messages[%d] has no content", i)
		}
	}
	if req.Messages[len(req.Messages)-1].Role != models.ChatRoleUser {
		return nil, models.NewInvalidInputError("the last message must come from the user")
	}

	return a.generator.Chat(ctx, req.Messages, req.TokenContext)
}
