package llm

import (
	"context"

	"SearchScorer/internal/infrastructure/transport"
)

// Sender performs an outbound call; transport.Client retries under it.
type Sender interface {
	Send(ctx context.Context, req transport.Request) (*transport.Response, error)
}
