package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type timeoutGateway struct {
	next    Gateway
	timeout time.Duration
}

// WithTimeout bounds every call made through next. Deadline overruns surface
// as ErrGatewayTimeout; any other failure is guaranteed to wrap ErrGateway.
func WithTimeout(next Gateway, timeout time.Duration) Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &timeoutGateway{next: next, timeout: timeout}
}

func (g *timeoutGateway) Generate(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.next.Generate(callCtx, messages, opts)
	if err == nil {
		return resp, nil
	}
	if errors.Is(err, ErrGatewayTimeout) {
		return nil, err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %w after %s", ErrGateway, ErrGatewayTimeout, g.timeout)
	}
	if !errors.Is(err, ErrGateway) {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return nil, err
}
