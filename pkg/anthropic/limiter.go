package anthropic

import (
	"context"

	"golang.org/x/time/rate"
)

// limitedClient enforces a client-side request rate ahead of the API's own
// throttling, so a burst of concurrent orders doesn't trade progress for 429s.
type limitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimited wraps client with a token-bucket limiter of rps requests
// per second and the given burst. A non-positive rps returns client unchanged.
func NewRateLimited(client Client, rps float64, burst int) Client {
	if rps <= 0 {
		return client
	}
	if burst < 1 {
		burst = 1
	}
	return &limitedClient{
		inner:   client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (c *limitedClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.CreateMessage(ctx, req)
}
