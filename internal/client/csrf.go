package client

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// csrfCache holds the token echoed back on every call. Concurrent misses
// share a single handshake.
type csrfCache struct {
	mu    sync.Mutex
	token string
	group singleflight.Group
	fetch func(ctx context.Context) (string, error)
}

func (c *csrfCache) get(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}

	// the shared handshake must not die with whichever caller started it
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan("csrf", func() (interface{}, error) {
		tok, err := c.fetch(shared)
		if err != nil {
			return "", err
		}
		if tok != "" {
			c.mu.Lock()
			c.token = tok
			c.mu.Unlock()
		}
		return tok, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *csrfCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}
